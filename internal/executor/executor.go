package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"restbench/internal/api"
	"restbench/internal/model"
)

// Proxy dispatches a normalized descriptor through the backend.
type Proxy interface {
	Proxy(ctx context.Context, desc model.RequestDescriptor) (model.ResponseRecord, error)
}

// Executor turns the editable request form into a descriptor, sends it
// through the proxy and classifies the outcome. It performs exactly one
// attempt per call and leaves persistence to the caller.
type Executor struct {
	proxy Proxy
	log   zerolog.Logger
}

// New creates an executor dispatching through the given proxy.
func New(proxy Proxy, log zerolog.Logger) *Executor {
	return &Executor{proxy: proxy, log: log}
}

// Execute validates the form, dispatches it and returns the response record
// paired with the exact descriptor that was sent. Validation failures never
// reach the network: they are reported as a synthetic 400 record with a zero
// descriptor.
func (e *Executor) Execute(ctx context.Context, form model.RequestForm) (model.ResponseRecord, model.RequestDescriptor) {
	desc, err := buildDescriptor(form)
	if err != nil {
		e.log.Debug().Err(err).Str("url", form.URL).Msg("rejected before dispatch")
		return model.ResponseRecord{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		}, model.RequestDescriptor{}
	}

	rec, err := e.proxy.Proxy(ctx, desc)
	if err != nil {
		status := http.StatusInternalServerError
		message := err.Error()
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusOr(http.StatusInternalServerError)
			message = apiErr.Message
		}
		return model.ResponseRecord{
			Error:  message,
			Status: status,
		}, desc
	}
	return rec, desc
}

// buildDescriptor parses the form's text fields. Headers must be a JSON
// object; body is parsed only for non-GET methods, defaulting to an empty
// object when the text is blank. GET requests carry no body at all.
func buildDescriptor(form model.RequestForm) (model.RequestDescriptor, error) {
	if err := validateURL(form.URL); err != nil {
		return model.RequestDescriptor{}, err
	}
	if !model.ValidMethod(form.Method) {
		return model.RequestDescriptor{}, fmt.Errorf("unsupported method: %s", form.Method)
	}

	headersText := strings.TrimSpace(form.Headers)
	if headersText == "" {
		headersText = "{}"
	}
	var headers map[string]string
	if err := json.Unmarshal([]byte(headersText), &headers); err != nil {
		return model.RequestDescriptor{}, fmt.Errorf("invalid JSON in headers")
	}

	desc := model.RequestDescriptor{
		URL:     form.URL,
		Method:  form.Method,
		Headers: headers,
	}

	if form.Method != http.MethodGet {
		bodyText := strings.TrimSpace(form.Body)
		if bodyText == "" {
			bodyText = "{}"
		}
		if !json.Valid([]byte(bodyText)) {
			return model.RequestDescriptor{}, fmt.Errorf("invalid JSON in body")
		}
		desc.Body = json.RawMessage(bodyText)
	}
	return desc, nil
}

// validateURL rejects targets the proxy would refuse anyway, failing fast
// before incurring network cost.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("URL must have a hostname")
	}
	return nil
}
