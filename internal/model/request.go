package model

import (
	"encoding/json"
)

// RequestDescriptor is a normalized outbound request ready for the proxy.
// Body is nil for GET requests.
type RequestDescriptor struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// RequestForm holds the user-editable text fields of a request before they
// have been validated. Headers and Body must be valid JSON before a
// descriptor can be produced from the form.
type RequestForm struct {
	URL     string
	Method  string
	Headers string
	Body    string
}

// ResponseRecord is the outcome of a single dispatch. Exactly one shape is
// produced: success (Error empty) or failure (Error set, Data nil).
type ResponseRecord struct {
	Status  int               `json:"status"`
	Data    json.RawMessage   `json:"data"`
	Headers map[string]string `json:"headers,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Failed reports whether the record carries the failure shape.
func (r ResponseRecord) Failed() bool {
	return r.Error != ""
}

// User identifies the signed-in account, as exposed by the session provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Methods lists the request methods the workbench supports.
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

// ValidMethod reports whether m is one of the supported request methods.
func ValidMethod(m string) bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}
