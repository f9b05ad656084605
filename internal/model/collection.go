package model

import (
	"encoding/json"
	"time"
)

// HistoryEntry is one past request/response pair. Entries are owned by the
// remote store and never mutated after creation; the client only holds a
// read-through copy.
type HistoryEntry struct {
	ID             string            `json:"id"`
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	Headers        map[string]string `json:"headers"`
	Body           *string           `json:"body"`
	ResponseStatus *int              `json:"response_status"`
	ResponseData   json.RawMessage   `json:"response_data"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Collection is a named group of saved requests.
type Collection struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Items       []CollectionItem `json:"items"`
}

// CollectionItem is a saved request owned by exactly one collection.
type CollectionItem struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
}

// FormFromHistory pre-fills a request form from a history entry, pretty
// printing headers and body back into editable text.
func FormFromHistory(entry HistoryEntry) RequestForm {
	form := RequestForm{
		URL:     entry.URL,
		Method:  entry.Method,
		Headers: prettyHeaders(entry.Headers),
	}
	if entry.Body != nil {
		form.Body = prettyText(*entry.Body)
	}
	return form
}

// FormFromItem pre-fills a request form from a collection item.
func FormFromItem(item CollectionItem) RequestForm {
	form := RequestForm{
		URL:     item.URL,
		Method:  item.Method,
		Headers: prettyHeaders(item.Headers),
	}
	if len(item.Body) > 0 {
		form.Body = prettyText(string(item.Body))
	}
	return form
}

func prettyHeaders(headers map[string]string) string {
	if headers == nil {
		headers = map[string]string{}
	}
	data, err := json.MarshalIndent(headers, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func prettyText(raw string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return raw
	}
	return string(data)
}
