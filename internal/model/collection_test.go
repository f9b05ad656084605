package model

import (
	"encoding/json"
	"testing"
)

func TestFormFromHistoryPrettyPrints(t *testing.T) {
	body := `{"k":1}`
	form := FormFromHistory(HistoryEntry{
		URL:     "https://x",
		Method:  "POST",
		Headers: map[string]string{"A": "B"},
		Body:    &body,
	})

	if form.URL != "https://x" || form.Method != "POST" {
		t.Fatalf("unexpected form: %+v", form)
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(form.Headers), &headers); err != nil || headers["A"] != "B" {
		t.Fatalf("headers text not valid JSON: %q", form.Headers)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(form.Body), &decoded); err != nil || decoded["k"] != float64(1) {
		t.Fatalf("body text not valid JSON: %q", form.Body)
	}
}

func TestFormFromHistoryNullBody(t *testing.T) {
	form := FormFromHistory(HistoryEntry{URL: "https://x", Method: "GET"})
	if form.Body != "" {
		t.Fatalf("expected empty body text, got %q", form.Body)
	}
	if form.Headers != "{}" {
		t.Fatalf("expected empty headers object, got %q", form.Headers)
	}
}

func TestFormFromItem(t *testing.T) {
	form := FormFromItem(CollectionItem{
		URL:    "https://x/login",
		Method: "POST",
		Body:   json.RawMessage(`{"user":"u"}`),
	})

	if form.URL != "https://x/login" {
		t.Fatalf("unexpected form: %+v", form)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(form.Body), &decoded); err != nil || decoded["user"] != "u" {
		t.Fatalf("body text not valid JSON: %q", form.Body)
	}
}

func TestValidMethod(t *testing.T) {
	for _, m := range Methods {
		if !ValidMethod(m) {
			t.Fatalf("%s should be valid", m)
		}
	}
	if ValidMethod("TRACE") || ValidMethod("get") {
		t.Fatalf("unexpected method accepted")
	}
}
