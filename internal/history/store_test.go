package history

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"restbench/internal/api"
	"restbench/internal/model"
)

type fakeBackend struct {
	listData  json.RawMessage
	posts     []interface{}
	deletes   []string
	deleteErr error
}

func (f *fakeBackend) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return f.listData, nil
}

func (f *fakeBackend) Post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	f.posts = append(f.posts, payload)
	return nil, nil
}

func (f *fakeBackend) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deletes = append(f.deletes, path)
	return nil, nil
}

type fakeIdentity struct {
	user *model.User
}

func (f *fakeIdentity) Current() *model.User { return f.user }

func signedIn() *fakeIdentity {
	return &fakeIdentity{user: &model.User{Email: "dev@example.com"}}
}

func TestAppendSkipsWithoutSession(t *testing.T) {
	backend := &fakeBackend{}
	store := NewStore(backend, &fakeIdentity{}, zerolog.Nop())

	err := store.Append(context.Background(), model.RequestDescriptor{URL: "https://x", Method: "GET"}, model.ResponseRecord{Status: 200})
	if err != nil {
		t.Fatalf("append without session must not error, got %v", err)
	}
	if len(backend.posts) != 0 {
		t.Fatalf("expected no remote call without a session, got %d", len(backend.posts))
	}
}

func TestAppendNormalizesBody(t *testing.T) {
	backend := &fakeBackend{}
	store := NewStore(backend, signedIn(), zerolog.Nop())

	desc := model.RequestDescriptor{
		URL:     "https://x",
		Method:  "POST",
		Headers: map[string]string{"A": "B"},
		Body:    json.RawMessage(`{"k":1}`),
	}
	if err := store.Append(context.Background(), desc, model.ResponseRecord{Status: 201}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if len(backend.posts) != 1 {
		t.Fatalf("expected one save call, got %d", len(backend.posts))
	}
	raw, err := json.Marshal(backend.posts[0])
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if !strings.Contains(string(raw), `"body":"{\"k\":1}"`) {
		t.Fatalf("expected stringified body, got %s", raw)
	}
	if !strings.Contains(string(raw), `"response_status":201`) {
		t.Fatalf("expected response status, got %s", raw)
	}
}

func TestAppendAbsentBodyIsNull(t *testing.T) {
	backend := &fakeBackend{}
	store := NewStore(backend, signedIn(), zerolog.Nop())

	desc := model.RequestDescriptor{URL: "https://x", Method: "GET", Headers: map[string]string{}}
	if err := store.Append(context.Background(), desc, model.ResponseRecord{Status: 200}); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, _ := json.Marshal(backend.posts[0])
	if !strings.Contains(string(raw), `"body":null`) {
		t.Fatalf("expected null body, got %s", raw)
	}
}

func TestListReplacesCacheWholesale(t *testing.T) {
	backend := &fakeBackend{listData: json.RawMessage(`[{"id":"h1","url":"https://a"},{"id":"h2","url":"https://b"}]`)}
	store := NewStore(backend, signedIn(), zerolog.Nop())

	entries, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "h1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	backend.listData = json.RawMessage(`[{"id":"h3","url":"https://c"}]`)
	if _, err := store.List(context.Background(), 10); err != nil {
		t.Fatalf("second list: %v", err)
	}

	got := store.Entries()
	if len(got) != 1 || got[0].ID != "h3" {
		t.Fatalf("expected wholesale replacement, got %+v", got)
	}
}

func TestDeleteTouchesCacheOnlyAfterRemoteSuccess(t *testing.T) {
	backend := &fakeBackend{listData: json.RawMessage(`[{"id":"h1"},{"id":"h2"}]`)}
	store := NewStore(backend, signedIn(), zerolog.Nop())
	if _, err := store.List(context.Background(), 0); err != nil {
		t.Fatalf("list: %v", err)
	}

	backend.deleteErr = &api.Error{Message: "backend down", Status: 503}
	if err := store.Delete(context.Background(), "h1"); err == nil {
		t.Fatalf("expected delete error")
	}
	if len(store.Entries()) != 2 {
		t.Fatalf("cache must be untouched after failed delete")
	}

	backend.deleteErr = nil
	if err := store.Delete(context.Background(), "h1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got := store.Entries()
	if len(got) != 1 || got[0].ID != "h2" {
		t.Fatalf("expected h1 removed, got %+v", got)
	}
	if backend.deletes[len(backend.deletes)-1] != "/history/h1" {
		t.Fatalf("unexpected delete path: %v", backend.deletes)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	backend := &fakeBackend{listData: json.RawMessage(`[{"id":"h1"}]`)}
	store := NewStore(backend, signedIn(), zerolog.Nop())
	if _, err := store.List(context.Background(), 0); err != nil {
		t.Fatalf("list: %v", err)
	}

	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if len(store.Entries()) != 0 {
		t.Fatalf("expected empty history after clear")
	}
}
