package history

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"restbench/internal/model"
)

// Backend is the slice of the transport client the store needs.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// Identity reports the current session.
type Identity interface {
	Current() *model.User
}

// Store keeps a read-through cached copy of the remote request history.
// The cache is never the source of truth: every mutation is written through
// to the backend, and reads reflect the latest fetched snapshot.
type Store struct {
	api     Backend
	session Identity
	log     zerolog.Logger

	mu      sync.RWMutex
	entries []model.HistoryEntry
}

// NewStore creates a history store backed by the remote API.
func NewStore(api Backend, session Identity, log zerolog.Logger) *Store {
	return &Store{api: api, session: session, log: log}
}

type savePayload struct {
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	Headers        map[string]string `json:"headers"`
	Body           *string           `json:"body"`
	ResponseStatus int               `json:"response_status"`
	ResponseData   json.RawMessage   `json:"response_data"`
}

// Append writes one request/response pair to the remote history. History is
// a convenience, never a hard dependency of request execution: with no
// session present the call logs and returns nil, and the local cache is left
// for the next List to refresh.
func (s *Store) Append(ctx context.Context, desc model.RequestDescriptor, rec model.ResponseRecord) error {
	if s.session.Current() == nil {
		s.log.Debug().Str("url", desc.URL).Msg("no session, skipping history save")
		return nil
	}

	payload := savePayload{
		URL:            desc.URL,
		Method:         desc.Method,
		Headers:        desc.Headers,
		Body:           bodyString(desc.Body),
		ResponseStatus: rec.Status,
		ResponseData:   rec.Data,
	}

	if _, err := s.api.Post(ctx, "/history/save", payload); err != nil {
		return err
	}
	return nil
}

// List fetches up to limit entries ordered by recency and replaces the local
// cache wholesale.
func (s *Store) List(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	data, err := s.api.Get(ctx, "/history", query)
	if err != nil {
		return nil, err
	}

	entries := []model.HistoryEntry{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return s.Entries(), nil
}

// Entries returns a copy of the last fetched snapshot.
func (s *Store) Entries() []model.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copies := make([]model.HistoryEntry, len(s.entries))
	copy(copies, s.entries)
	return copies
}

// Delete removes one entry remotely, then drops it from the cache. The cache
// is only touched after remote success so a failed delete cannot make the
// local list diverge.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.api.Delete(ctx, "/history/"+id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.entries {
		if entry.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all entries remotely, then empties the cache. Calling it on
// an already empty history is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.api.Delete(ctx, "/history"); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	return nil
}

// Reset drops the cache without touching the backend, used when the session
// ends.
func (s *Store) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// bodyString normalizes a descriptor body for transport: JSON is carried as
// its compact string form, an absent body as null.
func bodyString(body json.RawMessage) *string {
	if len(body) == 0 {
		return nil
	}
	s := string(body)
	return &s
}
