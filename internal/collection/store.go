package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"restbench/internal/model"
)

// ErrNotAuthenticated is returned by mutating operations attempted without a
// session. Collection writes are user-intentional actions that must be
// visibly rejected, unlike best-effort history saves.
var ErrNotAuthenticated = errors.New("please sign in to manage collections")

// ErrInvalidJSON marks item drafts whose headers or body text failed to
// parse. The error never reaches the network.
var ErrInvalidJSON = errors.New("invalid JSON")

// Backend is the slice of the transport client the store needs.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error)
	Put(ctx context.Context, path string, payload interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// Identity reports the current session.
type Identity interface {
	Current() *model.User
}

// Store keeps the set of collections consistent with the remote authoritative
// store. Every remote-backed mutation is applied locally only after server
// confirmation; failures leave local state untouched and propagate to the
// caller.
//
// The collections slice is the single source of truth. The active collection
// is held as an id and derived by lookup at read time, so there is no second
// writable copy to fall out of sync.
type Store struct {
	api     Backend
	session Identity
	log     zerolog.Logger

	mu          sync.RWMutex
	collections []model.Collection
	activeID    string
}

// NewStore creates a collection store backed by the remote API.
func NewStore(api Backend, session Identity, log zerolog.Logger) *Store {
	return &Store{api: api, session: session, log: log}
}

// collectionPayload tolerates both server-side spellings of the item list.
// "items" is canonical; "collection_items" is a deprecated read fallback.
type collectionPayload struct {
	model.Collection
	LegacyItems []model.CollectionItem `json:"collection_items"`
}

func (p collectionPayload) normalized() model.Collection {
	col := p.Collection
	if col.Items == nil {
		col.Items = p.LegacyItems
	}
	if col.Items == nil {
		col.Items = []model.CollectionItem{}
	}
	return col
}

// LoadAll fetches collections from the backend and replaces the local cache
// wholesale. The active pointer survives only if its collection is still
// present.
func (s *Store) LoadAll(ctx context.Context) ([]model.Collection, error) {
	data, err := s.api.Get(ctx, "/collections", nil)
	if err != nil {
		return nil, err
	}

	payloads := []collectionPayload{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payloads); err != nil {
			return nil, err
		}
	}

	collections := make([]model.Collection, 0, len(payloads))
	for _, p := range payloads {
		collections = append(collections, p.normalized())
	}

	s.mu.Lock()
	s.collections = collections
	if s.activeID != "" && s.indexLocked(s.activeID) == -1 {
		s.activeID = ""
	}
	s.mu.Unlock()
	return s.Collections(), nil
}

// Create makes a new collection remotely, then appends it to the cache. The
// local append happens only after the server confirmed: a collection without
// a confirmed id could not be a valid target for add-item calls.
func (s *Store) Create(ctx context.Context, name, description string) (model.Collection, error) {
	if s.session.Current() == nil {
		return model.Collection{}, ErrNotAuthenticated
	}
	if strings.TrimSpace(name) == "" {
		return model.Collection{}, errors.New("collection name is required")
	}

	payload := map[string]string{"name": name, "description": description}
	data, err := s.api.Post(ctx, "/collections/create", payload)
	if err != nil {
		return model.Collection{}, err
	}

	var created collectionPayload
	if err := json.Unmarshal(data, &created); err != nil {
		return model.Collection{}, err
	}
	col := created.normalized()

	s.mu.Lock()
	s.collections = append(s.collections, col)
	s.mu.Unlock()
	return col, nil
}

// Delete removes a collection remotely, then from the cache. Clearing a
// matching active pointer happens in the same critical section, so no
// intermediate state ever dangles.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.session.Current() == nil {
		return ErrNotAuthenticated
	}

	if _, err := s.api.Delete(ctx, "/collections/"+id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(id); idx != -1 {
		s.collections = append(s.collections[:idx], s.collections[idx+1:]...)
	}
	if s.activeID == id {
		s.activeID = ""
	}
	return nil
}

// ItemDraft carries the text fields of a request being saved to a
// collection. Headers and Body must be valid JSON.
type ItemDraft struct {
	Name    string
	URL     string
	Method  string
	Headers string
	Body    string
}

type addItemPayload struct {
	CollectionID string            `json:"collection_id"`
	Name         string            `json:"name"`
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers"`
	Body         json.RawMessage   `json:"body"`
}

// AddItem validates the draft, creates the item remotely and appends the
// server-assigned item to the owning collection. The append happens under a
// single lock acquisition so every view derived from the cache updates in
// one step.
func (s *Store) AddItem(ctx context.Context, collectionID string, draft ItemDraft) (model.CollectionItem, error) {
	if s.session.Current() == nil {
		return model.CollectionItem{}, ErrNotAuthenticated
	}

	payload, err := draft.payload(collectionID)
	if err != nil {
		return model.CollectionItem{}, err
	}

	data, err := s.api.Post(ctx, "/collections/add-item", payload)
	if err != nil {
		return model.CollectionItem{}, err
	}

	var item model.CollectionItem
	if err := json.Unmarshal(data, &item); err != nil {
		return model.CollectionItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(collectionID)
	if idx == -1 {
		// Confirmed remotely but the collection vanished locally; the next
		// LoadAll reconciles.
		s.log.Warn().Str("collection", collectionID).Msg("added item to unknown collection")
		return item, nil
	}
	s.collections[idx].Items = append(s.collections[idx].Items, item)
	return item, nil
}

// RemoveItem deletes the item remotely, then filters it out of the owning
// collection.
func (s *Store) RemoveItem(ctx context.Context, collectionID, itemID string) error {
	if s.session.Current() == nil {
		return ErrNotAuthenticated
	}

	if _, err := s.api.Delete(ctx, "/collections/items/"+itemID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(collectionID)
	if idx == -1 {
		return nil
	}
	items := s.collections[idx].Items
	for i, item := range items {
		if item.ID == itemID {
			s.collections[idx].Items = append(items[:i], items[i+1:]...)
			break
		}
	}
	return nil
}

// Rename updates a collection's name and description remotely, then merges
// the confirmed fields into the cached entry.
func (s *Store) Rename(ctx context.Context, id, name, description string) error {
	if s.session.Current() == nil {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("collection name is required")
	}

	payload := map[string]string{"name": name, "description": description}
	data, err := s.api.Put(ctx, "/collections/"+id, payload)
	if err != nil {
		return err
	}

	var updated collectionPayload
	if err := json.Unmarshal(data, &updated); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(id); idx != -1 {
		s.collections[idx].Name = updated.Name
		s.collections[idx].Description = updated.Description
	}
	return nil
}

// SetActive toggles which collection is expanded. Activating the current
// active clears it; an unknown id is ignored. Pure view state, never
// persisted.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || s.activeID == id {
		s.activeID = ""
		return
	}
	if s.indexLocked(id) == -1 {
		return
	}
	s.activeID = id
}

// Active returns a copy of the expanded collection, or nil. The view is
// derived from the collections slice at read time.
func (s *Store) Active() *model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(s.activeID)
	if idx == -1 {
		return nil
	}
	col := copyCollection(s.collections[idx])
	return &col
}

// Collections returns a snapshot copy of the cached collections.
func (s *Store) Collections() []model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copies := make([]model.Collection, len(s.collections))
	for i, col := range s.collections {
		copies[i] = copyCollection(col)
	}
	return copies
}

// Find locates a cached collection by id or, failing that, by exact name.
func (s *Store) Find(key string) (model.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(key); idx != -1 {
		return copyCollection(s.collections[idx]), true
	}
	for _, col := range s.collections {
		if col.Name == key {
			return copyCollection(col), true
		}
	}
	return model.Collection{}, false
}

// Clear wipes all local state when the session ends.
func (s *Store) Clear() {
	s.mu.Lock()
	s.collections = nil
	s.activeID = ""
	s.mu.Unlock()
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, col := range s.collections {
		if col.ID == id {
			return i
		}
	}
	return -1
}

func copyCollection(col model.Collection) model.Collection {
	items := make([]model.CollectionItem, len(col.Items))
	copy(items, col.Items)
	col.Items = items
	return col
}

func (d ItemDraft) payload(collectionID string) (addItemPayload, error) {
	headersText := strings.TrimSpace(d.Headers)
	if headersText == "" {
		headersText = "{}"
	}
	var headers map[string]string
	if err := json.Unmarshal([]byte(headersText), &headers); err != nil {
		return addItemPayload{}, fmt.Errorf("%w in headers", ErrInvalidJSON)
	}

	payload := addItemPayload{
		CollectionID: collectionID,
		Name:         d.Name,
		URL:          d.URL,
		Method:       d.Method,
		Headers:      headers,
	}

	bodyText := strings.TrimSpace(d.Body)
	if bodyText != "" {
		if !json.Valid([]byte(bodyText)) {
			return addItemPayload{}, fmt.Errorf("%w in body", ErrInvalidJSON)
		}
		payload.Body = json.RawMessage(bodyText)
	}
	return payload, nil
}
