package workbench

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"restbench/internal/collection"
	"restbench/internal/history"
	"restbench/internal/model"
)

// State is the externally visible phase of the request lifecycle.
type State int

const (
	Idle State = iota
	Sending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Sending:
		return "sending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Dispatcher executes a request form. Satisfied by executor.Executor.
type Dispatcher interface {
	Execute(ctx context.Context, form model.RequestForm) (model.ResponseRecord, model.RequestDescriptor)
}

// Recorder persists completed dispatches. Satisfied by history.Store.
type Recorder interface {
	Append(ctx context.Context, desc model.RequestDescriptor, rec model.ResponseRecord) error
}

// Identity reports the current session.
type Identity interface {
	Current() *model.User
}

// Session is the control loop tying the form, the executor, the response
// display and the history feed together. Submits are sequenced: when several
// overlap, only the completion of the latest issued submit updates the
// displayed response, giving deterministic last-submit-wins semantics.
type Session struct {
	exec    Dispatcher
	recs    Recorder
	session Identity
	log     zerolog.Logger

	mu       sync.Mutex
	state    State
	seq      uint64
	form     model.RequestForm
	response *model.ResponseRecord
}

// NewSession creates a workbench session. A nil recorder disables history
// persistence entirely.
func NewSession(exec Dispatcher, recs Recorder, session Identity, log zerolog.Logger) *Session {
	return &Session{exec: exec, recs: recs, session: session, log: log}
}

// Submit dispatches the current form. It blocks until the dispatch
// completes, returns the outcome, and appends it to history when a session
// is present. The submitted form is captured up front so edits made while
// the request is in flight never leak into the persisted record.
func (s *Session) Submit(ctx context.Context) (model.ResponseRecord, model.RequestDescriptor) {
	s.mu.Lock()
	s.state = Sending
	s.seq++
	mine := s.seq
	form := s.form
	s.mu.Unlock()

	rec, desc := s.exec.Execute(ctx, form)

	s.mu.Lock()
	if mine == s.seq {
		r := rec
		s.response = &r
		if rec.Failed() {
			s.state = Failed
		} else {
			s.state = Succeeded
		}
	} else {
		s.log.Debug().Uint64("seq", mine).Uint64("latest", s.seq).Msg("dropping stale completion")
	}
	s.mu.Unlock()

	s.record(ctx, desc, rec)
	return rec, desc
}

// record appends the completed dispatch to history, best effort. Requests
// rejected before dispatch carry a zero descriptor and are not recorded.
func (s *Session) record(ctx context.Context, desc model.RequestDescriptor, rec model.ResponseRecord) {
	if s.recs == nil || desc.URL == "" {
		return
	}
	if s.session.Current() == nil {
		s.log.Debug().Msg("no session, skipping history")
		return
	}
	if err := s.recs.Append(ctx, desc, rec); err != nil {
		s.log.Warn().Err(err).Str("url", desc.URL).Msg("history save failed")
	}
}

// LoadHistoryEntry fills the form from a history entry and returns to Idle.
// Selection never triggers a dispatch by itself.
func (s *Session) LoadHistoryEntry(entry model.HistoryEntry) {
	s.setForm(model.FormFromHistory(entry))
}

// LoadItem fills the form from a collection item and returns to Idle.
func (s *Session) LoadItem(item model.CollectionItem) {
	s.setForm(model.FormFromItem(item))
}

// SetForm replaces the editable form.
func (s *Session) SetForm(form model.RequestForm) {
	s.mu.Lock()
	s.form = form
	s.mu.Unlock()
}

func (s *Session) setForm(form model.RequestForm) {
	s.mu.Lock()
	s.form = form
	s.state = Idle
	s.mu.Unlock()
}

// Form returns the current editable form.
func (s *Session) Form() model.RequestForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Response returns the last displayed response, or nil before the first
// completion.
func (s *Session) Response() *model.ResponseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.response == nil {
		return nil
	}
	r := *s.response
	return &r
}

// HydrateStores loads history and collections when a session is present and
// clears both when it is not, mirroring the sign-in/sign-out transitions.
func HydrateStores(ctx context.Context, user *model.User, hist *history.Store, cols *collection.Store, historyLimit int) error {
	if user == nil {
		hist.Reset()
		cols.Clear()
		return nil
	}

	if _, err := hist.List(ctx, historyLimit); err != nil {
		return err
	}
	if _, err := cols.LoadAll(ctx); err != nil {
		return err
	}
	return nil
}
