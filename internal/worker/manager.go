package worker

import (
	"context"
	"errors"

	"medchat/internal/models"
	"medchat/internal/service/assistant"
)

// Responder generates one assistant reply from a question and the prior
// conversation.
type Responder interface {
	Respond(ctx context.Context, question string, prevHistory []*models.Message) (string, error)
}

// Manager runs ask jobs against the conversation store through the
// dispatcher, so replies for one session stay ordered while sessions share
// the pool fairly.
type Manager struct {
	store      *assistant.Service
	responder  Responder
	dispatcher *Dispatcher
}

func NewManager(store *assistant.Service, responder Responder, cfg DispatcherConfig) *Manager {
	m := &Manager{
		store:     store,
		responder: responder,
	}
	m.dispatcher = NewDispatcher(cfg, m.handleAsk)
	return m
}

// Ask blocks until the session's reply is generated, or fails fast with
// ErrDispatcherBusy when the queue is full.
func (m *Manager) Ask(req AskRequest) (string, error) {
	if req.SessionID <= 0 {
		return "", errors.New("session id required")
	}
	resultCh := make(chan askResult, 1)
	if err := m.dispatcher.Submit(Job{req: req, resultCh: resultCh}); err != nil {
		return "", err
	}
	res := <-resultCh
	return res.reply, res.err
}

// Purge drops queued work for a cleared session.
func (m *Manager) Purge(sessionID int64) {
	m.dispatcher.CancelSession(sessionID)
}

func (m *Manager) handleAsk(job Job) {
	req := job.req
	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	history, err := m.store.History(ctx, req.SessionID)
	if err != nil {
		job.resultCh <- askResult{err: err}
		return
	}
	// the caller appended the user turn before dispatching; drop it so the
	// responder sees it once, as the question
	if n := len(history); n > 0 && history[n-1].Role == models.RoleUser && history[n-1].Content == req.Question {
		history = history[:n-1]
	}

	reply, err := m.responder.Respond(ctx, req.Question, history)
	if err != nil {
		job.resultCh <- askResult{err: err}
		return
	}
	job.resultCh <- askResult{reply: reply}
}
