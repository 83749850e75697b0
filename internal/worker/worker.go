// Package worker dispatches chat generation jobs across an elastic pool,
// keeping per-session FIFO order and round-robin fairness between sessions.
package worker

import "context"

// AskRequest is one question awaiting a model reply. The caller has already
// appended the user turn to the session history before dispatching.
type AskRequest struct {
	Context   context.Context
	SessionID int64
	Question  string
}

type askResult struct {
	reply string
	err   error
}

// Job carries one ask through the dispatcher to a pool worker.
type Job struct {
	req      AskRequest
	resultCh chan askResult
	stop     bool // pool-internal retirement signal
}

func (job Job) sessionID() int64 {
	return job.req.SessionID
}
