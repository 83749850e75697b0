package worker

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

// ErrDispatcherBusy is returned when the job queue is full.
var ErrDispatcherBusy = errors.New("dispatcher queue is full")

var errSessionCleared = errors.New("session cleared while queued")

type DispatcherConfig struct {
	MinWorkers        int
	MaxWorkers        int
	QueueSize         int
	WorkerIdleTimeout time.Duration
}

type sessionQueue struct {
	jobs     []Job
	enqueued bool
}

// Dispatcher feeds jobs to the pool one session at a time: each session has
// a FIFO queue and sessions take turns in LRU order, so one busy session
// cannot starve the rest.
type Dispatcher struct {
	pool     *workerPool
	JobQueue chan Job

	mu        sync.Mutex
	queues    map[int64]*sessionQueue
	ready     *list.List // session IDs awaiting dispatch
	positions map[int64]*list.Element
}

func NewDispatcher(cfg DispatcherConfig, handle func(Job)) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}
	d := &Dispatcher{
		pool:      newWorkerPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.WorkerIdleTimeout, handle),
		JobQueue:  make(chan Job, queueSize),
		queues:    make(map[int64]*sessionQueue),
		ready:     list.New(),
		positions: make(map[int64]*list.Element),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for {
		if !d.dispatchOne() {
			// nothing queued, block until a job arrives
			job := <-d.JobQueue
			d.enqueueJob(job)
			continue
		}
		select {
		case job := <-d.JobQueue:
			d.enqueueJob(job)
		default:
		}
	}
}

// Submit places a job on the queue without blocking.
func (d *Dispatcher) Submit(job Job) error {
	select {
	case d.JobQueue <- job:
		return nil
	default:
		return ErrDispatcherBusy
	}
}

// CancelSession drops any jobs still queued for the session, failing their
// callers, and removes the session from the rotation.
func (d *Dispatcher) CancelSession(sessionID int64) {
	d.mu.Lock()
	q := d.queues[sessionID]
	delete(d.queues, sessionID)
	if elem, ok := d.positions[sessionID]; ok {
		d.ready.Remove(elem)
		delete(d.positions, sessionID)
	}
	d.mu.Unlock()

	if q == nil {
		return
	}
	for _, job := range q.jobs {
		if job.resultCh != nil {
			job.resultCh <- askResult{err: errSessionCleared}
		}
	}
}

func (d *Dispatcher) enqueueJob(job Job) {
	sessionID := job.sessionID()

	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[sessionID]
	if q == nil {
		q = &sessionQueue{}
		d.queues[sessionID] = q
	}
	q.jobs = append(q.jobs, job)
	if q.enqueued {
		return
	}
	q.enqueued = true
	elem := d.ready.PushBack(sessionID)
	d.positions[sessionID] = elem
}

// dispatchOne hands the front session's next job to a pool worker.
func (d *Dispatcher) dispatchOne() bool {
	d.mu.Lock()
	elem := d.ready.Front()
	if elem == nil {
		d.mu.Unlock()
		return false
	}
	sessionID := elem.Value.(int64)
	q := d.queues[sessionID]
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	if len(q.jobs) == 0 {
		q.enqueued = false
		d.ready.Remove(elem)
		delete(d.positions, sessionID)
	} else {
		d.ready.MoveToBack(elem)
	}
	d.mu.Unlock()

	workerChan := d.pool.acquire()
	debugLog("[dispatcher] assign job for session %d", sessionID)
	workerChan <- job
	return true
}
