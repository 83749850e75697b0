package worker

import (
	"sync"
	"time"
)

const defaultWorkerIdle = 30 * time.Second

type poolWorker struct {
	ch       chan Job
	lastUsed time.Time
	retired  bool
}

// workerPool keeps between min and max workers alive, retiring workers that
// stay idle past the expiry.
type workerPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	idle    []*poolWorker
	min     int
	max     int
	running int
	expiry  time.Duration
	handle  func(Job)
}

func newWorkerPool(minWorkers, maxWorkers int, idle time.Duration, handle func(Job)) *workerPool {
	if idle <= 0 {
		idle = defaultWorkerIdle
	}
	if minWorkers < 1 {
		minWorkers = 1
	}
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}
	p := &workerPool{
		min:    minWorkers,
		max:    maxWorkers,
		expiry: idle,
		handle: handle,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < minWorkers; i++ {
		p.mu.Lock()
		p.spawnLocked()
		p.mu.Unlock()
	}
	go p.reap()
	return p
}

// acquire returns the job channel of an idle worker, spawning one when the
// pool has headroom and blocking otherwise.
func (p *workerPool) acquire() chan Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		for len(p.idle) > 0 {
			w := p.idle[0]
			p.idle = p.idle[1:]
			if w.retired {
				continue
			}
			return w.ch
		}
		if p.running < p.max {
			w := p.spawnLocked()
			return w.ch
		}
		p.cond.Wait()
	}
}

func (p *workerPool) spawnLocked() *poolWorker {
	w := &poolWorker{ch: make(chan Job)}
	p.running++
	go func() {
		for job := range w.ch {
			if job.stop {
				return
			}
			p.handle(job)
			p.release(w)
		}
	}()
	return w
}

func (p *workerPool) release(w *poolWorker) {
	p.mu.Lock()
	if w.retired {
		p.mu.Unlock()
		return
	}
	w.lastUsed = time.Now()
	p.idle = append(p.idle, w)
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *workerPool) reap() {
	ticker := time.NewTicker(p.expiry)
	defer ticker.Stop()
	for range ticker.C {
		p.retireExpired()
	}
}

// retireExpired stops idle workers past the expiry while keeping min alive.
func (p *workerPool) retireExpired() {
	now := time.Now()
	var stale []*poolWorker

	p.mu.Lock()
	if len(p.idle) == 0 || p.running <= p.min {
		p.mu.Unlock()
		return
	}
	remaining := p.idle[:0]
	for _, w := range p.idle {
		if now.Sub(w.lastUsed) >= p.expiry && p.running-len(stale) > p.min {
			w.retired = true
			stale = append(stale, w)
			continue
		}
		remaining = append(remaining, w)
	}
	p.idle = remaining
	p.running -= len(stale)
	p.mu.Unlock()

	for _, w := range stale {
		w.ch <- Job{stop: true}
	}
}
