package worker

import (
	"container/list"
	"sync"
	"testing"
	"time"
)

func TestDispatcherKeepsPerSessionOrder(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int64][]string)
	done := make(chan struct{}, 16)

	handle := func(job Job) {
		mu.Lock()
		seen[job.req.SessionID] = append(seen[job.req.SessionID], job.req.Question)
		mu.Unlock()
		done <- struct{}{}
	}
	// one worker so cross-session interleaving is forced through the LRU
	d := NewDispatcher(DispatcherConfig{MinWorkers: 1, MaxWorkers: 1, QueueSize: 16}, handle)

	jobs := []struct {
		session  int64
		question string
	}{
		{1, "a1"}, {1, "a2"}, {2, "b1"}, {1, "a3"}, {2, "b2"},
	}
	for _, j := range jobs {
		if err := d.Submit(Job{req: AskRequest{SessionID: j.session, Question: j.question}}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	for i := 0; i < len(jobs); i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for job %d", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if got := seen[1]; len(got) != 3 || got[0] != "a1" || got[1] != "a2" || got[2] != "a3" {
		t.Fatalf("session 1 order broken: %v", got)
	}
	if got := seen[2]; len(got) != 2 || got[0] != "b1" || got[1] != "b2" {
		t.Fatalf("session 2 order broken: %v", got)
	}
}

func TestSubmitReportsBusyWhenQueueFull(t *testing.T) {
	// no run loop: construct the dispatcher by hand so the queue stays full
	d := &Dispatcher{JobQueue: make(chan Job, 1)}
	if err := d.Submit(Job{req: AskRequest{SessionID: 1}}); err != nil {
		t.Fatalf("first submit should fit: %v", err)
	}
	if err := d.Submit(Job{req: AskRequest{SessionID: 1}}); err != ErrDispatcherBusy {
		t.Fatalf("expected ErrDispatcherBusy, got %v", err)
	}
}

func TestCancelSessionFailsQueuedJobs(t *testing.T) {
	// no run loop: drive the queue directly
	d := &Dispatcher{
		JobQueue:  make(chan Job, 1),
		queues:    make(map[int64]*sessionQueue),
		ready:     list.New(),
		positions: make(map[int64]*list.Element),
	}
	resultCh := make(chan askResult, 1)
	d.enqueueJob(Job{req: AskRequest{SessionID: 7, Question: "q"}, resultCh: resultCh})

	d.CancelSession(7)

	select {
	case res := <-resultCh:
		if res.err == nil {
			t.Fatal("expected error for cancelled job")
		}
	default:
		t.Fatal("queued job was not failed on cancel")
	}
	if d.ready.Len() != 0 {
		t.Fatalf("session left in rotation after cancel")
	}
	if _, ok := d.queues[7]; ok {
		t.Fatalf("session queue left behind after cancel")
	}
}
