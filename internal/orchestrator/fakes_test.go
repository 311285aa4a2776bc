package orchestrator

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/config"
)

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

// fakeBackend records calls and answers with canned results. When block is
// set, calls signal started and wait for block to close.
type fakeBackend struct {
	mu sync.Mutex

	single backend.Result
	batch  backend.Result

	singleCalls []string
	batchCalls  [][]backend.ProductInput

	started chan struct{}
	block   chan struct{}
}

func (f *fakeBackend) PostIngredients(_ context.Context, raw string) backend.Result {
	f.mu.Lock()
	f.singleCalls = append(f.singleCalls, raw)
	res := f.single
	f.mu.Unlock()

	f.wait()
	return res
}

func (f *fakeBackend) PostBatch(_ context.Context, products []backend.ProductInput) backend.Result {
	f.mu.Lock()
	f.batchCalls = append(f.batchCalls, products)
	res := f.batch
	f.mu.Unlock()

	f.wait()
	return res
}

func (f *fakeBackend) wait() {
	if f.block == nil {
		return
	}
	f.started <- struct{}{}
	<-f.block
}

func (f *fakeBackend) blocking() *fakeBackend {
	f.started = make(chan struct{}, 1)
	f.block = make(chan struct{})
	return f
}

func (f *fakeBackend) singleCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.singleCalls)
}

type fakeTimer struct {
	s       *fakeScheduler
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (t *fakeTimer) isStopped() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.stopped
}

// fire runs the callback regardless of Stop, like a timer that already
// expired and is waiting on the lock
func (t *fakeTimer) fire() {
	t.fn()
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, delay: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

func newTestOrchestrator(t *testing.T, b Backend) (*Orchestrator, *fakeScheduler) {
	t.Helper()

	sched := &fakeScheduler{}
	o := New(b, config.NewTestLogger(io.Discard, "ERROR"),
		WithScheduler(sched),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return testNow }),
	)
	t.Cleanup(func() { _ = o.Close() })
	return o, sched
}

func okBody(body string) backend.Result {
	return backend.Result{Body: []byte(body), StatusCode: 200}
}
