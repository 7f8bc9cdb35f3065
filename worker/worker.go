// Package worker spawns and supervises the polling threads that drain a
// byplay queue. Workers are instantiable rather than a process-wide
// singleton, since a host can need more than one independent worker in
// one process.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/domonda/go-errs"
	rootlog "github.com/domonda/golog/log"

	"github.com/metametadata/byplay"
)

var log = rootlog.NewPackageLogger("byplay/worker")

// State is the worker's lifecycle state.
type State int32

const (
	// StateNew is the state right after construction, before Start.
	StateNew State = iota
	// StateRunning is the state after Start, before all threads have joined.
	StateRunning
	// StateTerminated is the state once the master goroutine has exited.
	// Restarting a terminated Worker is forbidden.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateRunning:
		return "RUNNING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Thread is the handle an OnFail/OnAck callback receives: the owning
// Worker plus the index of the polling thread that produced this ack. Its
// Interrupt method stops only this one thread, letting a test (or a host)
// drain the queue once and exit without calling Worker.Interrupt on every
// other thread too.
type Thread struct {
	*Worker
	Index int

	stopOnce sync.Once
	stop     chan struct{}
}

// Interrupt requests that just this polling thread exit at its next safe
// point (after the current sleep or execution cycle), leaving sibling
// threads running.
func (t *Thread) Interrupt() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Config configures a Worker. All tunables live here, never in environment
// variables or flags.
type Config struct {
	// Queues is the priority-ordered list of queue tags to poll. Nil or
	// empty means "any queue", reserving in global id order.
	Queues []string

	// ThreadsNum is the number of parallel polling threads. Default 1.
	ThreadsNum int

	// PollingInterval is the interruptible sleep between execution cycles
	// within one thread. Default 5 seconds.
	PollingInterval time.Duration

	// JobTimeout bounds the context passed to a reserved job's callable.
	// Zero uses byplay.DefaultJobTimeout; a negative value disables the
	// timeout entirely. Distinct Workers in the same process can run with
	// different timeouts.
	JobTimeout time.Duration

	// OnFail is called on a failed job, before OnAck. Default writes one
	// atomic line to stderr (see defaultOnFail).
	OnFail func(t *Thread, err error, job *byplay.Job)

	// OnAck is called after every execution cycle, including empty ones.
	// Default is a no-op.
	OnAck func(t *Thread, ack byplay.Ack)
}

func (c Config) withDefaults() Config {
	if c.ThreadsNum <= 0 {
		c.ThreadsNum = 1
	}
	if c.PollingInterval <= 0 {
		c.PollingInterval = 5 * time.Second
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = byplay.DefaultJobTimeout
	}
	if c.JobTimeout < 0 {
		c.JobTimeout = 0
	}
	if c.OnFail == nil {
		c.OnFail = defaultOnFail
	}
	if c.OnAck == nil {
		c.OnAck = func(*Thread, byplay.Ack) {}
	}
	return c
}

var stderrMtx sync.Mutex

// defaultOnFail writes one atomic line to standard error in the form
// "Job failed: <row>\nException: <error>\n", matching the engine's default
// failure callback (C8). The write is serialized so concurrent threads
// never interleave their lines.
func defaultOnFail(_ *Thread, err error, job *byplay.Job) {
	stderrMtx.Lock()
	defer stderrMtx.Unlock()
	fmt.Fprintf(os.Stderr, "Job failed: %s\nException: %s\n", job, err)
}

// Worker owns a pool of polling threads draining a byplay queue against a
// *sql.DB. Construct with New; a Worker is single-shot: NEW -> RUNNING ->
// TERMINATED, never restarted.
type Worker struct {
	db     *sql.DB
	config Config

	stateMtx sync.Mutex
	state    State

	interruptOnce sync.Once
	interrupt     chan struct{}

	terminated chan struct{}
}

// New constructs a Worker in state NEW. db is used to acquire one
// connection per execution cycle (see the Polling loop in poll.go); it is
// the host's responsibility to front it with a pool.
func New(db *sql.DB, config Config) *Worker {
	return &Worker{
		db:         db,
		config:     config.withDefaults(),
		interrupt:  make(chan struct{}),
		terminated: make(chan struct{}),
	}
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	w.stateMtx.Lock()
	defer w.stateMtx.Unlock()
	return w.state
}

// Start begins polling in the background. Double-start is undefined
// behavior once the worker has left NEW, except for the documented
// restart-after-terminate case, which always panics.
func (w *Worker) Start() {
	w.stateMtx.Lock()
	if w.state == StateTerminated {
		w.stateMtx.Unlock()
		panic(errs.Errorf("%w", byplay.ErrWorkerRestarted))
	}
	w.state = StateRunning
	w.stateMtx.Unlock()

	var wg sync.WaitGroup
	wg.Add(w.config.ThreadsNum)
	for i := 0; i < w.config.ThreadsNum; i++ {
		t := &Thread{Worker: w, Index: i, stop: make(chan struct{})}
		go func() {
			defer wg.Done()
			runThread(context.Background(), t)
		}()
	}

	go func() {
		wg.Wait()
		w.stateMtx.Lock()
		w.state = StateTerminated
		w.stateMtx.Unlock()
		close(w.terminated)
	}()
}

// Interrupt requests graceful shutdown: the currently running job (if any)
// in each thread finishes its transaction, no new job is reserved, and
// each thread exits at its next safe point. Restart after Interrupt is
// forbidden; State will read TERMINATED once every thread has exited and
// the master goroutine joins them.
func (w *Worker) Interrupt() {
	w.interruptOnce.Do(func() { close(w.interrupt) })
}

// Join blocks until the worker reaches TERMINATED.
func (w *Worker) Join() {
	<-w.terminated
}

func (w *Worker) interrupted() <-chan struct{} {
	return w.interrupt
}
