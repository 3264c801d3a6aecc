package daemon

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/tx7do/kratos-transport-aws/broker"
)

// WorkFunc is the body of a background worker. It must return once ctx is
// cancelled.
type WorkFunc func(ctx context.Context) error

type Option func(*Controller)

// WithJoinTimeout bounds how long Stop waits for the worker to exit. Zero
// waits forever.
func WithJoinTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.joinTimeout = d
	}
}

func WithLogger(logger log.Logger) Option {
	return func(c *Controller) {
		c.log = log.NewHelper(logger)
	}
}

type worker struct {
	id     int
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (w *worker) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Controller runs at most one background worker at a time.
type Controller struct {
	mu     sync.Mutex
	work   WorkFunc
	lastID int

	current atomic.Pointer[worker]

	errMu   sync.Mutex
	lastErr error

	joinTimeout time.Duration
	log         *log.Helper
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		log: log.NewHelper(log.GetLogger()),
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// Start spawns a worker running work unless the recorded worker is still
// alive, in which case it does nothing.
func (c *Controller) Start(work WorkFunc) error {
	if work == nil {
		return broker.Errorf(broker.ErrConfiguration, nil, "work function is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.start(work)
}

func (c *Controller) start(work WorkFunc) error {
	if w := c.current.Load(); w != nil && !w.exited() {
		return nil
	}

	c.work = work
	c.lastID++

	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		id:     c.lastID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.current.Store(w)

	go c.run(ctx, w, work)

	c.log.Infof("[daemon] worker %d started", w.id)
	return nil
}

func (c *Controller) run(ctx context.Context, w *worker, work WorkFunc) {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			w.err = fmt.Errorf("worker %d panicked: %v", w.id, r)
			c.setErr(w.err)
			c.log.Errorf("[daemon] %v", w.err)
		}
	}()

	w.err = work(ctx)
	c.setErr(w.err)

	if w.err != nil {
		c.log.Errorf("[daemon] worker %d exited: %v", w.id, w.err)
	} else {
		c.log.Infof("[daemon] worker %d exited", w.id)
	}
}

// Stop cancels the recorded worker and waits for it to exit. With a join
// timeout configured it gives up with broker.ErrJoinTimeout and keeps the
// worker recorded, so no second worker can start alongside it.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stop()
}

func (c *Controller) stop() error {
	w := c.current.Load()
	if w == nil {
		return nil
	}

	w.cancel()

	if c.joinTimeout > 0 {
		timer := time.NewTimer(c.joinTimeout)
		defer timer.Stop()
		select {
		case <-w.done:
		case <-timer.C:
			return broker.Errorf(broker.ErrJoinTimeout, nil, "worker %d did not exit within %s", w.id, c.joinTimeout)
		}
	} else {
		<-w.done
	}

	c.current.Store(nil)
	c.log.Infof("[daemon] worker %d stopped", w.id)
	return nil
}

// Restart stops the recorded worker, if any, and starts a new one with the
// last work function.
func (c *Controller) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.work == nil {
		return broker.Errorf(broker.ErrInvalidState, nil, "restart called before start")
	}

	if err := c.stop(); err != nil {
		return err
	}
	return c.start(c.work)
}

// Pid returns the id of the recorded worker, or 0 when none is recorded.
// Ids are never reused.
func (c *Controller) Pid() int {
	if w := c.current.Load(); w != nil {
		return w.id
	}
	return 0
}

func (c *Controller) Running() bool {
	w := c.current.Load()
	return w != nil && !w.exited()
}

// Err returns the exit error of the most recently finished worker.
func (c *Controller) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

func (c *Controller) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	c.lastErr = err
}
