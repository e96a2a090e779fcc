package pool

import (
	"fmt"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("pool")

// Options configures a pool created with NewBasePool
type Options struct {
	// Size is the number of workers (and the capacity of the job queue)
	Size int
	// LockOSThread pins every dispatcher goroutine to its own OS thread
	LockOSThread bool
	// OnDone is called after every connection, it may be nil
	OnDone func(outcome Outcome, took time.Duration)
}

// basePool implements IWorkerPool on top of an IWorkerFactory.
// Each of the Size dispatcher goroutines owns exactly one worker and takes jobs from a shared queue.
type basePool struct {
	factory IWorkerFactory
	opts    Options
	jobs    chan net.Conn

	// mu guards closed and sending on jobs
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	// busy maps worker id -> peer address of the connection being served
	busy *xsync.MapOf[int, string]
}

// NewBasePool creates all workers and starts the dispatchers.
// If a worker cannot be created the already created ones are closed again.
func NewBasePool(factory IWorkerFactory, opts Options) (IWorkerPool, error) {
	if opts.Size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", opts.Size)
	}

	workers := make([]IWorker, 0, opts.Size)
	for i := 0; i < opts.Size; i++ {
		w, err := factory.NewWorker(i)
		if err != nil {
			for _, created := range workers {
				_ = created.Close()
			}
			return nil, fmt.Errorf("failed to create %s worker %d: %w", factory.GetName(), i, err)
		}
		workers = append(workers, w)
	}

	p := &basePool{
		factory: factory,
		opts:    opts,
		jobs:    make(chan net.Conn, opts.Size),
		busy:    xsync.NewMapOf[int, string](),
	}

	for i, w := range workers {
		p.wg.Add(1)
		go p.dispatch(i, w)
	}

	Logger.Infof("started %s pool with %d workers", factory.GetName(), opts.Size)
	return p, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see pool.IWorkerPool)
// --------------------------------------------------------------------------

func (p *basePool) Submit(conn net.Conn) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		_ = conn.Close()
		return ErrPoolClosed
	}

	// blocks once Size connections are waiting
	p.jobs <- conn
	return nil
}

func (p *basePool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	Logger.Infof("stopped %s pool", p.factory.GetName())
	return nil
}

func (p *basePool) Name() string {
	return p.factory.GetName()
}

func (p *basePool) Size() int {
	return p.opts.Size
}

func (p *basePool) Busy() int {
	return p.busy.Size()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dispatch serves jobs with worker w until the queue is closed.
// A broken worker is replaced before the next job.
func (p *basePool) dispatch(id int, w IWorker) {
	defer p.wg.Done()

	if p.opts.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for conn := range p.jobs {
		start := time.Now()

		if w == nil {
			var err error
			if w, err = p.factory.NewWorker(id); err != nil {
				Logger.Errorf("cannot replace %s worker %d: %v", p.factory.GetName(), id, err)
				w = nil
				_ = conn.Close()
				p.done(OutcomeAbandoned, start)
				continue
			}
			Logger.Infof("replaced %s worker %d", p.factory.GetName(), id)
		}

		p.busy.Store(id, peerOf(conn))
		outcome, err := w.Run(conn)
		p.busy.Delete(id)

		if err != nil {
			Logger.Warningf("%s worker %d failed: %v", p.factory.GetName(), id, err)
			_ = w.Close()
			w = nil
		}
		p.done(outcome, start)
	}

	if w != nil {
		if err := w.Close(); err != nil {
			Logger.Warningf("closing %s worker %d: %v", p.factory.GetName(), id, err)
		}
	}
}

func (p *basePool) done(outcome Outcome, start time.Time) {
	if p.opts.OnDone != nil {
		p.opts.OnDone(outcome, time.Since(start))
	}
}

// peerOf returns the remote address of conn or "unknown"
func peerOf(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
