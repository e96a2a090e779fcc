package threadpool

import (
	"fmt"
	"net"

	"github.com/ValentinKolb/poolfs/lib/pool"
)

// workerFactory implements the IWorkerFactory interface for in-process workers
type workerFactory struct {
	handler pool.ConnHandler
}

// threadWorker runs the handler on the goroutine (and thus OS thread) of its dispatcher
type threadWorker struct {
	id      int
	handler pool.ConnHandler
}

// --------------------------------------------------------------------------
// Interface Methods (docu see pool.IWorkerFactory and pool.IWorker)
// --------------------------------------------------------------------------

func (f *workerFactory) GetName() string {
	return "thread"
}

func (f *workerFactory) NewWorker(id int) (pool.IWorker, error) {
	return &threadWorker{id: id, handler: f.handler}, nil
}

func (w *threadWorker) Run(conn net.Conn) (outcome pool.Outcome, err error) {
	// a panicking handler must not take the dispatcher down
	defer func() {
		if r := recover(); r != nil {
			_ = conn.Close()
			outcome = pool.OutcomeAbandoned
			err = fmt.Errorf("thread worker %d panicked: %v", w.id, r)
		}
	}()
	return w.handler(conn), nil
}

func (w *threadWorker) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Pool Factory Method
// --------------------------------------------------------------------------

// NewThreadPool creates a pool whose workers share the memory of this process.
// opts.LockOSThread is always set, every worker gets a dedicated OS thread.
//
// Usage:
//
//	p, err := threadpool.NewThreadPool(handler, pool.Options{Size: 5})
//	if err != nil {
//		return err
//	}
//	defer p.Close()
func NewThreadPool(handler pool.ConnHandler, opts pool.Options) (pool.IWorkerPool, error) {
	if handler == nil {
		return nil, fmt.Errorf("thread pool needs a connection handler")
	}
	opts.LockOSThread = true
	return pool.NewBasePool(&workerFactory{handler: handler}, opts)
}
