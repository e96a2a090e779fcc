package pool

import (
	"errors"
	"net"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// IWorkerPool is the submission contract shared by all pool backends.
// The acceptor hands every accepted connection to Submit and forgets about it.
type IWorkerPool interface {
	// Submit transfers ownership of conn to the pool. It blocks while the queue is full.
	// If the pool is closed the connection is closed and ErrPoolClosed is returned.
	Submit(conn net.Conn) error
	// Close stops accepting jobs, waits for queued and running connections and releases all workers.
	Close() error
	// Name returns the backend name (e.g. "thread", "process")
	Name() string
	// Size returns the fixed number of workers
	Size() int
	// Busy returns the number of workers currently serving a connection
	Busy() int
}

// IWorker is one execution unit of a pool. A worker serves one connection at a time.
type IWorker interface {
	// Run serves conn to completion. The worker owns conn and must close it.
	// A non-nil error means the worker itself is broken and has to be replaced.
	Run(conn net.Conn) (Outcome, error)
	// Close releases the worker
	Close() error
}

// IWorkerFactory creates the workers of a pool
type IWorkerFactory interface {
	// GetName returns the backend name
	GetName() string
	// NewWorker creates the worker for slot id
	NewWorker(id int) (IWorker, error)
}

// ConnHandler runs the complete lifecycle of one connection (read, handle, write, close)
type ConnHandler func(conn net.Conn) Outcome

// ErrPoolClosed is returned by Submit after Close was called
var ErrPoolClosed = errors.New("worker pool is closed")

// --------------------------------------------------------------------------
// Outcome
// --------------------------------------------------------------------------

// Outcome describes how a connection ended. It is sent as a single byte
// from worker processes to the parent, so the values must fit into a byte.
type Outcome uint8

const (
	OutcomeOK        Outcome = iota // 0: an OK response was written
	OutcomeError                    // 1: an ERROR response was written
	OutcomeAbandoned                // 2: the connection was closed without a response
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeError:
		return "error"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}
