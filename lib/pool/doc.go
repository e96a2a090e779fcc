// Package pool provides the worker pools that serve accepted connections.
//
// All backends share the same contract (IWorkerPool): the acceptor calls Submit
// with every accepted connection and never touches it again. A pool has a fixed
// number of workers, each worker serves exactly one connection at a time from
// the first read to the final close.
//
// Backpressure:
//
// Submit puts the connection into a queue with room for Size connections and
// returns. Once the queue is full Submit blocks, which stalls the accept loop
// until a worker picks up the next job. There is no rejection policy.
//
// Key Components:
//
//   - Base Pool (NewBasePool): the queue, one dispatcher goroutine per worker
//     slot, replacement of broken workers and the bookkeeping of busy workers.
//     Backends only implement IWorkerFactory and IWorker.
//
//   - Outcome: how a connection ended (ok, error, abandoned). Reported to the
//     OnDone hook for metrics.
//
// Implementations:
//
//   - Thread Pool (threadpool): workers are goroutines locked to their own OS
//     thread. They share the memory of the server process, including the store
//     handle. Available in "github.com/ValentinKolb/poolfs/lib/pool/threadpool".
//
//   - Process Pool (procpool): every worker is a child process. The parent
//     duplicates the socket descriptor of the connection, closes its own
//     connection and passes the duplicate over a unix socket (SCM_RIGHTS). The
//     child serves the connection with its own handler and store handle, so
//     workers share nothing but the filesystem. Linux only.
//     Available in "github.com/ValentinKolb/poolfs/lib/pool/procpool".
package pool
