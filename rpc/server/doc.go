// Package server implements the file server: the request handler, the
// lifecycle of a single connection and the connection acceptor.
//
// Key Components:
//
//   - Handle: executes a parsed LIST, GET or UPLOAD request against an injected
//     store.IFileStore and returns a Result (payload or error). It is pure logic
//     and knows nothing about connections or concurrency.
//
//   - ServeConn / NewConnHandler: the lifecycle of one connection as run by a
//     pool worker. Read until the terminator (bounded by the idle timeout),
//     parse, handle, encode, write, close. Panics are recovered and answered with
//     an ERROR response. Transport failures abandon the connection silently.
//
//   - FileServer: binds the endpoint through a transport.IServerConnector and
//     submits every accepted connection to a pool.IWorkerPool. The acceptor never
//     reads from a connection. A bind failure is the only error Serve returns.
//
//   - Metrics: VictoriaMetrics counters and histograms per pool backend, served
//     on /metrics when a metrics endpoint is configured.
//
// Usage Example:
//
//	st, _ := dirstore.NewDirStore(config.StoreDir)
//	m := server.NewMetrics(string(config.Pool))
//
//	p, _ := threadpool.NewThreadPool(
//	  server.NewConnHandler(st, config),
//	  pool.Options{Size: config.PoolSize, OnDone: m.ObserveConnection},
//	)
//
//	s := server.NewFileServer(config, tcp.NewTCPServerConnector(), p, m)
//	if err := s.Serve(ctx); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// With the process pool every worker process builds its own store handle and
// connection handler (see the worker command) while the acceptor stays in the
// parent process.
package server
