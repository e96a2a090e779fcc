// Package rpc contains the network side of poolfs: the wire protocol, the
// server that accepts connections and hands them to a worker pool, and the
// client that talks to it.
//
// The package is organized into several subpackages:
//
//   - common: Request, Response and Payload types of the protocol, the server
//     and client configuration structures and the logger setup.
//
//   - codec: Reading a message up to the terminator and converting between raw
//     messages and the common types (command lines in, JSON responses out).
//
//   - transport: Listener and dialer abstractions with TCP and Unix socket
//     implementations.
//
//   - server: The request handler, the per connection lifecycle run by the pool
//     workers, the acceptor and its metrics.
//
//   - client: A client that opens one connection per request.
package rpc
