// Package transport defines how the file server listens and how clients connect.
// Every connection carries exactly one request and one response, so the
// transports only deal with sockets. Framing lives in the codec package.
//
// Key Components:
//
//   - IServerConnector: creates the listener for the acceptor and applies socket
//     options (e.g. TCP no delay) to accepted connections.
//
//   - IClientConnector: dials a new connection for every client call.
//
// Implementations:
//
//   - tcp: TCP sockets, the default (0.0.0.0:7777).
//   - unix: Unix domain sockets for local benchmarks without the TCP stack.
//
// Both produce connections backed by a socket descriptor, which the process
// pool requires to hand connections to its worker processes.
package transport
