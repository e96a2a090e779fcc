// Package tcp implements the TCP transport of the file server.
//
// Key Components:
//
//   - serverConnector: listens on host:port and applies TCP no delay and
//     keep alive settings to accepted connections.
//
//   - clientConnector: dials host:port, honouring the context deadline.
package tcp
