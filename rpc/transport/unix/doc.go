// Package unix implements the Unix domain socket transport of the file server.
// The endpoint is the path of the socket file, a stale file of a previous run
// is removed before listening.
//
// Key Components:
//
//   - serverConnector: creates the Unix socket listener
//
//   - clientConnector: dials the socket path
package unix
