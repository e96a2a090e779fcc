// Package procpool implements the process-backed worker pool.
//
// Every worker slot is a child process started from Command (normally the
// poolfs binary itself with the hidden "worker" command). Parent and child are
// connected by a unix socket pair, the child end is inherited as descriptor 3
// (CtrlFD).
//
// Descriptor handoff per connection:
//
//  1. The parent duplicates the socket descriptor of the accepted connection
//     (net.TCPConn.File) and closes its original connection.
//  2. The duplicate is sent to the child in a one-byte message with SCM_RIGHTS
//     and the parent closes its duplicate.
//  3. The child turns the received descriptor into a net.Conn, serves the
//     request with its own handler and store handle and closes the connection.
//  4. The child writes the pool.Outcome as a single byte, the parent slot is
//     free again.
//
// A worker process that dies is replaced by the pool before the next job.
// Closing the pool closes the control sockets, the children exit on EOF.
//
// Only linux is supported, on other platforms NewProcessPool returns an error.
package procpool
