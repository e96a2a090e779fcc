// Package client implements the client side of the file server protocol.
//
// A FileClient opens a new connection for every call (the protocol carries one
// request per connection), writes the request line, reads the JSON response up
// to the terminator and closes the connection.
//
// Key Components:
//
//   - NewFileClient: creates a client from a common.ClientConfig and a
//     transport.IClientConnector (tcp or unix).
//
//   - List, Get, Upload: typed calls, file contents are base64 encoded on the
//     wire and decoded by the client.
//
//   - Send: writes a raw command line, used by the CLI for protocol debugging.
//
//   - RemoteError: returned when the server answered with status ERROR.
//
// Timeouts:
//
//	The configured timeout (10 seconds by default) is an idle timeout. It bounds
//	the dial and every single read or write, not the whole transfer. A context
//	passed to a call bounds the whole call.
//
// Usage Example:
//
//	c, _ := client.NewFileClient(common.DefaultClientConfig(), tcp.NewTCPClientConnector())
//
//	_ = c.Upload(ctx, "hello.txt", []byte("hello"))
//	names, _ := c.List(ctx)
//	data, _ := c.Get(ctx, "hello.txt")
package client
