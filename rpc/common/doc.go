// Package common provides core data structures and utilities shared across
// the file server. It defines the protocol types, configuration structures
// and the logging setup used by the other packages.
//
// The package focuses on:
//   - Protocol types for requests and responses
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger package
//
// Key Components:
//
//   - Request: A parsed command line (LIST, GET, UPLOAD) with its ordered arguments.
//
//   - Response: The JSON envelope {"status": ..., "data": ...} returned for every
//     request. The data field is a Payload, which is either a single string
//     (messages and base64 encoded file contents) or a list of strings.
//
//   - Terminator: The 4 byte sequence "\r\n\r\n" that ends every message on
//     the stream. Base64 and JSON string escaping guarantee it never appears
//     inside an encoded message.
//
//   - ServerConfig: Configuration of a server instance, including the pool
//     backend (thread or process), pool size, idle timeout and store root.
//
//   - ClientConfig: Configuration for client components (endpoint, timeout).
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
