// Package codec implements the wire format of the file server: a single
// request line terminated by "\r\n\r\n" and a compact JSON response envelope
// terminated by the same sequence.
//
// Request line:
//
//	LIST\r\n\r\n
//	GET <filename>\r\n\r\n
//	UPLOAD <filename> <base64-payload>\r\n\r\n
//
// Response:
//
//	{"status":"OK","data":["a.txt","b.bin"]}\r\n\r\n
//	{"status":"OK","data":"aGVsbG8="}\r\n\r\n
//	{"status":"ERROR","data":"open server_files/x: no such file or directory"}\r\n\r\n
//
// The framing is delimiter based without a length prefix. This only works
// because neither the base64 alphabet nor JSON encoded strings can contain
// the raw terminator bytes. EncodeResponse verifies that invariant.
//
// All functions are stateless and safe for concurrent use.
package codec
