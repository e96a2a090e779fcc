package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Terminator marks the end of one complete request or response on the stream.
var Terminator = []byte("\r\n\r\n")

// --------------------------------------------------------------------------
// Request
// --------------------------------------------------------------------------

// Request is a single parsed command line sent by a client.
// It is built once by the codec and never modified afterwards.
type Request struct {
	Command Command
	Args    []string
}

// Arg returns the i-th argument and whether it was present
func (r Request) Arg(i int) (string, bool) {
	if i < 0 || i >= len(r.Args) {
		return "", false
	}
	return r.Args[i], true
}

// String returns the request line without payload arguments (for logging)
func (r Request) String() string {
	switch {
	case r.Command == CmdUpload && len(r.Args) > 1:
		return fmt.Sprintf("%s %s <%d bytes>", r.Command, r.Args[0], len(r.Args[1]))
	case len(r.Args) > 0:
		return fmt.Sprintf("%s %s", r.Command, strings.Join(r.Args, " "))
	default:
		return string(r.Command)
	}
}

// NewListRequest creates a new LIST request
func NewListRequest() Request {
	return Request{Command: CmdList}
}

// NewGetRequest creates a new GET request
func NewGetRequest(filename string) Request {
	return Request{Command: CmdGet, Args: []string{filename}}
}

// NewUploadRequest creates a new UPLOAD request, the payload must already be base64 encoded
func NewUploadRequest(filename, encoded string) Request {
	return Request{Command: CmdUpload, Args: []string{filename, encoded}}
}

// --------------------------------------------------------------------------
// Response
// --------------------------------------------------------------------------

// Response is the JSON envelope returned for every request.
type Response struct {
	Status Status  `json:"status"`
	Data   Payload `json:"data"`
}

// Ok reports whether the response carries a successful result
func (r Response) Ok() bool {
	return r.Status == StatusOK
}

// NewOKResponse creates a successful response with the given payload
func NewOKResponse(data Payload) Response {
	return Response{Status: StatusOK, Data: data}
}

// NewErrorResponse creates an error response carrying a human-readable message
func NewErrorResponse(msg string) Response {
	return Response{Status: StatusError, Data: TextPayload(msg)}
}

// --------------------------------------------------------------------------
// Payload
// --------------------------------------------------------------------------

// Payload is the variant stored in the data field of a response.
// It is either a single string (messages, base64 file contents) or a list of strings.
type Payload struct {
	text  string
	items []string
	list  bool
}

// TextPayload creates a string payload
func TextPayload(s string) Payload {
	return Payload{text: s}
}

// ListPayload creates a list payload. A nil slice is encoded as an empty list.
func ListPayload(items []string) Payload {
	if items == nil {
		items = []string{}
	}
	return Payload{items: items, list: true}
}

// IsList reports whether the payload is a list of strings
func (p Payload) IsList() bool { return p.list }

// Text returns the string value (empty for lists)
func (p Payload) Text() string { return p.text }

// Items returns the list value (nil for strings)
func (p Payload) Items() []string { return p.items }

// MarshalJSON implements the json.Marshaler interface for Payload.
// Strings are not HTML escaped, error texts and file names are sent as is.
func (p Payload) MarshalJSON() ([]byte, error) {
	var v any = p.text
	if p.list {
		items := p.items
		if items == nil {
			items = []string{}
		}
		v = items
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// json.Encoder terminates each value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface for Payload.
func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = ListPayload(items)
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fmt.Errorf("data must be a string or a list of strings: %w", err)
	}
	*p = TextPayload(s)
	return nil
}

// --------------------------------------------------------------------------
// Command and Status
// --------------------------------------------------------------------------

// Command is the verb of a request line. Unknown verbs are kept verbatim
// so the handler can report them.
type Command string

const (
	CmdList   Command = "LIST"   // List all files in the store
	CmdGet    Command = "GET"    // Download one file
	CmdUpload Command = "UPLOAD" // Create or overwrite one file
)

// Known reports whether the command is one of LIST, GET or UPLOAD
func (c Command) Known() bool {
	switch c {
	case CmdList, CmdGet, CmdUpload:
		return true
	default:
		return false
	}
}

// Status is the outcome field of a response
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// UnmarshalJSON implements the json.Unmarshaler interface for Status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	switch Status(str) {
	case StatusOK, StatusError:
		*s = Status(str)
	default:
		return fmt.Errorf("unknown status: %s", str)
	}
	return nil
}
