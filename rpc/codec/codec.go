package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/poolfs/rpc/common"
)

const (
	// readChunkSize is the size of a single read from the stream (1 MiB)
	readChunkSize = 1 << 20
)

var (
	// ErrIncomplete is returned when the stream ends before the terminator was seen
	ErrIncomplete = errors.New("stream ended before message terminator")
	// ErrMessageTooLarge is returned when no terminator was found within the size limit
	ErrMessageTooLarge = errors.New("message exceeds size limit")
	// ErrTerminatorInMessage is returned when an encoded message would contain the terminator
	ErrTerminatorInMessage = errors.New("message contains the terminator sequence")
	// ErrEmptyRequest is returned for a request line without a command
	ErrEmptyRequest = errors.New("empty request")
)

// --------------------------------------------------------------------------
// Framing
// --------------------------------------------------------------------------

// ReadMessage reads from r until the terminator sequence and returns the bytes before it.
// Bytes after the terminator are discarded since every connection carries one message.
//
// It returns io.EOF if the stream ends before any byte was read, ErrIncomplete if it
// ends in the middle of a message and ErrMessageTooLarge once more than maxBytes
// were read without a terminator. Any other read error (e.g. a deadline) is returned as is.
func ReadMessage(r io.Reader, maxBytes int) ([]byte, error) {
	var (
		buf      = make([]byte, 0, min(readChunkSize, maxBytes+len(common.Terminator)))
		chunk    = make([]byte, readChunkSize)
		searched = 0
	)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			// the terminator may straddle two reads
			start := max(0, searched-len(common.Terminator)+1)
			if i := bytes.Index(buf[start:], common.Terminator); i >= 0 {
				if start+i > maxBytes {
					return nil, ErrMessageTooLarge
				}
				return buf[:start+i], nil
			}
			searched = len(buf)

			if len(buf) > maxBytes+len(common.Terminator) {
				return nil, ErrMessageTooLarge
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(buf) == 0 {
					return nil, io.EOF
				}
				return nil, ErrIncomplete
			}
			return nil, err
		}
	}
}

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// ParseRequest parses the bytes accumulated so far.
// It returns ok=false as long as the terminator has not arrived.
// The line is split on the first two spaces, so the last argument is taken
// verbatim and may itself contain spaces.
func ParseRequest(buf []byte) (req common.Request, ok bool, err error) {
	i := bytes.Index(buf, common.Terminator)
	if i < 0 {
		return common.Request{}, false, nil
	}
	req, err = ParseRequestLine(string(buf[:i]))
	return req, true, err
}

// ParseRequestLine parses a single request line without terminator
func ParseRequestLine(line string) (common.Request, error) {
	if line == "" {
		return common.Request{}, ErrEmptyRequest
	}

	tokens := strings.SplitN(line, " ", 3)
	req := common.Request{Command: common.Command(tokens[0])}
	if len(tokens) > 1 {
		req.Args = tokens[1:]
	}
	return req, nil
}

// EncodeRequest serializes a request line and appends the terminator
func EncodeRequest(req common.Request) ([]byte, error) {
	if req.Command == "" || strings.Contains(string(req.Command), " ") {
		return nil, fmt.Errorf("invalid command %q", req.Command)
	}

	var sb strings.Builder
	sb.WriteString(string(req.Command))
	for i, arg := range req.Args {
		// the server splits on the first two spaces, only the UPLOAD payload may contain spaces
		if !isPayloadArg(req.Command, i) && strings.Contains(arg, " ") {
			return nil, fmt.Errorf("argument %d must not contain spaces: %q", i, arg)
		}
		sb.WriteByte(' ')
		sb.WriteString(arg)
	}

	line := sb.String()
	if strings.Contains(line, string(common.Terminator)) {
		return nil, ErrTerminatorInMessage
	}
	return append([]byte(line), common.Terminator...), nil
}

// isPayloadArg reports whether the i-th argument of cmd is the free form payload
func isPayloadArg(cmd common.Command, i int) bool {
	return cmd == common.CmdUpload && i == 1
}

// --------------------------------------------------------------------------
// Responses
// --------------------------------------------------------------------------

// EncodeResponse serializes a response to compact JSON and appends the terminator.
// JSON string escaping turns CR and LF into escape sequences, the check below
// only guards that invariant.
func EncodeResponse(resp common.Response) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		return nil, err
	}

	// json.Encoder terminates each value with a newline
	body := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	if bytes.Contains(body, common.Terminator) {
		return nil, ErrTerminatorInMessage
	}
	return append(body, common.Terminator...), nil
}

// DecodeResponse parses a JSON response envelope, with or without trailing terminator
func DecodeResponse(b []byte) (common.Response, error) {
	var resp common.Response
	b = bytes.TrimSuffix(b, common.Terminator)
	if err := json.Unmarshal(b, &resp); err != nil {
		return common.Response{}, fmt.Errorf("invalid response: %w", err)
	}
	if resp.Status == "" {
		return common.Response{}, fmt.Errorf("invalid response: missing status")
	}
	return resp, nil
}
