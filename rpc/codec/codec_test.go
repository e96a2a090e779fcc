package codec

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/ValentinKolb/poolfs/rpc/common"
)

// TestParseRequest tests the splitting of request lines
func TestParseRequest(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		ok       bool
		expected common.Request
		wantErr  error
	}{
		{
			name:  "incomplete without terminator",
			input: "LIST",
			ok:    false,
		},
		{
			name:  "incomplete with partial terminator",
			input: "LIST\r\n\r",
			ok:    false,
		},
		{
			name:     "list",
			input:    "LIST\r\n\r\n",
			ok:       true,
			expected: common.Request{Command: common.CmdList},
		},
		{
			name:     "get",
			input:    "GET test.txt\r\n\r\n",
			ok:       true,
			expected: common.Request{Command: common.CmdGet, Args: []string{"test.txt"}},
		},
		{
			name:     "upload keeps spaces in the last argument",
			input:    "UPLOAD test.txt aGVs bG8=\r\n\r\n",
			ok:       true,
			expected: common.Request{Command: common.CmdUpload, Args: []string{"test.txt", "aGVs bG8="}},
		},
		{
			name:     "bytes after the terminator are ignored",
			input:    "GET a\r\n\r\nGET b\r\n\r\n",
			ok:       true,
			expected: common.Request{Command: common.CmdGet, Args: []string{"a"}},
		},
		{
			name:     "unknown command is kept",
			input:    "DELETE x\r\n\r\n",
			ok:       true,
			expected: common.Request{Command: "DELETE", Args: []string{"x"}},
		},
		{
			name:    "empty line",
			input:   "\r\n\r\n",
			ok:      true,
			wantErr: ErrEmptyRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok, err := ParseRequest([]byte(tt.input))
			if ok != tt.ok {
				t.Fatalf("ParseRequest() ok = %v, want %v", ok, tt.ok)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseRequest() err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !reflect.DeepEqual(req, tt.expected) {
				t.Errorf("ParseRequest() = %+v, want %+v", req, tt.expected)
			}
		})
	}
}

// TestEncodeRequest tests that encoded requests parse back to the same request
func TestEncodeRequest(t *testing.T) {
	reqs := []common.Request{
		common.NewListRequest(),
		common.NewGetRequest("file.bin"),
		common.NewUploadRequest("file.bin", "aGVsbG8="),
	}

	for _, req := range reqs {
		b, err := EncodeRequest(req)
		if err != nil {
			t.Fatalf("EncodeRequest(%v) error = %v", req, err)
		}
		if !bytes.HasSuffix(b, common.Terminator) {
			t.Errorf("EncodeRequest(%v) missing terminator: %q", req, b)
		}
		back, ok, err := ParseRequest(b)
		if !ok || err != nil {
			t.Fatalf("ParseRequest(%q) ok=%v err=%v", b, ok, err)
		}
		if !reflect.DeepEqual(back, req) {
			t.Errorf("round trip = %+v, want %+v", back, req)
		}
	}

	if _, err := EncodeRequest(common.NewGetRequest("a\r\n\r\nb")); !errors.Is(err, ErrTerminatorInMessage) {
		t.Errorf("expected ErrTerminatorInMessage, got %v", err)
	}
	if _, err := EncodeRequest(common.NewUploadRequest("with space", "x")); err == nil {
		t.Error("expected error for filename with space")
	}
	if _, err := EncodeRequest(common.NewGetRequest("my file.txt")); err == nil {
		t.Error("expected error for GET filename with space")
	}
	if _, err := EncodeRequest(common.Request{Command: common.CmdList, Args: []string{"a b"}}); err == nil {
		t.Error("expected error for LIST argument with space")
	}

	// the UPLOAD payload is taken verbatim up to the terminator
	req := common.NewUploadRequest("notes.txt", "free form payload")
	b, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest(%v) error = %v", req, err)
	}
	back, _, err := ParseRequest(b)
	if err != nil || !reflect.DeepEqual(back, req) {
		t.Errorf("round trip = %+v (err %v), want %+v", back, err, req)
	}
}

// TestEncodeResponse tests the compact JSON output
func TestEncodeResponse(t *testing.T) {
	tests := []struct {
		resp     common.Response
		expected string
	}{
		{common.NewOKResponse(common.ListPayload(nil)), `{"status":"OK","data":[]}` + "\r\n\r\n"},
		{common.NewOKResponse(common.TextPayload("Uploaded")), `{"status":"OK","data":"Uploaded"}` + "\r\n\r\n"},
		{common.NewErrorResponse("<missing> & gone"), `{"status":"ERROR","data":"<missing> & gone"}` + "\r\n\r\n"},
	}

	for _, tt := range tests {
		b, err := EncodeResponse(tt.resp)
		if err != nil {
			t.Fatalf("EncodeResponse() error = %v", err)
		}
		if string(b) != tt.expected {
			t.Errorf("EncodeResponse() = %q, want %q", b, tt.expected)
		}
	}
}

// TestEncodeResponseEscapesTerminator tests that strings holding the terminator cannot break framing
func TestEncodeResponseEscapesTerminator(t *testing.T) {
	resp := common.NewOKResponse(common.ListPayload([]string{"evil\r\n\r\nname"}))
	b, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse() error = %v", err)
	}
	if i := bytes.Index(b, common.Terminator); i != len(b)-len(common.Terminator) {
		t.Fatalf("terminator found at %d inside %q", i, b)
	}

	back, err := DecodeResponse(b)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if got := back.Data.Items(); len(got) != 1 || got[0] != "evil\r\n\r\nname" {
		t.Errorf("DecodeResponse() items = %q", got)
	}
}

// TestReadMessage tests reading framed messages from a stream
func TestReadMessage(t *testing.T) {
	t.Run("single read", func(t *testing.T) {
		msg, err := ReadMessage(strings.NewReader("LIST\r\n\r\n"), 1024)
		if err != nil || string(msg) != "LIST" {
			t.Fatalf("ReadMessage() = %q, %v", msg, err)
		}
	})

	t.Run("terminator split across reads", func(t *testing.T) {
		r := iotest.OneByteReader(strings.NewReader("GET a.txt\r\n\r\ntrailing"))
		msg, err := ReadMessage(r, 1024)
		if err != nil || string(msg) != "GET a.txt" {
			t.Fatalf("ReadMessage() = %q, %v", msg, err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadMessage(strings.NewReader("GET a.txt\r\n"), 1024)
		if !errors.Is(err, ErrIncomplete) {
			t.Fatalf("ReadMessage() err = %v, want ErrIncomplete", err)
		}
	})

	t.Run("empty stream", func(t *testing.T) {
		_, err := ReadMessage(strings.NewReader(""), 1024)
		if !errors.Is(err, io.EOF) {
			t.Fatalf("ReadMessage() err = %v, want io.EOF", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := ReadMessage(strings.NewReader(strings.Repeat("A", 64)+"\r\n\r\n"), 16)
		if !errors.Is(err, ErrMessageTooLarge) {
			t.Fatalf("ReadMessage() err = %v, want ErrMessageTooLarge", err)
		}
	})

	t.Run("read error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := ReadMessage(iotest.ErrReader(boom), 16)
		if !errors.Is(err, boom) {
			t.Fatalf("ReadMessage() err = %v, want boom", err)
		}
	})
}

func TestDecodeResponseErrors(t *testing.T) {
	for _, in := range []string{"", "not json", `{"data":"x"}`} {
		if _, err := DecodeResponse([]byte(in)); err == nil {
			t.Errorf("DecodeResponse(%q) expected error", in)
		}
	}
}
