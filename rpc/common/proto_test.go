package common

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestResponseJSON checks the exact envelope produced for each payload kind
func TestResponseJSON(t *testing.T) {
	tests := []struct {
		name     string
		resp     Response
		expected string
	}{
		{
			name:     "empty list",
			resp:     NewOKResponse(ListPayload(nil)),
			expected: `{"status":"OK","data":[]}`,
		},
		{
			name:     "list",
			resp:     NewOKResponse(ListPayload([]string{"a.txt", "b.bin"})),
			expected: `{"status":"OK","data":["a.txt","b.bin"]}`,
		},
		{
			name:     "text",
			resp:     NewOKResponse(TextPayload("Uploaded")),
			expected: `{"status":"OK","data":"Uploaded"}`,
		},
		{
			name:     "error",
			resp:     NewErrorResponse("file not found"),
			expected: `{"status":"ERROR","data":"file not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(b) != tt.expected {
				t.Errorf("Marshal() = %s, want %s", b, tt.expected)
			}

			var back Response
			if err := json.Unmarshal(b, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if back.Status != tt.resp.Status || back.Data.IsList() != tt.resp.Data.IsList() {
				t.Errorf("Unmarshal() = %+v, want %+v", back, tt.resp)
			}
			if back.Data.Text() != tt.resp.Data.Text() {
				t.Errorf("Text() = %q, want %q", back.Data.Text(), tt.resp.Data.Text())
			}
			if tt.resp.Data.IsList() && !reflect.DeepEqual(back.Data.Items(), tt.resp.Data.Items()) {
				t.Errorf("Items() = %v, want %v", back.Data.Items(), tt.resp.Data.Items())
			}
		})
	}
}

// TestResponseUnmarshalErrors tests that malformed envelopes are rejected
func TestResponseUnmarshalErrors(t *testing.T) {
	inputs := []string{
		`{"status":"MAYBE","data":"x"}`,
		`{"status":"OK","data":42}`,
		`{"status":"OK","data":[1,2]}`,
	}

	for _, in := range inputs {
		var r Response
		if err := json.Unmarshal([]byte(in), &r); err == nil {
			t.Errorf("Unmarshal(%s) expected error, got %+v", in, r)
		}
	}
}

func TestRequestString(t *testing.T) {
	if got := NewUploadRequest("a.bin", "aGVsbG8=").String(); got != "UPLOAD a.bin <8 bytes>" {
		t.Errorf("String() = %q", got)
	}
	if got := NewGetRequest("a.bin").String(); got != "GET a.bin" {
		t.Errorf("String() = %q", got)
	}
	if got := NewListRequest().String(); got != "LIST" {
		t.Errorf("String() = %q", got)
	}
}

// TestPayloadMarshalNoHTMLEscape tests that payload strings keep <, > and & as is
func TestPayloadMarshalNoHTMLEscape(t *testing.T) {
	tests := []struct {
		name     string
		payload  Payload
		expected string
	}{
		{"text", TextPayload("<missing> & gone"), `"<missing> & gone"`},
		{"list", ListPayload([]string{"a&b.txt", "<c>.bin"}), `["a&b.txt","<c>.bin"]`},
		{"empty list", ListPayload(nil), `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.payload.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(b) != tt.expected {
				t.Errorf("MarshalJSON() = %s, want %s", b, tt.expected)
			}
		})
	}
}
