package server

import (
	"encoding/base64"
	"fmt"

	"github.com/ValentinKolb/poolfs/lib/store"
	"github.com/ValentinKolb/poolfs/rpc/common"
)

// uploadedMsg is the data of a successful UPLOAD response
const uploadedMsg = "Uploaded"

// Result is what the handler produced for one request: Data on success, Err otherwise.
type Result struct {
	Data common.Payload
	Err  error
}

// Response converts the result into the wire envelope.
// This is the only place where errors become ERROR responses.
func (r Result) Response() common.Response {
	if r.Err != nil {
		return common.NewErrorResponse(r.Err.Error())
	}
	return common.NewOKResponse(r.Data)
}

func okResult(p common.Payload) Result {
	return Result{Data: p}
}

func errResult(err error) Result {
	return Result{Err: err}
}

// --------------------------------------------------------------------------
// Request Handler
// --------------------------------------------------------------------------

// Handle executes a parsed request against the store.
// It does no I/O on the connection and holds no state, every worker may call it concurrently.
func Handle(req common.Request, st store.IFileStore) Result {
	switch req.Command {
	case common.CmdList:
		return handleList(st)
	case common.CmdGet:
		return handleGet(req, st)
	case common.CmdUpload:
		return handleUpload(req, st)
	default:
		return errResult(fmt.Errorf("unknown command: %s", req.Command))
	}
}

func handleList(st store.IFileStore) Result {
	names, err := st.List()
	if err != nil {
		return errResult(err)
	}
	return okResult(common.ListPayload(names))
}

func handleGet(req common.Request, st store.IFileStore) Result {
	name, ok := req.Arg(0)
	if !ok || name == "" {
		return errResult(fmt.Errorf("GET requires a filename"))
	}

	data, err := st.Read(name)
	if err != nil {
		return errResult(err)
	}
	return okResult(common.TextPayload(base64.StdEncoding.EncodeToString(data)))
}

func handleUpload(req common.Request, st store.IFileStore) Result {
	name, okName := req.Arg(0)
	encoded, okData := req.Arg(1)
	if !okName || !okData || name == "" {
		return errResult(fmt.Errorf("UPLOAD requires a filename and base64 data"))
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return errResult(fmt.Errorf("invalid base64 data: %w", err))
	}

	if err := st.Write(name, data); err != nil {
		return errResult(err)
	}
	return okResult(common.TextPayload(uploadedMsg))
}
