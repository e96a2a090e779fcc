package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ValentinKolb/poolfs/lib/pool"
	"github.com/ValentinKolb/poolfs/lib/store"
	"github.com/ValentinKolb/poolfs/rpc/codec"
	"github.com/ValentinKolb/poolfs/rpc/common"
)

// NewConnHandler returns the lifecycle of one connection for the worker pools.
// Thread workers share the returned handler, every worker process builds its own.
func NewConnHandler(st store.IFileStore, config common.ServerConfig) pool.ConnHandler {
	timeout := config.Timeout()
	maxBytes := config.MaxMessageBytes()
	return func(conn net.Conn) pool.Outcome {
		return ServeConn(conn, st, timeout, maxBytes)
	}
}

// ServeConn runs one request/response cycle on conn and always closes it:
// read until the terminator, handle, write the response.
//
// Transport failures (timeout, reset, truncated or oversized request) abandon the
// connection without a response. Everything else is answered with exactly one response.
// An idle timeout of 0 disables the deadlines.
func ServeConn(conn net.Conn, st store.IFileStore, idleTimeout time.Duration, maxBytes int) pool.Outcome {
	defer conn.Close()
	start := time.Now()

	raw, err := codec.ReadMessage(&deadlineReader{conn: conn, timeout: idleTimeout}, maxBytes)
	if err != nil {
		logAbandoned(conn, err)
		return pool.OutcomeAbandoned
	}

	resp := handleMessage(raw, st)

	b, err := codec.EncodeResponse(resp)
	if err != nil {
		Logger.Errorf("cannot encode response for %s: %v", peerAddr(conn), err)
		resp = common.NewErrorResponse(fmt.Sprintf("cannot encode response: %v", err))
		if b, err = codec.EncodeResponse(resp); err != nil {
			return pool.OutcomeAbandoned
		}
	}

	if idleTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(idleTimeout)); err != nil {
			logAbandoned(conn, err)
			return pool.OutcomeAbandoned
		}
	}
	if _, err := conn.Write(b); err != nil {
		logAbandoned(conn, err)
		return pool.OutcomeAbandoned
	}

	Logger.Debugf("served %s with status %s in %s", peerAddr(conn), resp.Status, time.Since(start))
	if resp.Ok() {
		return pool.OutcomeOK
	}
	return pool.OutcomeError
}

// handleMessage parses and executes one request line.
// A panic anywhere below is turned into an ERROR response.
func handleMessage(raw []byte, st store.IFileStore) (resp common.Response) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("panic while handling request: %v", r)
			resp = common.NewErrorResponse(fmt.Sprintf("internal error: %v", r))
		}
	}()

	req, err := codec.ParseRequestLine(string(raw))
	if err != nil {
		return errResult(err).Response()
	}

	Logger.Debugf("handling %s", req)
	return Handle(req, st).Response()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// deadlineReader refreshes the read deadline before every read,
// so the timeout bounds the idle time between two reads and not the whole upload.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			return 0, err
		}
	}
	return r.conn.Read(p)
}

func logAbandoned(conn net.Conn, err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		Logger.Debugf("connection from %s closed before sending a request", peerAddr(conn))
	case errors.As(err, &ne) && ne.Timeout():
		Logger.Infof("connection from %s timed out, abandoned", peerAddr(conn))
	default:
		Logger.Warningf("connection from %s abandoned: %v", peerAddr(conn), err)
	}
}

func peerAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
