package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/poolfs/rpc/codec"
	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/ValentinKolb/poolfs/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// writeChunkSize is the amount written between two deadline refreshes
const writeChunkSize = 1 << 20

// RemoteError is returned when the server answered with an ERROR response
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error: %s", e.Msg)
}

// invokeRequest is the helper used by all client methods. It opens a new connection,
// writes the raw request, reads the response until the terminator and closes the connection.
// The idle timeout bounds every single read and write, ctx bounds the whole call.
func invokeRequest(ctx context.Context, config common.ClientConfig, connector transport.IClientConnector, raw []byte) (common.Response, error) {
	timeout := config.Timeout()

	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := connector.Connect(dialCtx, config.Endpoint)
	if err != nil {
		return common.Response{}, fmt.Errorf("cannot connect to %s: %w", config.Endpoint, err)
	}
	defer conn.Close()

	// interrupt blocked reads and writes once ctx is done
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := writeAll(ctx, conn, raw, timeout); err != nil {
		return common.Response{}, wrapCtxErr(ctx, fmt.Errorf("cannot send request: %w", err))
	}

	msg, err := codec.ReadMessage(&idleConn{ctx: ctx, conn: conn, timeout: timeout}, config.MaxMessageBytes())
	if err != nil {
		return common.Response{}, wrapCtxErr(ctx, fmt.Errorf("cannot read response: %w", err))
	}

	return codec.DecodeResponse(msg)
}

// checkResponse turns an ERROR response into a *RemoteError
func checkResponse(resp common.Response) (common.Response, error) {
	if !resp.Ok() {
		return resp, &RemoteError{Msg: resp.Data.Text()}
	}
	return resp, nil
}

// writeAll writes b in chunks and refreshes the write deadline before each chunk
func writeAll(ctx context.Context, conn net.Conn, b []byte, timeout time.Duration) error {
	for len(b) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(len(b), writeChunkSize)
		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				return err
			}
		}
		if _, err := conn.Write(b[:n]); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// idleConn refreshes the read deadline before every read
type idleConn struct {
	ctx     context.Context
	conn    net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.conn.Read(p)
}

// wrapCtxErr reports the context error instead of the deadline error it caused
func wrapCtxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return err
}
