package server

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/poolfs/lib/pool"
	"github.com/ValentinKolb/poolfs/lib/store"
	"github.com/ValentinKolb/poolfs/rpc/codec"
	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxBytes = 4 << 20

// serveAsync runs ServeConn on the server side of a pipe and returns the client side
func serveAsync(t *testing.T, st store.IFileStore, timeout time.Duration) (net.Conn, <-chan pool.Outcome) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	done := make(chan pool.Outcome, 1)
	go func() {
		done <- ServeConn(server, st, timeout, testMaxBytes)
	}()
	return client, done
}

func readResponse(t *testing.T, conn net.Conn) common.Response {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	raw, err := io.ReadAll(conn)
	require.NoError(t, err)
	resp, err := codec.DecodeResponse(raw)
	require.NoError(t, err)
	return resp
}

func TestServeConnList(t *testing.T) {
	client, done := serveAsync(t, newStore(t), time.Second)

	_, err := client.Write([]byte("LIST\r\n\r\n"))
	require.NoError(t, err)

	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))
	raw, err := io.ReadAll(client)
	require.NoError(t, err)
	assert.Equal(t, "{\"status\":\"OK\",\"data\":[]}\r\n\r\n", string(raw))
	assert.Equal(t, pool.OutcomeOK, <-done)
}

func TestServeConnErrorResponse(t *testing.T) {
	client, done := serveAsync(t, newStore(t), time.Second)

	_, err := client.Write([]byte("GET missing.txt\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, client)
	assert.Equal(t, common.StatusError, resp.Status)
	assert.Contains(t, resp.Data.Text(), "missing.txt")
	assert.Equal(t, pool.OutcomeError, <-done)
}

func TestServeConnEmptyRequest(t *testing.T) {
	client, done := serveAsync(t, newStore(t), time.Second)

	_, err := client.Write([]byte("\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, client)
	assert.Equal(t, common.StatusError, resp.Status)
	assert.Equal(t, pool.OutcomeError, <-done)
}

// TestServeConnWaitsForTerminator tests that nothing is answered before the terminator arrives
func TestServeConnWaitsForTerminator(t *testing.T) {
	client, done := serveAsync(t, newStore(t), 5*time.Second)

	_, err := client.Write([]byte("LI"))
	require.NoError(t, err)
	_, err = client.Write([]byte("ST\r\n"))
	require.NoError(t, err)

	_ = client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	n, err := client.Read(make([]byte, 16))
	assert.Equal(t, 0, n)
	var ne net.Error
	require.True(t, errors.As(err, &ne) && ne.Timeout(), "expected a read timeout, got %v", err)

	_, err = client.Write([]byte("\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, client)
	assert.Equal(t, common.StatusOK, resp.Status)
	assert.Equal(t, pool.OutcomeOK, <-done)
}

// TestServeConnIdleTimeout tests that an idle connection is closed without a response
func TestServeConnIdleTimeout(t *testing.T) {
	client, done := serveAsync(t, newStore(t), 50*time.Millisecond)

	_, err := client.Write([]byte("LIST"))
	require.NoError(t, err)

	select {
	case outcome := <-done:
		assert.Equal(t, pool.OutcomeAbandoned, outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not abandoned after the idle timeout")
	}

	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	raw, err := io.ReadAll(client)
	assert.NoError(t, err)
	assert.Empty(t, raw)
}

// TestServeConnTruncated tests that a client closing early is abandoned
func TestServeConnTruncated(t *testing.T) {
	st := newStore(t)
	server, client := net.Pipe()
	done := make(chan pool.Outcome, 1)
	go func() {
		done <- ServeConn(server, st, time.Second, testMaxBytes)
	}()

	_, err := client.Write([]byte("UPLOAD a.txt aGVs"))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	assert.Equal(t, pool.OutcomeAbandoned, <-done)
}

// panicStore panics when listing
type panicStore struct{ store.IFileStore }

func (panicStore) List() ([]string, error) { panic("disk on fire") }

func TestServeConnRecoversPanic(t *testing.T) {
	client, done := serveAsync(t, panicStore{}, time.Second)

	_, err := client.Write([]byte("LIST\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, client)
	assert.Equal(t, common.StatusError, resp.Status)
	assert.Contains(t, resp.Data.Text(), "disk on fire")
	assert.Equal(t, pool.OutcomeError, <-done)
}
