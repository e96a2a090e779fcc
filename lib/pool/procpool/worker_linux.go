//go:build linux

package procpool

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/ValentinKolb/poolfs/lib/pool"
	"golang.org/x/sys/unix"
)

// RunWorker is the main loop of a worker process. It receives connection descriptors
// on ctrl, serves each with handler and acknowledges the outcome with one byte.
// It returns nil once the parent closes the control socket.
func RunWorker(ctrl *os.File, handler pool.ConnHandler) error {
	fc, err := net.FileConn(ctrl)
	_ = ctrl.Close()
	if err != nil {
		return fmt.Errorf("control socket: %w", err)
	}
	uc, ok := fc.(*net.UnixConn)
	if !ok {
		_ = fc.Close()
		return fmt.Errorf("control socket has unexpected type %T", fc)
	}
	defer uc.Close()

	buf := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(4))

	for {
		n, oobn, _, _, err := uc.ReadMsgUnix(buf, oob)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			Logger.Debugf("control socket closed, worker exits")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read control socket: %w", err)
		}

		outcome := pool.OutcomeAbandoned
		conn, err := connFromRights(buf[0], oob[:oobn])
		if err != nil {
			Logger.Errorf("invalid control message: %v", err)
		} else {
			outcome = handler(conn)
		}

		if _, err := uc.Write([]byte{byte(outcome)}); err != nil {
			return fmt.Errorf("acknowledge connection: %w", err)
		}
	}
}

// connFromRights rebuilds the connection from a received SCM_RIGHTS message.
// The received descriptor is closed, net.FileConn keeps its own duplicate.
// Descriptors of a message that cannot be used are closed.
func connFromRights(tag byte, oob []byte) (net.Conn, error) {
	fds, err := parseRights(oob)
	if err == nil && (tag != msgConn || len(fds) != 1) {
		err = fmt.Errorf("expected one descriptor with tag %q, got %d with tag %q", msgConn, len(fds), tag)
	}
	if err != nil {
		for _, fd := range fds {
			_ = unix.Close(fd)
		}
		return nil, err
	}

	f := os.NewFile(uintptr(fds[0]), "poolfs-conn")
	conn, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// parseRights collects the descriptors of all control messages in oob. On a
// malformed message it returns the descriptors parsed so far with the error.
func parseRights(oob []byte) ([]int, error) {
	var fds []int
	for len(oob) > 0 {
		if len(oob) < unix.SizeofCmsghdr {
			return fds, fmt.Errorf("truncated control message (%d bytes)", len(oob))
		}
		hdr, data, rest, err := unix.ParseOneSocketControlMessage(oob)
		if err != nil {
			return fds, fmt.Errorf("parse control message: %w", err)
		}
		msg := unix.SocketControlMessage{Header: hdr, Data: data}
		if rights, err := unix.ParseUnixRights(&msg); err == nil {
			fds = append(fds, rights...)
		}
		oob = rest
	}
	return fds, nil
}
