package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ValentinKolb/poolfs/lib/pool"
	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/ValentinKolb/poolfs/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// acceptBackoff is the pause after a failed accept (e.g. too many open files)
const acceptBackoff = 10 * time.Millisecond

// FileServer is the connection acceptor. It owns the listener and hands every
// accepted connection to the worker pool without reading from it.
type FileServer struct {
	config    common.ServerConfig
	connector transport.IServerConnector
	pool      pool.IWorkerPool
	metrics   *Metrics
	listener  net.Listener
}

// NewFileServer creates a new file server. The server takes ownership of p and
// closes it when Serve returns. m may be nil if no metrics are collected.
//
// Usage:
//
//	p, _ := threadpool.NewThreadPool(server.NewConnHandler(st, config), pool.Options{Size: config.PoolSize})
//	s := server.NewFileServer(config, tcp.NewTCPServerConnector(), p, nil)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewFileServer(
	config common.ServerConfig,
	connector transport.IServerConnector,
	p pool.IWorkerPool,
	m *Metrics,
) *FileServer {
	m.TrackPool(p)
	return &FileServer{
		config:    config,
		connector: connector,
		pool:      p,
		metrics:   m,
	}
}

// Listen binds the endpoint and returns the bound address.
// Calling it before Serve is optional, it allows to learn the port of ":0" endpoints.
func (s *FileServer) Listen() (net.Addr, error) {
	if s.listener != nil {
		return s.listener.Addr(), nil
	}
	l, err := s.connector.Listen(s.config)
	if err != nil {
		return nil, fmt.Errorf("cannot listen on %s (%s): %w", s.config.Endpoint, s.connector.GetName(), err)
	}
	s.listener = l
	return l.Addr(), nil
}

// Serve accepts connections until ctx is cancelled.
// A bind failure is returned before any connection is accepted. Accept errors are
// logged and do not stop the loop. On shutdown the listener is closed first, then
// the pool finishes all submitted connections.
func (s *FileServer) Serve(ctx context.Context) error {
	defer func() {
		if err := s.pool.Close(); err != nil {
			Logger.Errorf("closing pool: %v", err)
		}
	}()

	addr, err := s.Listen()
	if err != nil {
		return err
	}

	Logger.Infof("file server listening on %s (%s) with %d %s workers",
		addr, s.connector.GetName(), s.pool.Size(), s.pool.Name())

	var metricsSrv *http.Server
	if s.metrics != nil && s.config.MetricsEndpoint != "" {
		metricsSrv = s.metrics.serve(s.config.MetricsEndpoint)
	}
	defer shutdownMetrics(metricsSrv)

	stop := context.AfterFunc(ctx, func() {
		_ = s.listener.Close()
	})
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.metrics.acceptError()
			Logger.Errorf("accept error: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}

		if err := s.connector.UpgradeConnection(conn, s.config); err != nil {
			Logger.Warningf("cannot apply socket options to %s: %v", conn.RemoteAddr(), err)
		}

		// from here on the pool owns the connection
		if err := s.pool.Submit(conn); err != nil {
			Logger.Errorf("cannot submit connection: %v", err)
			if errors.Is(err, pool.ErrPoolClosed) {
				break
			}
		}
	}

	_ = s.listener.Close()
	Logger.Infof("file server on %s stopped accepting, waiting for workers", addr)
	return nil
}
