package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// --------------------------------------------------------------------------
// Server Connector
// --------------------------------------------------------------------------

// IServerConnector defines the transport specific part of the acceptor
type IServerConnector interface {
	// Listen creates the listener for config.Endpoint
	Listen(config common.ServerConfig) (net.Listener, error)
	// UpgradeConnection applies socket options to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// --------------------------------------------------------------------------
// Client Connector
// --------------------------------------------------------------------------

// IClientConnector defines the transport specific part of the client
type IClientConnector interface {
	// Connect opens a new connection to endpoint
	Connect(ctx context.Context, endpoint string) (net.Conn, error)
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}
