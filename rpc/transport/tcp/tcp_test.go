package tcp

import (
	"context"
	"testing"
	"time"

	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenConnectUpgrade(t *testing.T) {
	config := common.DefaultServerConfig()
	config.Endpoint = "127.0.0.1:0"
	config.TCPKeepAliveSec = 30

	server := NewTCPServerConnector()
	assert.Equal(t, "tcp", server.GetName())

	l, err := server.Listen(config)
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewTCPClientConnector()
	assert.Equal(t, "tcp", client.GetName())

	conn, err := client.Connect(ctx, l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	accepted, err := l.Accept()
	require.NoError(t, err)
	defer accepted.Close()

	assert.NoError(t, server.UpgradeConnection(accepted, config))
}

func TestListenAddressInUse(t *testing.T) {
	config := common.DefaultServerConfig()
	config.Endpoint = "127.0.0.1:0"

	server := NewTCPServerConnector()
	l, err := server.Listen(config)
	require.NoError(t, err)
	defer l.Close()

	config.Endpoint = l.Addr().String()
	_, err = server.Listen(config)
	assert.Error(t, err)
}
