package client

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/ValentinKolb/poolfs/rpc/codec"
	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/ValentinKolb/poolfs/rpc/transport"
)

// FileClient talks to a file server. Every call uses its own connection,
// so a FileClient can be shared between goroutines.
type FileClient struct {
	config    common.ClientConfig
	connector transport.IClientConnector
}

// NewFileClient creates a new client for the server at config.Endpoint
func NewFileClient(config common.ClientConfig, connector transport.IClientConnector) (*FileClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if connector == nil {
		return nil, fmt.Errorf("client needs a transport connector")
	}
	return &FileClient{config: config, connector: connector}, nil
}

// Config returns the configuration of the client
func (c *FileClient) Config() common.ClientConfig {
	return c.config
}

// List returns the names of all files on the server
func (c *FileClient) List(ctx context.Context) ([]string, error) {
	resp, err := c.Do(ctx, common.NewListRequest())
	if err != nil {
		return nil, err
	}
	if !resp.Data.IsList() {
		return nil, fmt.Errorf("unexpected LIST response: %q", resp.Data.Text())
	}
	return resp.Data.Items(), nil
}

// Get downloads the named file
func (c *FileClient) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.Do(ctx, common.NewGetRequest(name))
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data.Text())
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data from server: %w", err)
	}
	return data, nil
}

// Upload stores data under name on the server, replacing an existing file
func (c *FileClient) Upload(ctx context.Context, name string, data []byte) error {
	_, err := c.Do(ctx, common.NewUploadRequest(name, base64.StdEncoding.EncodeToString(data)))
	return err
}

// Do sends a request and returns the response. ERROR responses are returned as *RemoteError.
func (c *FileClient) Do(ctx context.Context, req common.Request) (common.Response, error) {
	raw, err := codec.EncodeRequest(req)
	if err != nil {
		return common.Response{}, err
	}

	Logger.Debugf("sending %s to %s", req, c.config.Endpoint)
	resp, err := invokeRequest(ctx, c.config, c.connector, raw)
	if err != nil {
		return common.Response{}, err
	}
	return checkResponse(resp)
}

// Send writes a raw command line (without terminator) and returns the response as is,
// an ERROR response is not turned into an error.
func (c *FileClient) Send(ctx context.Context, line string) (common.Response, error) {
	raw := append([]byte(line), common.Terminator...)
	return invokeRequest(ctx, c.config, c.connector, raw)
}
