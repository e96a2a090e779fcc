package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultEndpoint       = "0.0.0.0:7777"
	DefaultPoolSize       = 5
	DefaultServerTimeout  = 300 // seconds
	DefaultClientTimeout  = 10  // seconds
	DefaultStoreDir       = "server_files"
	DefaultMaxMessageMB   = 1024
	DefaultClientEndpoint = "127.0.0.1:7777"
)

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// PoolType selects the worker pool backend
type PoolType string

const (
	PoolTypeThread  PoolType = "thread"
	PoolTypeProcess PoolType = "process"
)

// ServerConfig holds all configuration parameters of a file server.
type ServerConfig struct {
	// Endpoint is the address the acceptor listens on (host:port or a socket path)
	Endpoint string `validate:"required"`
	// Transport is the listener type (tcp, unix)
	Transport string `validate:"required,oneof=tcp unix"`

	// Pool selects the worker backend, PoolSize the number of workers
	Pool     PoolType `validate:"required,oneof=thread process"`
	PoolSize int      `validate:"min=1,max=4096"`

	// TimeoutSecond is the idle read timeout of a worker on its connection (0 disables it)
	TimeoutSecond int64 `validate:"min=0"`

	// StoreDir is the root directory of the file store
	StoreDir string `validate:"required"`

	// MaxMessageMB bounds the size of one request (the base64 payload included)
	MaxMessageMB int `validate:"min=1"`

	// TCP socket options (ignored for unix)
	TCPNoDelay      bool
	TCPKeepAliveSec int `validate:"min=0"`

	// MetricsEndpoint enables the /metrics http endpoint if set
	MetricsEndpoint string

	// Logging configuration
	LogLevel string `validate:"required,oneof=debug info warn warning error"`
}

// DefaultServerConfig returns the configuration used when nothing is overridden
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Endpoint:      DefaultEndpoint,
		Transport:     "tcp",
		Pool:          PoolTypeThread,
		PoolSize:      DefaultPoolSize,
		TimeoutSecond: DefaultServerTimeout,
		StoreDir:      DefaultStoreDir,
		MaxMessageMB:  DefaultMaxMessageMB,
		TCPNoDelay:    true,
		LogLevel:      "info",
	}
}

// Timeout returns the idle timeout as a duration
func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// MaxMessageBytes returns the request size limit in bytes
func (c *ServerConfig) MaxMessageBytes() int {
	return c.MaxMessageMB * 1024 * 1024
}

// Validate checks the configuration struct tags
func (c *ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("File Server")
	addField("Endpoint", c.Endpoint)
	addField("Transport", c.Transport)
	addField("Idle Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Message", fmt.Sprintf("%d MB", c.MaxMessageMB))
	if c.Transport == "tcp" {
		addField("TCP No Delay", fmt.Sprintf("%t", c.TCPNoDelay))
		addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.TCPKeepAliveSec))
	}

	addSection("Worker Pool")
	addField("Backend", string(c.Pool))
	addField("Workers", fmt.Sprintf("%d", c.PoolSize))

	addSection("Store")
	addField("Directory", c.StoreDir)

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	if c.MetricsEndpoint != "" {
		addSection("Metrics")
		addField("Endpoint", c.MetricsEndpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the parameters of a file server client
type ClientConfig struct {
	Endpoint      string `validate:"required"`
	Transport     string `validate:"required,oneof=tcp unix"`
	TimeoutSecond int    `validate:"min=0"`
	MaxMessageMB  int    `validate:"min=1"`
}

// DefaultClientConfig returns the configuration used by the CLI client by default
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint:      DefaultClientEndpoint,
		Transport:     "tcp",
		TimeoutSecond: DefaultClientTimeout,
		MaxMessageMB:  DefaultMaxMessageMB,
	}
}

// Timeout returns the client timeout as a duration
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// MaxMessageBytes returns the response size limit in bytes
func (c *ClientConfig) MaxMessageBytes() int {
	return c.MaxMessageMB * 1024 * 1024
}

// Validate checks the configuration struct tags
func (c *ClientConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Transport", c.Transport)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Message", fmt.Sprintf("%d MB", c.MaxMessageMB))

	return sb.String()
}

// --------------------------------------------------------------------------
// Validation helper
// --------------------------------------------------------------------------

var validate = validator.New()

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("invalid configuration: %s failed on '%s' (value: %v)",
			e.Field(), e.Tag(), e.Value())
	}
	return err
}
