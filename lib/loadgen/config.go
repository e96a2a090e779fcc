package loadgen

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Operation is the request every simulated client sends once
type Operation string

const (
	OpUpload   Operation = "upload"
	OpDownload Operation = "download"
)

// DefaultPoolLabel names how the simulated clients run. The clients are goroutines
// sharing one process, which is what a thread based client pool measures.
const DefaultPoolLabel = "thread"

// Config is the configuration of a single load run
type Config struct {
	// Operation sent by every client
	Operation Operation `validate:"required,oneof=upload download"`
	// SizeMB is the size of the dummy file in MiB
	SizeMB int `validate:"gte=1"`
	// Clients is the number of concurrent clients
	Clients int `validate:"gte=1"`
	// LocalDir holds the dummy file that is uploaded
	LocalDir string `validate:"required"`
	// SeedDir, when set, is the store directory of the server under test. Downloads
	// seed the dummy file there directly instead of uploading it first.
	SeedDir string
	// PoolLabel is reported as the client pool of the run
	PoolLabel string
}

var validate = validator.New()

// Validate checks the config
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid load config: %w", err)
	}
	return nil
}

// DummyName returns the file name used for a dummy file of sizeMB MiB
func DummyName(sizeMB int) string {
	return fmt.Sprintf("dummy_%dMB.bin", sizeMB)
}

// ParseOperation parses an operation name, ignoring case
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpUpload, OpDownload:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q (expected upload or download)", s)
	}
}
