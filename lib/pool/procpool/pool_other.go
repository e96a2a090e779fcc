//go:build !linux

package procpool

import (
	"errors"
	"os"

	"github.com/ValentinKolb/poolfs/lib/pool"
)

var errUnsupported = errors.New("the process pool is only supported on linux")

// NewProcessPool is not available on this platform
func NewProcessPool(_ Command, _ pool.Options) (pool.IWorkerPool, error) {
	return nil, errUnsupported
}

// RunWorker is not available on this platform
func RunWorker(_ *os.File, _ pool.ConnHandler) error {
	return errUnsupported
}
