package procpool

import (
	"os"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("worker")

const (
	// WorkerIDEnv carries the slot id of a worker process
	WorkerIDEnv = "POOLFS_WORKER_ID"
	// CtrlFD is the descriptor number of the control socket inside a worker process
	CtrlFD = 3

	// msgConn tags a control message that carries a connection descriptor
	msgConn byte = 'C'
)

// Command describes how a worker process is started
type Command struct {
	// Path of the executable, usually os.Executable()
	Path string
	// Args passed to the executable (without argv[0])
	Args []string
	// Env of the worker, WorkerIDEnv is appended. nil means os.Environ()
	Env []string
}

// CtrlFile returns the control socket a worker process inherited from its parent
func CtrlFile() *os.File {
	return os.NewFile(uintptr(CtrlFD), "poolfs-ctrl")
}
