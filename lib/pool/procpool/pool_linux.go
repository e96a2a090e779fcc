//go:build linux

package procpool

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ValentinKolb/poolfs/lib/pool"
	"golang.org/x/sys/unix"
)

// stopTimeout is how long Close waits for a worker process before killing it
const stopTimeout = 5 * time.Second

// workerFactory implements the IWorkerFactory interface for worker processes
type workerFactory struct {
	cmd Command
}

// procWorker is the parent side of one worker process
type procWorker struct {
	id     int
	cmd    *exec.Cmd
	ctrl   *net.UnixConn
	exited chan struct{}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see pool.IWorkerFactory and pool.IWorker)
// --------------------------------------------------------------------------

func (f *workerFactory) GetName() string {
	return "process"
}

func (f *workerFactory) NewWorker(id int) (pool.IWorker, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socketpair: %w", err)
	}
	parentEnd := os.NewFile(uintptr(fds[0]), "poolfs-ctrl-parent")
	childEnd := os.NewFile(uintptr(fds[1]), "poolfs-ctrl-child")
	// the child holds its own copy after Start
	defer childEnd.Close()

	fc, err := net.FileConn(parentEnd)
	_ = parentEnd.Close()
	if err != nil {
		return nil, fmt.Errorf("control socket: %w", err)
	}
	ctrl, ok := fc.(*net.UnixConn)
	if !ok {
		_ = fc.Close()
		return nil, fmt.Errorf("control socket has unexpected type %T", fc)
	}

	env := f.cmd.Env
	if env == nil {
		env = os.Environ()
	}

	cmd := exec.Command(f.cmd.Path, f.cmd.Args...)
	cmd.Env = append(append([]string{}, env...), fmt.Sprintf("%s=%d", WorkerIDEnv, id))
	cmd.ExtraFiles = []*os.File{childEnd} // becomes CtrlFD in the child
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGKILL}

	if err := cmd.Start(); err != nil {
		_ = ctrl.Close()
		return nil, fmt.Errorf("start worker process: %w", err)
	}

	w := &procWorker{
		id:     id,
		cmd:    cmd,
		ctrl:   ctrl,
		exited: make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(w.exited)
	}()

	Logger.Debugf("started worker process %d (pid %d)", id, cmd.Process.Pid)
	return w, nil
}

// Run passes the descriptor of conn to the worker process and waits for its outcome.
// The parent closes its original connection right after duplicating the descriptor
// and the duplicate right after sending it, so only the child holds the socket.
func (w *procWorker) Run(conn net.Conn) (pool.Outcome, error) {
	fc, ok := conn.(interface{ File() (*os.File, error) })
	if !ok {
		_ = conn.Close()
		Logger.Errorf("connection of type %T cannot be passed to a worker process", conn)
		return pool.OutcomeAbandoned, nil
	}

	dup, err := fc.File()
	_ = conn.Close()
	if err != nil {
		Logger.Errorf("cannot duplicate connection descriptor: %v", err)
		return pool.OutcomeAbandoned, nil
	}

	rights := unix.UnixRights(int(dup.Fd()))
	_, _, err = w.ctrl.WriteMsgUnix([]byte{msgConn}, rights, nil)
	_ = dup.Close()
	if err != nil {
		return pool.OutcomeAbandoned, fmt.Errorf("worker process %d: pass connection: %w", w.id, err)
	}

	ack := make([]byte, 1)
	if _, err := io.ReadFull(w.ctrl, ack); err != nil {
		return pool.OutcomeAbandoned, fmt.Errorf("worker process %d (pid %d) died: %w", w.id, w.cmd.Process.Pid, err)
	}
	return pool.Outcome(ack[0]), nil
}

// Close shuts the control socket (the worker exits on EOF) and waits for the process
func (w *procWorker) Close() error {
	err := w.ctrl.Close()

	select {
	case <-w.exited:
	case <-time.After(stopTimeout):
		Logger.Warningf("worker process %d did not stop, killing it", w.id)
		_ = w.cmd.Process.Kill()
		<-w.exited
	}
	return err
}

// --------------------------------------------------------------------------
// Pool Factory Method
// --------------------------------------------------------------------------

// NewProcessPool starts opts.Size worker processes using cmd.
// The started program must call RunWorker with the inherited control socket (see CtrlFile).
func NewProcessPool(cmd Command, opts pool.Options) (pool.IWorkerPool, error) {
	if cmd.Path == "" {
		return nil, fmt.Errorf("process pool needs the path of the worker executable")
	}
	// the dispatchers only wait on the control sockets
	opts.LockOSThread = false
	return pool.NewBasePool(&workerFactory{cmd: cmd}, opts)
}
