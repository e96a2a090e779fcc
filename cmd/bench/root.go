package bench

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ValentinKolb/poolfs/cmd/util"
	"github.com/ValentinKolb/poolfs/lib/loadgen"
	"github.com/ValentinKolb/poolfs/rpc/client"
	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/ValentinKolb/poolfs/rpc/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// readyPoll is the interval in which a starting server is probed
	readyPoll = 100 * time.Millisecond
	// stopTimeout is how long a server gets to exit after SIGTERM
	stopTimeout = 5 * time.Second
)

// matrix is the set of experiments run by the bench command
type matrix struct {
	modes         []common.PoolType
	serverWorkers []int
	clients       []int
	sizes         []int
	ops           []loadgen.Operation
}

var (
	benchMatrix   = matrix{}
	benchCSV      = ""
	benchStoreDir = ""
	benchLocalDir = ""
	benchStartup  = 10 * time.Second

	// BenchCmd runs the full benchmark matrix
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Run the benchmark matrix against freshly started servers",
		Long: `For every pool backend and server worker count a new server is started as a child process.
Every combination of operation, file size and client count is run against it and written as one row to the CSV report.`,
		Args:    cobra.NoArgs,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	util.SetupClientFlags(BenchCmd)

	// add flags
	key := "modes"
	BenchCmd.Flags().String(key, "thread,process", util.WrapString("Comma-separated list of pool backends to benchmark"))

	key = "server-workers"
	BenchCmd.Flags().String(key, "1,5,50", util.WrapString("Comma-separated list of server worker pool sizes"))

	key = "clients"
	BenchCmd.Flags().String(key, "1,5,50", util.WrapString("Comma-separated list of concurrent client counts"))

	key = "sizes"
	BenchCmd.Flags().String(key, "10,50,100", util.WrapString("Comma-separated list of dummy file sizes (in MB)"))

	key = "ops"
	BenchCmd.Flags().String(key, "upload,download", util.WrapString("Comma-separated list of operations"))

	key = "csv"
	BenchCmd.Flags().String(key, "stress_test_results.csv", util.WrapString("Path of the CSV report, rows are appended"))

	key = "store-dir"
	BenchCmd.Flags().String(key, common.DefaultStoreDir, util.WrapString("Store directory of the started servers, download files are seeded here"))

	key = "local-dir"
	BenchCmd.Flags().String(key, ".", util.WrapString("Directory for the local dummy files that are uploaded"))

	key = "startup-timeout"
	BenchCmd.Flags().Int(key, 10, util.WrapString("Seconds to wait for a started server to accept connections"))
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	if benchMatrix.serverWorkers, err = parseInts(viper.GetString("server-workers")); err != nil {
		return fmt.Errorf("invalid server-workers: %w", err)
	}
	if benchMatrix.clients, err = parseInts(viper.GetString("clients")); err != nil {
		return fmt.Errorf("invalid clients: %w", err)
	}
	if benchMatrix.sizes, err = parseInts(viper.GetString("sizes")); err != nil {
		return fmt.Errorf("invalid sizes: %w", err)
	}

	benchMatrix.modes = nil
	for _, m := range splitList(viper.GetString("modes")) {
		mode := common.PoolType(m)
		if mode != common.PoolTypeThread && mode != common.PoolTypeProcess {
			return fmt.Errorf("invalid mode %s (expected thread or process)", m)
		}
		benchMatrix.modes = append(benchMatrix.modes, mode)
	}

	benchMatrix.ops = nil
	for _, o := range splitList(viper.GetString("ops")) {
		op, err := loadgen.ParseOperation(o)
		if err != nil {
			return err
		}
		benchMatrix.ops = append(benchMatrix.ops, op)
	}

	benchCSV = viper.GetString("csv")
	benchStoreDir = viper.GetString("store-dir")
	benchLocalDir = viper.GetString("local-dir")
	benchStartup = time.Duration(viper.GetInt("startup-timeout")) * time.Second

	return common.InitLoggers(viper.GetString("log-level"), "")
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	config := util.GetClientConfig()
	connector, err := util.GetClientConnector(config.Transport)
	if err != nil {
		return err
	}
	c, err := client.NewFileClient(*config, connector)
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot locate own executable: %w", err)
	}

	report, err := loadgen.OpenCSVReport(benchCSV)
	if err != nil {
		return err
	}
	defer report.Close()

	total := len(benchMatrix.modes) * len(benchMatrix.serverWorkers) * len(benchMatrix.ops) * len(benchMatrix.sizes) * len(benchMatrix.clients)
	fmt.Printf("running %d experiments, results go to %s\n", total, benchCSV)
	fmt.Println(config.String())

	done := 0
	for _, mode := range benchMatrix.modes {
		for _, workers := range benchMatrix.serverWorkers {
			fmt.Printf("\n=== %s pool with %d workers ===\n", mode, workers)

			srv, err := startServer(ctx, exe, config, mode, workers, connector)
			if err != nil {
				return err
			}

			for _, op := range benchMatrix.ops {
				for _, size := range benchMatrix.sizes {
					for _, clients := range benchMatrix.clients {
						done++
						res, err := loadgen.Run(ctx, c, loadgen.Config{
							Operation: op,
							SizeMB:    size,
							Clients:   clients,
							LocalDir:  benchLocalDir,
							SeedDir:   benchStoreDir,
						})
						if err != nil {
							srv.stop()
							return err
						}

						fmt.Printf("[%d/%d] %-8s %4d MB %3d clients: %.3fs per client, %.2f MB/s, %d ok, %d failed\n",
							done, total, op, size, clients, res.TotalTime, res.Throughput/(1<<20), res.ServerSuccess, res.ServerFail)

						if err := report.Record(loadgen.Row{
							Mode:          string(mode),
							ServerWorkers: workers,
							ServerSuccess: -1,
							ServerFail:    -1,
							Result:        res,
						}); err != nil {
							srv.stop()
							return err
						}
					}
				}
			}

			srv.stop()

			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}

	fmt.Printf("\nall experiments done, results saved to %s\n", benchCSV)
	return nil
}

// serverProcess is a file server started as a child process
type serverProcess struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

// startServer starts "serve" and waits until its endpoint accepts connections
func startServer(ctx context.Context, exe string, config *common.ClientConfig, mode common.PoolType, workers int, connector transport.IClientConnector) (*serverProcess, error) {
	cmd := exec.Command(exe, "serve",
		"--endpoint", config.Endpoint,
		"--transport", config.Transport,
		"--pool", string(mode),
		"--workers", strconv.Itoa(workers),
		"--store-dir", benchStoreDir,
		"--log-level", "warn",
	)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("cannot start server: %w", err)
	}

	srv := &serverProcess{cmd: cmd, exited: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(srv.exited)
	}()

	deadline := time.Now().Add(benchStartup)
	for {
		dialCtx, cancel := context.WithTimeout(ctx, readyPoll)
		conn, err := connector.Connect(dialCtx, config.Endpoint)
		cancel()
		if err == nil {
			_ = conn.Close()
			return srv, nil
		}

		select {
		case <-srv.exited:
			return nil, fmt.Errorf("server exited during startup: %s", cmd.ProcessState)
		case <-ctx.Done():
			srv.stop()
			return nil, ctx.Err()
		case <-time.After(readyPoll):
		}

		if time.Now().After(deadline) {
			srv.stop()
			return nil, fmt.Errorf("server did not accept connections on %s within %s", config.Endpoint, benchStartup)
		}
	}
}

// stop sends SIGTERM and kills the server if it does not exit in time
func (s *serverProcess) stop() {
	_ = s.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-s.exited:
	case <-time.After(stopTimeout):
		_ = s.cmd.Process.Kill()
		<-s.exited
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("%d must be at least 1", n)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}
