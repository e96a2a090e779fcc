package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	cmdUtil "github.com/ValentinKolb/poolfs/cmd/util"
	"github.com/ValentinKolb/poolfs/lib/pool"
	"github.com/ValentinKolb/poolfs/lib/pool/procpool"
	"github.com/ValentinKolb/poolfs/lib/pool/threadpool"
	"github.com/ValentinKolb/poolfs/lib/store/dirstore"
	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/ValentinKolb/poolfs/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start the file server",
		Long: `Start the file server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is POOLFS_<flag> (e.g. POOLFS_STORE_DIR=/srv/files).
MAX_WORKERS is accepted as an alias for POOLFS_WORKERS.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, common.DefaultEndpoint, cmdUtil.WrapString("The address on which the server will listen (host:port for tcp, a socket path for unix)"))

	key = "pool"
	ServeCmd.PersistentFlags().String(key, string(common.PoolTypeThread), cmdUtil.WrapString("The worker pool backend (thread, process)"))

	key = "workers"
	ServeCmd.PersistentFlags().Int(key, common.DefaultPoolSize, cmdUtil.WrapString("The number of workers in the pool, at most this many connections are served at once"))
	_ = viper.BindEnv(key, "POOLFS_WORKERS", "MAX_WORKERS")

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, common.DefaultServerTimeout, cmdUtil.WrapString("Idle timeout in seconds while a worker reads a request (0 disables it)"))

	key = "store-dir"
	ServeCmd.PersistentFlags().String(key, common.DefaultStoreDir, cmdUtil.WrapString("The directory holding the served files, it is created if missing"))

	key = "max-message-mb"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxMessageMB, cmdUtil.WrapString("The largest request accepted (in MB, the base64 payload included)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("If set, prometheus metrics are served on http://<metrics-endpoint>/metrics (e.g. localhost:9100)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval of accepted connections (in seconds, only for tcp, 0 keeps the system default)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Transport = viper.GetString("transport")
	serveCmdConfig.Pool = common.PoolType(viper.GetString("pool"))
	serveCmdConfig.PoolSize = viper.GetInt("workers")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.StoreDir = viper.GetString("store-dir")
	serveCmdConfig.MaxMessageMB = viper.GetInt("max-message-mb")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.TCPKeepAliveSec = viper.GetInt("tcp-keepalive")

	return serveCmdConfig.Validate()
}

// run starts the file server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	config := *serveCmdConfig

	if err := common.InitLoggers(config.LogLevel, ""); err != nil {
		return err
	}

	connector, err := cmdUtil.GetServerConnector(config.Transport)
	if err != nil {
		return err
	}

	// the parent creates the store so that a bad directory fails before any worker starts
	st, err := dirstore.NewDirStore(config.StoreDir)
	if err != nil {
		return err
	}

	fmt.Println(config.String())

	m := server.NewMetrics(string(config.Pool))
	opts := pool.Options{
		Size:   config.PoolSize,
		OnDone: m.ObserveConnection,
	}

	var p pool.IWorkerPool
	switch config.Pool {
	case common.PoolTypeThread:
		p, err = threadpool.NewThreadPool(server.NewConnHandler(st, config), opts)
	case common.PoolTypeProcess:
		p, err = newProcessPool(config, opts)
	default:
		err = fmt.Errorf("invalid pool %s", config.Pool)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewFileServer(config, connector, p, m).Serve(ctx)
}

// newProcessPool starts the workers as "worker" sub commands of this executable
func newProcessPool(config common.ServerConfig, opts pool.Options) (pool.IWorkerPool, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("cannot locate own executable: %w", err)
	}

	return procpool.NewProcessPool(procpool.Command{
		Path: exe,
		Args: []string{
			"worker",
			"--store-dir", config.StoreDir,
			"--timeout", strconv.FormatInt(config.TimeoutSecond, 10),
			"--max-message-mb", strconv.Itoa(config.MaxMessageMB),
			"--log-level", config.LogLevel,
		},
	}, opts)
}
