package worker

import (
	"fmt"
	"os"
	"os/signal"

	cmdUtil "github.com/ValentinKolb/poolfs/cmd/util"
	"github.com/ValentinKolb/poolfs/lib/pool/procpool"
	"github.com/ValentinKolb/poolfs/lib/store/dirstore"
	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/ValentinKolb/poolfs/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	workerCmdConfig = common.DefaultServerConfig()

	// WorkerCmd is started by the process pool of "serve --pool process", it is not meant to be run by hand
	WorkerCmd = &cobra.Command{
		Use:     "worker",
		Short:   "Run a process pool worker",
		Hidden:  true,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "store-dir"
	WorkerCmd.Flags().String(key, common.DefaultStoreDir, cmdUtil.WrapString("The directory holding the served files"))

	key = "timeout"
	WorkerCmd.Flags().Int64(key, common.DefaultServerTimeout, cmdUtil.WrapString("Idle timeout in seconds while reading a request"))

	key = "max-message-mb"
	WorkerCmd.Flags().Int(key, common.DefaultMaxMessageMB, cmdUtil.WrapString("The largest request accepted (in MB)"))

	key = "log-level"
	WorkerCmd.Flags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	workerCmdConfig.StoreDir = viper.GetString("store-dir")
	workerCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	workerCmdConfig.MaxMessageMB = viper.GetInt("max-message-mb")
	workerCmdConfig.LogLevel = viper.GetString("log-level")

	return workerCmdConfig.Validate()
}

// run serves the connections handed over by the parent until the control socket closes
func run(_ *cobra.Command, _ []string) error {
	id := os.Getenv(procpool.WorkerIDEnv)
	if id == "" {
		return fmt.Errorf("%s is not set, the worker command is started by the process pool", procpool.WorkerIDEnv)
	}

	if err := common.InitLoggers(workerCmdConfig.LogLevel, fmt.Sprintf("[worker %s] ", id)); err != nil {
		return err
	}

	// Ctrl-C reaches the whole process group, the parent decides when workers stop
	signal.Ignore(os.Interrupt)

	st, err := dirstore.NewDirStore(workerCmdConfig.StoreDir)
	if err != nil {
		return err
	}

	return procpool.RunWorker(procpool.CtrlFile(), server.NewConnHandler(st, workerCmdConfig))
}
