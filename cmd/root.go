package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/poolfs/cmd/bench"
	"github.com/ValentinKolb/poolfs/cmd/file"
	"github.com/ValentinKolb/poolfs/cmd/serve"
	"github.com/ValentinKolb/poolfs/cmd/util"
	"github.com/ValentinKolb/poolfs/cmd/worker"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "poolfs",
		Short: "file server with thread and process worker pools",
		Long: fmt.Sprintf(`poolfs (v%s)

A small file transfer server (LIST, GET, UPLOAD) whose connections are served
by a bounded pool of either threads or worker processes, together with a client
and the tooling to benchmark both concurrency models against each other.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of poolfs",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("poolfs v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(worker.WorkerCmd)
	RootCmd.AddCommand(file.FileCommands)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
