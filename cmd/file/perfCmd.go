package file

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/poolfs/cmd/util"
	"github.com/ValentinKolb/poolfs/lib/loadgen"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:   "perf",
		Short: "Stress test a running file server",
		Long: `Starts a number of concurrent clients that each upload or download a dummy file once and prints the aggregated result as JSON.
STRESS_OP, FILE_SIZE_MB and CLIENT_POOL are accepted as aliases for the op, size-mb and clients flags.`,
		Args:    cobra.NoArgs,
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfConfig        = loadgen.Config{}
	perfCSV           = ""
	perfServerMode    = ""
	perfServerWorkers = 0
)

func init() {
	// add flags
	key := "op"
	perfTestCmd.Flags().String(key, string(loadgen.OpDownload), util.WrapString("The operation every client performs (upload, download)"))
	_ = viper.BindEnv(key, "POOLFS_OP", "STRESS_OP")

	key = "size-mb"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("The size of the dummy file (in MB)"))
	_ = viper.BindEnv(key, "POOLFS_SIZE_MB", "FILE_SIZE_MB")

	key = "clients"
	perfTestCmd.Flags().Int(key, 1, util.WrapString("The number of concurrent clients"))
	_ = viper.BindEnv(key, "POOLFS_CLIENTS", "CLIENT_POOL")

	key = "local-dir"
	perfTestCmd.Flags().String(key, ".", util.WrapString("Directory for the local dummy file that is uploaded"))

	key = "seed-dir"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional store directory of the server. Downloads create the dummy file there instead of uploading it first"))

	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path of a CSV file the result is appended to"))

	key = "server-mode"
	perfTestCmd.Flags().String(key, "unknown", util.WrapString("Concurrency model of the server, only used as a label in the CSV"))

	key = "server-workers"
	perfTestCmd.Flags().Int(key, 0, util.WrapString("Worker pool size of the server, only used as a label in the CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	op, err := loadgen.ParseOperation(viper.GetString("op"))
	if err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfConfig = loadgen.Config{
		Operation: op,
		SizeMB:    viper.GetInt("size-mb"),
		Clients:   viper.GetInt("clients"),
		LocalDir:  viper.GetString("local-dir"),
		SeedDir:   viper.GetString("seed-dir"),
	}
	perfCSV = viper.GetString("csv")
	perfServerMode = viper.GetString("server-mode")
	perfServerWorkers = viper.GetInt("server-workers")

	return perfConfig.Validate()
}

func runPerf(cmd *cobra.Command, _ []string) error {
	res, err := loadgen.Run(cmd.Context(), fileClient, perfConfig)
	if err != nil {
		return err
	}

	if err := loadgen.WriteJSON(os.Stdout, res); err != nil {
		return err
	}

	if perfCSV == "" {
		return nil
	}

	report, err := loadgen.OpenCSVReport(perfCSV)
	if err != nil {
		return err
	}
	if err := report.Record(loadgen.Row{
		Mode:          perfServerMode,
		ServerWorkers: perfServerWorkers,
		ServerSuccess: -1,
		ServerFail:    -1,
		Result:        res,
	}); err != nil {
		_ = report.Close()
		return err
	}
	if err := report.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "result appended to %s\n", perfCSV)
	return nil
}
