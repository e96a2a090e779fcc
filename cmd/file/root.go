package file

import (
	"github.com/ValentinKolb/poolfs/cmd/util"
	"github.com/ValentinKolb/poolfs/rpc/client"
	"github.com/ValentinKolb/poolfs/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	fileClient *client.FileClient

	// FileCommands represents the file command group
	FileCommands = &cobra.Command{
		Use:               "file",
		Short:             "Perform file server operations",
		PersistentPreRunE: setupFileClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add connection flags to the file command
	util.SetupClientFlags(FileCommands)

	// Add subcommands
	FileCommands.AddCommand(listCmd)
	FileCommands.AddCommand(getCmd)
	FileCommands.AddCommand(uploadCmd)
	FileCommands.AddCommand(sendCmd)
	FileCommands.AddCommand(perfTestCmd)
}

// setupFileClient creates the client used by all subcommands
func setupFileClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := common.InitLoggers(viper.GetString("log-level"), ""); err != nil {
		return err
	}

	config := util.GetClientConfig()

	connector, err := util.GetClientConnector(config.Transport)
	if err != nil {
		return err
	}

	fileClient, err = client.NewFileClient(*config, connector)
	return err
}
