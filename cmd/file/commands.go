package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists the files on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := fileClient.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no files")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [name]",
		Short: "Downloads a file (saved as dl_<name> unless --out is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = "dl_" + filepath.Base(name)
			}

			data, err := fileClient.Get(cmd.Context(), name)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("cannot save %s: %w", out, err)
			}
			fmt.Printf("downloaded %s (%d bytes) to %s\n", name, len(data), out)
			return nil
		},
	}
	uploadCmd = &cobra.Command{
		Use:   "upload [path]",
		Short: "Uploads a local file, stored on the server under its base name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", path, err)
			}

			name := filepath.Base(path)
			if err := fileClient.Upload(cmd.Context(), name, data); err != nil {
				return err
			}
			fmt.Printf("uploaded %s (%d bytes)\n", name, len(data))
			return nil
		},
	}
	sendCmd = &cobra.Command{
		Use:   "send [command...]",
		Short: "Sends a raw command line and prints the response as received",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := fileClient.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			raw, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		},
	}
)

func init() {
	getCmd.Flags().String("out", "", "Path to save the downloaded file to")
}
