package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsphweid/chartdex/container"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <container> [dir]",
	Short: "Extracts raw samples from a .2dx/.s3p container",
	Long:  `Extracts raw samples from a .2dx/.s3p container into dir (default: <out>/<container id>).`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := filepath.Join(cfg.OutDir, container.ContainerID(args[0]))
		if len(args) == 2 {
			dir = args[1]
		}
		n, err := Extract(args[0], dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "extracted %d samples to %s\n", n, dir)
		return nil
	},
}

func Extract(path, dir string) (int, error) {
	entries, err := container.ExtractFile(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := os.WriteFile(filepath.Join(dir, e.Filename()), e.Payload, 0o644); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}
