// ABOUTME: devices command
// ABOUTME: Lists audio backends and playback devices
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio/output"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio backends and output devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Backends:")
		for _, name := range output.Backends() {
			fmt.Fprintf(out, "  %s\n", name)
		}

		devices, err := output.Devices()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Devices:")
		for _, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %s\n", marker, d.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
