package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-to-json/config"
	"github.com/dhcgn/mbox-to-json/mbox"
)

func newCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count [mbox file]",
		Short: "Print the number of messages in the mbox file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd, args, pathInput(cmd, args))
			if err != nil {
				return err
			}

			count, err := mbox.CountMessages(cfg.MboxPath)
			if err != nil {
				return fmt.Errorf("mbox.CountMessages: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}
