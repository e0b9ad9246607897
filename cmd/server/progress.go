package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newProgressCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Print the stored progress summary as JSON and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.svc.Progress())
		},
	}
}
