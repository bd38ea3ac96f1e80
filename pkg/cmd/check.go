package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Classify a single URL and print the verdict as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			verdict, err := a.detector.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(verdict.Response(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode verdict: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
