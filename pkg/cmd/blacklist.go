package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"phishjudge/pkg/config"
	"phishjudge/pkg/store"
)

func blacklistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Inspect or edit the local domain blacklist file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print every blacklisted domain",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				bl, err := openBlacklist()
				if err != nil {
					return err
				}
				for _, d := range bl.List() {
					fmt.Fprintln(cmd.OutOrStdout(), d)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <domain>...",
			Short: "Add domains to the blacklist",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				bl, err := openBlacklist()
				if err != nil {
					return err
				}
				for _, d := range args {
					if err := bl.Add(d); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d domains listed\n", bl.Len())
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <domain>...",
			Short: "Remove domains from the blacklist",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				bl, err := openBlacklist()
				if err != nil {
					return err
				}
				for _, d := range args {
					removed, err := bl.Remove(d)
					if err != nil {
						return err
					}
					if !removed {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s is not listed\n", d)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d domains listed\n", bl.Len())
				return nil
			},
		},
	)
	return cmd
}

func openBlacklist() (*store.Blacklist, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if cfg.Data.BlacklistFile == "" {
		return nil, fmt.Errorf("data.blacklist_file is not set")
	}
	return store.NewBlacklist(cfg.Data.BlacklistFile, nil), nil
}
