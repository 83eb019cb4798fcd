package cirag

import (
	"errors"
	"fmt"
	"os"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/cirag/internal/appconfig"
)

func (a *app) configCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "config",
		Short: "Group commands for the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Long:  "Show config settings after defaults, the config file and flags have been merged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			appconfig.ShowConfig(cmd.OutOrStdout(), a.cfg.ConfigPath, &a.cfg)
			if a.cfg.Debug {
				fmt.Fprintln(cmd.OutOrStdout())
				_, _ = pp.Fprintln(cmd.OutOrStdout(), a.cfg)
			}
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file populated with the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}
			if err := appconfig.Save(path, appconfig.Defaults()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	group.AddCommand(show, initCmd)
	return group
}
