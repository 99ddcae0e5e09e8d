package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/rsabench/internal/config"
)

func newConfigCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print a profile template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !write {
				fmt.Fprint(cmd.OutOrStdout(), config.TemplateProfile)
				return nil
			}
			if _, err := os.Stat(config.DefaultFile); err == nil {
				return fmt.Errorf("%s already exists", config.DefaultFile)
			}
			if err := os.WriteFile(config.DefaultFile, []byte(config.TemplateProfile), 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.DefaultFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Write the template to "+config.DefaultFile+" instead of stdout")
	return cmd
}
