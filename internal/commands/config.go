package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/iqrachat/internal/config"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd(d *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: fmt.Sprintf(`Show or change iqrachat settings.

Settings live in config.json under the config directory
(~/.iqrachat, or $%s when set). $%s overrides the endpoint.`, config.EnvConfigDir, config.EnvEndpoint),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(d)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfig(d, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List settable keys",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(d.Stdout, strings.Join(config.Keys(), "\n"))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(d.Stdout, path)
			return nil
		},
	})

	return cmd
}

var configCmd = NewConfigCmd(deps)

func showConfig(d *Dependencies) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(d.Stdout, string(data))
	return nil
}

func setConfig(d *Dependencies, key, value string) error {
	cfg, err := config.ReadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintln(d.Stdout, successStyle.Render(fmt.Sprintf("✓ %s = %s", key, value)))
	return nil
}
