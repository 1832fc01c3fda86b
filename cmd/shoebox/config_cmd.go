package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Halewood/shoebox/internal/cli"
	"github.com/Halewood/shoebox/internal/config"
	"github.com/Halewood/shoebox/internal/service"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configRootCmd())
	cmd.AddCommand(configModeCmd())

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(_ *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings()
			if err != nil {
				return err
			}
			fmt.Printf("root:             %s\n", settings.Root)
			fmt.Printf("import mode:      %s\n", settings.Mode)
			fmt.Printf("download timeout: %s\n", settings.DownloadTimeout)
			fmt.Printf("config dir:       %s\n", config.ConfigDir())
			return nil
		},
	}
}

func configRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "root <path>",
		Short: "Change the storage root directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := config.ExpandPath(args[0])
			abs, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("invalid root path %q: %w", args[0], err)
			}
			if err := os.MkdirAll(abs, 0o750); err != nil {
				return fmt.Errorf("failed to create root %s: %w", abs, err)
			}

			viper.Set("storage.root", abs)
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Storage root set to %s", abs)))
			return nil
		},
	}
}

func configModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode <copy|move>",
		Short: "Set the default import mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			mode := service.ParseImportMode(args[0])
			if mode.String() != args[0] {
				return fmt.Errorf("invalid import mode %q (want copy or move)", args[0])
			}

			viper.Set("import.mode", args[0])
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Import mode set to %s", args[0])))
			return nil
		},
	}
}

// writeConfig persists the current viper state to the config file,
// creating it on first use.
func writeConfig() error {
	if cfgFile != "" {
		if err := viper.WriteConfigAs(cfgFile); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		return nil
	}

	dir := config.ConfigDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
