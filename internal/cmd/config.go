package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Iron-Ham/actionqueue/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configFs backs config init and log reads. Tests swap in a memory filesystem.
var configFs = afero.NewOsFs()

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View actionqueue configuration",
	Long: `View actionqueue configuration.

Without arguments, displays the current configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration as YAML",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/actionqueue/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	force, _ := cmd.Flags().GetBool("force")

	exists, err := afero.Exists(configFs, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	data, err := config.Default().YAML()
	if err != nil {
		return fmt.Errorf("failed to render default configuration: %w", err)
	}
	if err := configFs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(configFs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if exists, _ := afero.Exists(configFs, path); !exists {
		fmt.Fprintln(cmd.ErrOrStderr(), "(file does not exist yet)")
	}
	return nil
}
