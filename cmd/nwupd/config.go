package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nightwatch-dev/nwupd/internal/config"
	"github.com/nightwatch-dev/nwupd/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage nwupd configuration",
	Long: `Manage nwupd configuration settings.

Configuration is stored in nwupd.toml inside the game directory.

Examples:
  nwupd config get manifest_url
  nwupd config set download_retries 5`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		_, userCfg := loadUserConfig()

		value, ok := userCfg.Get(key)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]
		cfg, userCfg := loadUserConfig()

		if err := userCfg.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		if err := userCfg.Save(cfg.ConfigFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		fmt.Printf("%s = %s\n", key, value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Run: func(cmd *cobra.Command, args []string) {
		_, userCfg := loadUserConfig()

		keys := make([]string, 0)
		for key := range userconfig.AvailableKeys() {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			value, _ := userCfg.Get(key)
			fmt.Printf("%s = %s\n", key, value)
		}
	},
}

func loadUserConfig() (*config.Config, *userconfig.Config) {
	cfg, err := config.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitConfig)
	}
	userCfg, err := userconfig.Load(cfg.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		exitWithCode(ExitConfig)
	}
	return cfg, userCfg
}

func printAvailableKeys() {
	keys := userconfig.AvailableKeys()
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-26s %s\n", name, keys[name])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
