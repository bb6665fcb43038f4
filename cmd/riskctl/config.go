package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the risk configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration if the file does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, statErr := os.Stat(app.RiskConfigPath)
		store, err := loadStore()
		if err != nil {
			return err
		}
		if statErr == nil {
			fmt.Printf("%s already exists\n", store.Path())
			return nil
		}
		fmt.Printf("wrote default configuration to %s\n", store.Path())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(store.Get())
	},
}

var configSetBaseCmd = &cobra.Command{
	Use:   "set-base <base> <min> <max>",
	Short: "Set the base, minimum and maximum risk percentages",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var values [3]float64
		for i, a := range args {
			if _, err := fmt.Sscanf(a, "%g", &values[i]); err != nil {
				return fmt.Errorf("invalid percentage %q", a)
			}
		}

		store, err := loadStore()
		if err != nil {
			return err
		}
		if err := store.SetBaseRisk(values[0], values[1], values[2]); err != nil {
			return err
		}
		fmt.Printf("base risk %.4f%% (min %.4f%%, max %.4f%%) saved to %s\n", values[0], values[1], values[2], store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetBaseCmd)
}
