package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "takeoutctl",
		Short:   "Reorganize a Google Photos Takeout export into a deduplicated library",
		Version: version,
	}

	var cfgFile string
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.takeoutctl.yaml)")

	v := viper.New()
	cobra.OnInitialize(func() {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			v.SetConfigName(".takeoutctl")
			v.AddConfigPath("$HOME")
		}
		v.SetEnvPrefix("TAKEOUTCTL")
		v.AutomaticEnv()
		_ = v.ReadInConfig() // absence of a config file is not an error
	})

	root.AddCommand(newRunCmd(v))
	return root
}

func bindError(name string, err error) error {
	if err != nil {
		return fmt.Errorf("config: binding flag %q: %w", name, err)
	}
	return nil
}
