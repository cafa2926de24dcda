package shared

import (
	"os"

	"github.com/spf13/cobra"
)

const DefaultConfigPath = "config.yaml"

func AddConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", DefaultConfigPath, "path of the yaml config, defaults are used when the default path does not exist")
}

// LoadConfigFromFlags loads the file named by --config. A missing file is an error only when the flag was set.
func LoadConfigFromFlags(cmd *cobra.Command) (*Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	return LoadConfig(path)
}
