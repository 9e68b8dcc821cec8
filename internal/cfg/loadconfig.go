package cfg

import (
	"fmt"
	"os"

	"playlistdl/internal/utils/logging"

	"github.com/spf13/viper"
)

// loadConfigFile merges a config file into viper. Flags set on the command line still win.
func loadConfigFile(file string) error {
	if file == "" {
		return nil
	}

	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("failed check for config file path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config file %q is a directory, should be a file", file)
	}

	viper.SetConfigFile(file)
	if err := viper.MergeInConfig(); err != nil {
		return fmt.Errorf("failed loading config file %q: %w", file, err)
	}
	logging.D(1, "Loaded config file %q", file)
	return nil
}
