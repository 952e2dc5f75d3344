package config

import (
	"os"

	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Loads crossmigrate.yaml from the working directory. A missing file
	// yields a nil config so that init, new and help still work.
	func() (*Config, error) {
		if _, err := os.Stat(consts.DefaultConfigFile); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(consts.DefaultConfigFile)
	},
))
