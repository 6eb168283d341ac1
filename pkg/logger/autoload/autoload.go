// Package autoload configures the global logger from LOG_* environment
// variables as a side effect of being imported. It reads the environment
// directly so importing it never touches command-line flags.
package autoload

import (
	"github.com/kelseyhightower/envconfig"

	logx "github.com/tanpawarit/restaurant-concierge/pkg/logger"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		logx.Init()
		return
	}
	logx.Init(conf)
}
