package commands

import (
	"fmt"

	"github.com/ghrcdaac/cumulus-audit/common"
)

type configOptions struct {
	config *common.Config

	ConfigFile string `short:"c" long:"config" env:"AUDIT_CONFIG_FILE" description:"Config file"`
}

func (c *configOptions) loadConfig() error {
	config := common.NewConfig()
	if err := config.LoadConfig(c.ConfigFile); err != nil {
		return fmt.Errorf("loading %q: %w", c.ConfigFile, err)
	}

	c.config = config
	return nil
}

func (c *configOptions) getConfig() *common.Config {
	return c.config
}
