package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/vancomm/aplenty-server/internal/workflow"
)

type App struct {
	Port        string `env:"APP_PORT" envDefault:"8080"`
	BasePath    string `env:"APP_BASE_PATH"`
	Development bool   `env:"DEVELOPMENT"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`

	// initial box for evaluations that do not specify one
	BoxLow     int    `env:"BOX_LOW" envDefault:"1"`
	BoxHigh    int    `env:"BOX_HIGH" envDefault:"4001"`
	EntryRule  string `env:"ENTRY_RULE" envDefault:"in"`
	MaxBodyLen int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

func NewApp() (*App, error) {
	cfg, err := env.ParseAs[App]()
	if err != nil {
		return nil, fmt.Errorf("unable to parse app config: %w", err)
	}
	if err := workflow.CheckBounds(cfg.BoxLow, cfg.BoxHigh); err != nil {
		return nil, fmt.Errorf("invalid BOX_LOW/BOX_HIGH: %w", err)
	}
	return &cfg, nil
}

func (c App) Addr() string {
	return ":" + c.Port
}

func (c App) DefaultBox() workflow.Box {
	return workflow.FullBox(c.BoxLow, c.BoxHigh)
}
