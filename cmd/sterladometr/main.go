package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	_ "time/tzdata"

	corecmd "github.com/anakalachikova-cmd/sterladometr-bot/core/cmd"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/app"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("read .env: %v", err)
	}

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			c, ok := cfg.(*config.Config)
			if !ok {
				return nil, errors.New("unexpected config type")
			}
			return app.Bootstrap(c)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
