package main

import (
	"log"

	"github.com/m3rciful/otpbot/bot"
	corecmd "github.com/m3rciful/otpbot/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig:        bot.LoadConfig,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("otpbot: %v", err)
	}
}
