package main

import (
	"os"

	"github.com/flock-suite/flock-sdk/pkg/configuration"
)

func main() {
	conf := configuration.Use()
	if err := newRootCmd().Execute(); err != nil {
		conf.Logger().WithError(err).Error("command failed")
		os.Exit(1)
	}
}
