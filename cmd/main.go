package main

import (
	"context"
	"errors"
	"os"

	"github.com/awesamdood/ptb/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config, err := shared.ResolveConfig(defaultConfigPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", defaultConfigPath, "error", err)
		config = shared.DefaultConfig()
		config.ApplyEnv()
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: defaultConfigPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := newApp(runner)
	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			logger.Error(verr.Error())
			runner.Close()
			os.Exit(2)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
