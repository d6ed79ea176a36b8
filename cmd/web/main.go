// Command web runs the TB drug-resistance surveillance dashboard server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/app"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	return application.Run(context.Background())
}
