package commands

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"github.com/diogo/iqrachat/internal/api"
	"github.com/diogo/iqrachat/internal/config"
	"github.com/diogo/iqrachat/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewQuerier builds the query service client from the resolved config.
	NewQuerier func(cfg config.Config, logger zerolog.Logger) (api.Querier, error)

	// RunTUI starts the interactive chat.
	RunTUI func(ctx context.Context, q api.Querier, opts tui.Options) error

	Clipboard func(string) error
	IsTTY     func() bool
	Now       func() time.Time

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewQuerier: newClient,
		RunTUI:     tui.Run,
		Clipboard:  clipboard.WriteAll,
		IsTTY:      isStdoutTTY,
		Now:        time.Now,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

func newClient(cfg config.Config, logger zerolog.Logger) (api.Querier, error) {
	client, err := api.NewClient(cfg.Endpoint,
		api.WithTimeout(cfg.Timeout()),
		api.WithResponsePath(cfg.ResponsePath),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
