package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/iqrachat/internal/attachment"
	"github.com/diogo/iqrachat/internal/config"
	"github.com/diogo/iqrachat/internal/logging"
	"github.com/diogo/iqrachat/internal/models"
	"github.com/diogo/iqrachat/internal/render"
	"github.com/diogo/iqrachat/internal/tui"
)

var chatAttachFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session.

Keys:
  enter         send the message
  alt+enter     insert a newline
  ctrl+n        start a new chat
  ctrl+e        preview the transcript as PDF (d to save, y to copy)
  ctrl+c / esc  quit

Type '/attach <path>' to attach a file to the next message, '/detach' to drop it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), deps, chatAttachFlag)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatAttachFlag, "attach", "a", "", "File to attach to the first message")
}

func runChat(ctx context.Context, d *Dependencies, attachPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file
	logPath, err := config.GetLogPath()
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: logPath})
	if err != nil {
		return err
	}
	defer closer.Close()

	exportDir, err := config.GetExportDir(cfg)
	if err != nil {
		return err
	}

	var att *models.Attachment
	if attachPath != "" {
		att, err = attachment.FromPath(attachPath)
		if err != nil {
			return err
		}
	}

	querier, err := d.NewQuerier(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	if c, ok := querier.(interface{ Close() }); ok {
		defer c.Close()
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Msg("chat started")

	return d.RunTUI(ctx, querier, tui.Options{
		Render:          render.FromConfig(cfg.Markdown),
		ExportDir:       exportDir,
		ScrollThreshold: cfg.ScrollThresholdLines,
		Attachment:      att,
		Logger:          logger,
		Clipboard:       d.Clipboard,
		Now:             d.Now,
	})
}
