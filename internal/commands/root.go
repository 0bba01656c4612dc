// Package commands provides CLI commands for iqrachat.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/iqrachat/internal/config"
	"github.com/diogo/iqrachat/internal/tui"
)

var (
	// Global flags
	endpointFlag string
	logLevelFlag string

	// One-shot query flags
	outputFlag     string
	fileFlag       string
	attachFlag     string
	copyFlag       bool
	transcriptFlag string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"

	deps = NewDependencies()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "iqrachat [prompt]",
	Short: "Terminal client for an AI query service",
	Long: `iqrachat sends prompts to an AI query service and shows the replies.
Run it with a prompt for a single answer, or start an interactive chat.

Examples:
  iqrachat chat                           Start interactive chat
  iqrachat "What is Go?"                  Send a single query
  iqrachat -f prompt.md                   Read prompt from file
  cat prompt.md | iqrachat                Read prompt from stdin
  iqrachat "Summarize" --attach notes.txt Send a file with the prompt
  iqrachat "Hello" -o response.md         Save response to file
  iqrachat export chat.json -o chat.pdf   Render a saved transcript as PDF`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(deps.Stdout, "iqrachat %s (built %s)\n", Version, BuildTime)
			return nil
		}

		opts := queryOptions{
			output:     outputFlag,
			attach:     attachFlag,
			copy:       copyFlag,
			transcript: transcriptFlag,
		}

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(cmd.Context(), deps, string(data), opts)
		}

		if stdinPiped(deps.Stdin) {
			data, err := io.ReadAll(deps.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(cmd.Context(), deps, string(data), opts)
		}

		if len(args) > 0 {
			return runQuery(cmd.Context(), deps, args[0], opts)
		}

		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(deps.Stderr, tui.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "",
		fmt.Sprintf("Query service URL (overrides config and $%s)", config.EnvEndpoint))
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().StringVarP(&attachFlag, "attach", "a", "", "File to send with the prompt (.txt, .pdf, .doc, .docx)")
	rootCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the response to the clipboard")
	rootCmd.Flags().StringVar(&transcriptFlag, "transcript", "", "Write the exchange as a JSON transcript")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the user config and applies command-line overrides
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}

	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// stdinPiped reports whether r is a non-terminal stdin with input to read
func stdinPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
