package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diogo/iqrachat/internal/config"
	"github.com/diogo/iqrachat/internal/export"
)

var (
	exportOutputFlag   string
	exportPreviewFlag  bool
	exportMarkdownFlag bool
	exportTitleFlag    string
)

var exportCmd = &cobra.Command{
	Use:   "export <transcript.json>",
	Short: "Render a saved transcript as PDF",
	Long: `Render a JSON transcript (written with --transcript) as a PDF document.

Use "-" to read the transcript from stdin. Without -o the PDF is written to
the configured export directory with a timestamped name.

Examples:
  iqrachat export chat.json                Write to the export directory
  iqrachat export chat.json -o chat.pdf    Write to a chosen file
  iqrachat export chat.json --preview      Print the paginated text preview
  iqrachat export chat.json --markdown     Print the transcript as markdown`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context(), deps, args[0], exportOptions{
			output:   exportOutputFlag,
			preview:  exportPreviewFlag,
			markdown: exportMarkdownFlag,
			title:    exportTitleFlag,
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "PDF file to write")
	exportCmd.Flags().BoolVar(&exportPreviewFlag, "preview", false, "Print the page preview instead of writing a PDF")
	exportCmd.Flags().BoolVar(&exportMarkdownFlag, "markdown", false, "Print the transcript as markdown")
	exportCmd.Flags().StringVar(&exportTitleFlag, "title", "", "Document title (default from the transcript)")
	exportCmd.MarkFlagsMutuallyExclusive("preview", "markdown", "output")
}

type exportOptions struct {
	output   string
	preview  bool
	markdown bool
	title    string
}

func runExport(_ context.Context, d *Dependencies, src string, opts exportOptions) error {
	transcript, err := readTranscript(d, src)
	if err != nil {
		return err
	}

	if opts.markdown {
		_, err := io.WriteString(d.Stdout, export.Markdown(transcript.Turns))
		return err
	}

	layout := export.DefaultOptions()
	switch {
	case opts.title != "":
		layout.Title = opts.title
	case transcript.Title != "":
		layout.Title = transcript.Title
	}
	doc := export.Layout(transcript.Turns, layout)
	doc.Created = d.Now()

	if opts.preview {
		for _, page := range export.Preview(doc, nil) {
			fmt.Fprintln(d.Stdout, page)
		}
		return nil
	}

	path := opts.output
	if path == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		dir, err := config.GetExportDir(cfg)
		if err != nil {
			return err
		}
		path = filepath.Join(dir, export.FileName(doc.Created))
	}

	if err := writePDFFile(path, doc); err != nil {
		return err
	}
	fmt.Fprintln(d.Stderr, successStyle.Render(fmt.Sprintf("✓ Exported %d pages to %s", len(doc.Pages), path)))
	return nil
}

func readTranscript(d *Dependencies, src string) (*export.Transcript, error) {
	if src == "-" {
		return export.DecodeTranscript(d.Stdin)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	return export.DecodeTranscript(f)
}

func writePDFFile(path string, doc *export.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create PDF: %w", err)
	}
	if err := export.WritePDF(f, doc); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
