package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/browser"
	"github.com/jonathan/job-applier/internal/extract"
	"github.com/jonathan/job-applier/internal/observability"
	"github.com/jonathan/job-applier/internal/types"
)

var extractCommand = &cobra.Command{
	Use:   "extract <html-file|url>",
	Short: "Print the form fields found on a page",
	Long: `Extracts field descriptors from a saved HTML page or a live URL. Live URLs are opened in
Chrome; use --remote-url to reuse a signed-in browser. Useful when adding a board table.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtractCmd,
}

var (
	extractBoard      string
	extractBoardsFile string
	extractJSON       bool
	extractRemoteURL  string
	extractHeadless   bool
)

func init() {
	extractCommand.Flags().StringVar(&extractBoard, "board", "", "Board whose table configures the extractor (detected from URLs)")
	extractCommand.Flags().StringVar(&extractBoardsFile, "boards-file", "", "YAML board tables layered over the built-in boards")
	extractCommand.Flags().BoolVar(&extractJSON, "json", false, "Print descriptors as JSON")
	extractCommand.Flags().StringVar(&extractRemoteURL, "remote-url", "", "Attach to a running Chrome's DevTools websocket")
	extractCommand.Flags().BoolVar(&extractHeadless, "headless", true, "Run Chrome headless for live URLs")

	rootCmd.AddCommand(extractCommand)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// extractorFor picks the board's extractor, else the default one.
func extractorFor(registry *boards.Registry, board, target string) (*extract.Extractor, error) {
	if board != "" {
		b, err := registry.Get(board)
		if err != nil {
			return nil, err
		}
		return extract.ForBoard(b, nil)
	}
	if isURL(target) {
		if b, ok := registry.Detect(target); ok {
			return extract.ForBoard(b, nil)
		}
	}
	return extract.New(extract.Options{})
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	target := args[0]
	registry, err := boards.Load(extractBoardsFile)
	if err != nil {
		return err
	}
	ex, err := extractorFor(registry, extractBoard, target)
	if err != nil {
		return err
	}

	var fields []types.FieldDescriptor
	if isURL(target) {
		ctx := context.Background()
		opts := browser.DefaultSessionOptions()
		opts.Headless = extractHeadless
		opts.RemoteURL = extractRemoteURL
		driver, err := browser.NewChromeDriver(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer func() { _ = driver.Close() }()

		if err := driver.Navigate(ctx, target); err != nil {
			return err
		}
		fields, err = ex.FromDriver(ctx, driver)
		if err != nil {
			return err
		}
	} else {
		data, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("failed to read page: %w", err)
		}
		fields, err = ex.Extract(string(data))
		if err != nil {
			return err
		}
	}

	if extractJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if fields == nil {
			fields = []types.FieldDescriptor{}
		}
		return enc.Encode(fields)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintDescriptors(fields)
	return nil
}
