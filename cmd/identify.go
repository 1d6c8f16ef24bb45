package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/panelvault/coverid/internal/catalog"
	"github.com/panelvault/coverid/internal/config"
	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/handlers"
	"github.com/panelvault/coverid/internal/identify"
	"github.com/panelvault/coverid/internal/models"
	"github.com/panelvault/coverid/internal/ocr"
	"github.com/panelvault/coverid/internal/tables"
)

type identifyOptions struct {
	textPath  string
	imagePath string
	catalog   string
	provider  string
	model     string
	asJSON    bool
	format    string
}

// identifyOutput is the --json shape.
type identifyOutput struct {
	Tokens  models.ExtractedTokens `json:"tokens"`
	Query   string                 `json:"query,omitempty"`
	Reason  string                 `json:"reason,omitempty"`
	Ranked  int                    `json:"ranked"`
	Message string                 `json:"message,omitempty"`
	decision.View
}

func newIdentifyCmd(cfg func() config.Config) *cobra.Command {
	var opts identifyOptions

	cmd := &cobra.Command{
		Use:   "identify [ocr text]",
		Short: "Identify the comic issue in one scan",
		Long: `Extracts title, issue, publisher and year from OCR text, searches a local
catalog dump, and prints the ranked choices.

Text comes from the arguments, a file (--text), stdin (--text -), or a cover
photo transcribed by the configured OCR provider (--image). Each argument is
one OCR line.`,
		Example: `  coverid identify --catalog ./catalog.jsonl "AMAZING SPIDER-MAN" "#300" "MARVEL" "1988" "CGC 9.8"
  pbpaste | coverid identify --catalog ./catalog.parquet --text - --json
  coverid identify --catalog ./catalog.json --image ./slab.jpg --provider gemini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentify(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), cfg(), opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.textPath, "text", "", "Read OCR text from a file, or - for stdin")
	cmd.Flags().StringVar(&opts.imagePath, "image", "", "Transcribe a cover or slab photo with the OCR provider")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "Catalog dump (.json, .jsonl or .parquet); defaults to the configured catalog")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "OCR provider for --image (ollama, gemini or openai)")
	cmd.Flags().StringVar(&opts.model, "model", "", "OCR model for --image")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Table format: text, csv or markdown")
	cmd.MarkFlagsMutuallyExclusive("text", "image")

	return cmd
}

func runIdentify(ctx context.Context, out io.Writer, in io.Reader, cfg config.Config, opts identifyOptions, args []string) error {
	format, err := tables.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	catalogPath := opts.catalog
	if catalogPath == "" {
		catalogPath = cfg.Catalog
	}
	if catalogPath == "" {
		return errors.New("no catalog: pass --catalog or set COVERID_CATALOG")
	}
	src, err := catalog.LoadFile(catalogPath)
	if err != nil {
		return err
	}

	raw, err := readScan(ctx, in, cfg, opts, args)
	if err != nil {
		return err
	}

	svc := identify.NewService(src, identify.WithPolicy(cfg.Decision), identify.WithLimit(cfg.CatalogLimit))
	session := decision.NewSession(svc.Policy())
	res, err := svc.IdentifyInto(ctx, session, raw)
	if err != nil {
		return err
	}

	result := identifyOutput{
		Tokens: res.Tokens,
		Query:  res.Query,
		Reason: string(res.Reason),
		Ranked: len(res.Ranked),
		View:   session.View(),
	}
	if result.State == decision.StateNoConfidentMatch {
		result.Message = handlers.MessageNoMatch
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printIdentify(out, result, format)
	return nil
}

func readScan(ctx context.Context, in io.Reader, cfg config.Config, opts identifyOptions, args []string) (string, error) {
	switch {
	case opts.imagePath != "":
		return ocr.FromConfig(cfg.OCR).ExtractFile(ctx, opts.imagePath, opts.provider, opts.model)
	case opts.textPath == "-":
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case opts.textPath != "":
		data, err := os.ReadFile(opts.textPath)
		if err != nil {
			return "", fmt.Errorf("failed to read OCR text: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, "\n"), nil
	default:
		return "", errors.New("no scan: pass OCR text, --text or --image")
	}
}

func printIdentify(out io.Writer, res identifyOutput, format tables.Format) {
	if format == tables.FormatText {
		fmt.Fprintf(out, "Query:  %s\n", orDash(res.Query))
		fmt.Fprintf(out, "State:  %s\n", res.State)
		if res.Message != "" {
			fmt.Fprintln(out, res.Message)
		}
		if res.AutoAcceptable {
			fmt.Fprintln(out, "Top match clears the auto-accept threshold.")
		}
	}
	if len(res.Choices) == 0 {
		return
	}

	t := tables.Table{
		Title:   "Choices",
		Headers: []string{"#", "ID", "Series", "Issue", "Year", "Publisher", "Confidence", "Label", "Note"},
		Aligns: []tables.Alignment{
			tables.AlignRight, tables.AlignRight, tables.AlignLeft, tables.AlignRight, tables.AlignRight,
			tables.AlignLeft, tables.AlignRight,
		},
	}
	for i, c := range res.Choices {
		year := "-"
		if c.Year > 0 {
			year = strconv.Itoa(c.Year)
		}
		t.Append(
			strconv.Itoa(i+1),
			strconv.FormatInt(c.ID, 10),
			c.Series,
			c.Issue,
			year,
			orDash(c.Publisher),
			strconv.Itoa(c.Confidence)+"%",
			c.Label,
			c.Note,
		)
	}
	fmt.Fprintln(out, t.Render(format))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
