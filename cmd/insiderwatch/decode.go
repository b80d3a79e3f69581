package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/insiderwatch/internal/form4"
	"github.com/seenimoa/insiderwatch/internal/report"
	"github.com/seenimoa/insiderwatch/internal/store"
	"github.com/seenimoa/insiderwatch/pkg/models"
)

// --- Decode Command ---

var decodeCmd = &cobra.Command{
	Use:   "decode [file|url]",
	Short: "Decode one Form 4 submission and print it",
	Long: `decode reads a full submission text file from disk, or fetches a
filing location (directory or accession URL) from EDGAR, and prints the
decoded filing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]

		var raw string
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			var err error
			if raw, err = newClient().FetchEnvelope(cmd.Context(), src); err != nil {
				return err
			}
		} else {
			b, err := os.ReadFile(src)
			if err != nil {
				return err
			}
			raw = string(b)
		}

		filing, err := form4.Decode(raw)
		if err != nil {
			return fmt.Errorf("decode %s: %w", src, err)
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			sink, err := store.Open(cfg.Store.Driver, cfg.Store.Path, os.Stderr)
			if err != nil {
				return err
			}
			defer sink.Close()
			if err := sink.Save(cmd.Context(), filing); err != nil {
				return err
			}
		}

		format, _ := cmd.Flags().GetString("format")
		return printFiling(cmd, filing, format)
	},
}

func init() {
	decodeCmd.Flags().String("format", "json", "output format: json, text or html")
	decodeCmd.Flags().Bool("save", false, "also store the filing in the configured store")
}

// --- Show Command ---

var showCmd = &cobra.Command{
	Use:   "show [accession]",
	Short: "Print a stored filing, or list a reporter's filings with --reporter",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Driver != "sqlite" {
			return fmt.Errorf("show needs the sqlite store, configured driver is %q", cfg.Store.Driver)
		}
		db, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		if cik, _ := cmd.Flags().GetString("reporter"); cik != "" {
			ids, err := db.FilingsByReporter(cmd.Context(), cik)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		}

		if len(args) == 0 {
			n, err := db.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d filings in %s\n", n, db.Path())
			return nil
		}

		filing, err := db.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return printFiling(cmd, filing, format)
	},
}

func init() {
	showCmd.Flags().String("format", "text", "output format: json, text or html")
	showCmd.Flags().String("reporter", "", "list filings naming this reporter CIK")
}

func printFiling(cmd *cobra.Command, f *models.Filing, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case "text":
		s, err := report.GenerateText(f)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, s)
		return err
	case "html":
		s, err := report.GenerateHTML(f)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, s)
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
