package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/actas/internal/acta"
)

// AttachResult is the JSON output of attach.
type AttachResult struct {
	ID   string `json:"id"`
	PDF  string `json:"pdf_filename"`
	Path string `json:"path,omitempty"`
}

// NewAttachCommand creates the attach command.
func NewAttachCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> [pdf-filename]",
		Short: "Render or record the PDF for a sealed acta",
		Long: `Attach the PDF artifact to a sealed acta.

With a filename, the name is recorded as-is. Without one, the configured
renderer produces the PDF into the export directory and its name is
recorded. The name is set once and is not part of the content hash.

Example:
  actas attach AX-20240101150000000
  actas attach AX-20240101150000000 AX-20240101150000000.pdf`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				res := AttachResult{ID: args[0]}
				if len(args) == 2 {
					rec, err := s.svc.AttachArtifact(ctx, args[0], args[1])
					if err != nil {
						return fail(s.out, "attach", err)
					}
					res.PDF = rec.Artifacts.PDFFilename
				} else {
					r, err := s.svc.Render(ctx, args[0])
					if err != nil {
						return fail(s.out, "render", err)
					}
					res.PDF, res.Path = r.Record.Artifacts.PDFFilename, r.Path
				}

				if s.out.JSON() {
					return s.out.Success(res)
				}
				if res.Path != "" {
					s.out.Printf("%s PDF written to %s", okMark(), res.Path)
				}
				s.out.Printf("%s Acta %s: %s attached", okMark(), res.ID, res.PDF)
				return nil
			})
		},
	}
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored actas, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				records, err := s.svc.History(ctx)
				if err != nil {
					return fail(s.out, "history", err)
				}
				if opts.Limit > 0 && len(records) > opts.Limit {
					records = records[:opts.Limit]
				}

				rows := make([]RecordSummary, len(records))
				for i, rec := range records {
					rows[i] = summarize(rec)
				}
				if s.out.JSON() {
					return s.out.Success(rows)
				}
				if len(rows) == 0 {
					s.out.Printf("No actas stored")
					return nil
				}
				printSummaries(s.out, rows)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show at most n actas")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one stored acta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				rec, err := s.svc.Get(ctx, args[0])
				if err != nil {
					return fail(s.out, "show", err)
				}
				if s.out.JSON() {
					return s.out.Success(rec)
				}
				return printRecord(s.out, rec)
			})
		},
	}
}

func printRecord(f *OutputFormatter, rec acta.Record) error {
	// The signature image is long and unreadable as text.
	if rec.Signed() {
		rec.Signature.PNGData = fmt.Sprintf("[png, %d bytes]", len(rec.Signature.PNGData))
	}
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one stored acta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if err := s.svc.Delete(ctx, args[0]); err != nil {
					return fail(s.out, "delete", err)
				}
				if s.out.JSON() {
					return s.out.Success(map[string]string{"deleted": args[0]})
				}
				s.out.Printf("%s Acta %s deleted", okMark(), args[0])
				return nil
			})
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored acta",
		Long: `Delete every stored acta. The recovery snapshot and signature draft
are kept, so "actas restore" can undo a clear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				out := newFormatter(rootOpts, cmd)
				_ = out.Error(ErrCodeGeneric, "refusing to clear without --yes", nil)
				return NewExitError(ExitCommandError, "refusing to clear without --yes")
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if err := s.svc.Clear(ctx); err != nil {
					return fail(s.out, "clear", err)
				}
				if s.out.JSON() {
					return s.out.Success(map[string]bool{"cleared": true})
				}
				s.out.Printf("%s All actas deleted", okMark())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

// NewDedupeCommand creates the dedupe command.
func NewDedupeCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Remove duplicate actas",
		Long: `Remove actas that repeat the id, or the contract, tax id and local
time, of an earlier acta. The earliest capture is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				report, err := s.svc.Duplicates(ctx)
				if !dryRun && err == nil {
					report, err = s.svc.PurgeDuplicates(ctx)
				}
				if err != nil {
					return fail(s.out, "dedupe", err)
				}

				v := dedupeView(report, dryRun)
				if s.out.JSON() {
					return s.out.Success(v)
				}
				if v.Removed == 0 {
					s.out.Printf("%s No duplicates among %d actas", okMark(), v.Total)
					return nil
				}
				for _, g := range v.Groups {
					s.out.Printf("  keep %s, drop %v", g.Keep, g.Dropped)
				}
				verb := "Removed"
				if dryRun {
					verb = "Would remove"
				}
				s.out.Printf("%s %s %d duplicate(s); %d actas remain", okMark(), verb, v.Removed, v.Unique)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report duplicates without removing them")
	return cmd
}
