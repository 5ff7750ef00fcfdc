package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/config"
	"github.com/roach88/actas/internal/intake"
)

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	*RootOptions
	Force  bool
	NoSync bool
}

// CaptureResult is the JSON output of capture.
type CaptureResult struct {
	Record acta.Record `json:"acta"`
	Export *ExportView `json:"export,omitempty"`
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "capture <submission>",
		Short: "Seal and store a visit submission",
		Long: `Read a visit submission (YAML or JSON), seal it and store it.

The submission is checked against the submission schema. A record with the
same contract, tax id and local time is refused unless --force is given.
With master.auto_sync enabled the master spreadsheet is updated afterwards.

Example:
  actas capture visita.yaml
  actas capture --force --format json visita.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "store even if a similar acta exists")
	cmd.Flags().BoolVar(&opts.NoSync, "no-sync", false, "skip the master update for this capture")

	return cmd
}

func runCapture(opts *CaptureOptions, path string, cmd *cobra.Command) error {
	var overrides []func(*config.Config)
	if opts.NoSync {
		overrides = append(overrides, func(c *config.Config) { c.Master.AutoSync = false })
	}
	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		out := s.out

		sub, err := intake.Load(path)
		if err != nil {
			return fail(out, "read submission", err)
		}
		rec, err := sub.Record(s.svc.Executive())
		if err != nil {
			return fail(out, "read submission", err)
		}

		res, err := s.svc.Capture(ctx, rec, opts.Force)
		if err != nil {
			return fail(out, "capture", err)
		}

		var exp *ExportView
		if res.Export != nil {
			v := exportView(*res.Export)
			exp = &v
		}
		if out.JSON() {
			return out.Success(CaptureResult{Record: res.Record, Export: exp})
		}

		out.Printf("%s Acta %s sealed", okMark(), res.Record.ID)
		out.Printf("  hash:    %s", res.Record.Seal.ContentHash)
		out.Printf("  payload: %s", res.Record.Seal.VerificationPayload)
		if exp != nil {
			printExport(out, *exp)
		}
		return nil
	}, overrides...)
}
