package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/actas/internal/seal"
)

// VerifyView is the JSON output of verify.
type VerifyView struct {
	Checked int `json:"checked"`
	// SealVersion names the hashing rules the check was made under.
	SealVersion string            `json:"sealVersion"`
	Failures    map[string]string `json:"failures,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	var payload string
	cmd := &cobra.Command{
		Use:   "verify [id]",
		Short: "Recompute and check acta seals",
		Long: `Recompute the content hash of stored actas and compare it with their
seal. With an id only that acta is checked; with --payload the acta named
by a verification payload is checked against it. Any mismatch exits 1.

Example:
  actas verify
  actas verify AX-20240101150000000
  actas verify --payload '{"hash":"...","id":"AX-20240101150000000"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				switch {
				case payload != "":
					rec, err := s.svc.VerifyPayload(ctx, payload)
					if err != nil {
						return fail(s.out, "verify", err)
					}
					return verified(s.out, rec.ID)
				case len(args) == 1:
					if err := s.svc.Verify(ctx, args[0]); err != nil {
						return fail(s.out, "verify", err)
					}
					return verified(s.out, args[0])
				}

				report, err := s.svc.VerifyAll(ctx)
				if err != nil {
					return fail(s.out, "verify", err)
				}
				v := VerifyView{Checked: report.Checked, SealVersion: seal.Version}
				if len(report.Failures) > 0 {
					v.Failures = make(map[string]string, len(report.Failures))
					for id, ferr := range report.Failures {
						v.Failures[id] = ferr.Error()
					}
				}

				if s.out.JSON() {
					if err := s.out.Success(v); err != nil {
						return err
					}
				} else {
					ids := make([]string, 0, len(v.Failures))
					for id := range v.Failures {
						ids = append(ids, id)
					}
					sort.Strings(ids)
					for _, id := range ids {
						s.out.Printf("%s %s", failMark(), v.Failures[id])
					}
					s.out.Printf("%s %d of %d actas verified", okMark(), v.Checked-len(v.Failures), v.Checked)
				}
				if len(v.Failures) > 0 {
					return NewExitError(ExitFailure, fmt.Sprintf("%d acta(s) failed verification", len(v.Failures)))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&payload, "payload", "", "verification payload to check")
	return cmd
}

func verified(f *OutputFormatter, id string) error {
	if f.JSON() {
		return f.Success(map[string]string{"verified": id})
	}
	f.Printf("%s Acta %s verified", okMark(), id)
	return nil
}
