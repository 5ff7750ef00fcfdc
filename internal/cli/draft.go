package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/actas/internal/intake"
)

// NewDraftCommand creates the draft command group.
func NewDraftCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Keep an in-progress signature between sessions",
		Long: `Save, show or discard the signature draft. The draft is cleared when an
acta is captured and is left alone by clear and restore.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save <png-file|data-url>",
		Short: "Save a signature image as the draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				img, err := intake.ReadSignature(args[0], ".")
				if err != nil {
					return fail(s.out, "draft save", err)
				}
				if err := s.svc.SaveDraft(ctx, img); err != nil {
					return fail(s.out, "draft save", err)
				}
				if s.out.JSON() {
					return s.out.Success(map[string]bool{"saved": true})
				}
				s.out.Printf("%s Signature draft saved", okMark())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved signature draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				d, err := s.svc.LoadDraft(ctx)
				if err != nil {
					return fail(s.out, "draft show", err)
				}
				if s.out.JSON() {
					return s.out.Success(d)
				}
				s.out.Printf("Saved %s", d.SavedAt.Local().Format("2006-01-02 15:04:05"))
				s.out.Printf("%s", d.PNGData)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Discard the signature draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if err := s.svc.ClearDraft(ctx); err != nil {
					return fail(s.out, "draft clear", err)
				}
				if s.out.JSON() {
					return s.out.Success(map[string]bool{"cleared": true})
				}
				s.out.Printf("%s Signature draft discarded", okMark())
				return nil
			})
		},
	})

	return cmd
}
