package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Update the master spreadsheet",
		Long: `Reconcile every sealed acta into the master spreadsheet.

With a registered master ("actas master set"), missing rows are appended
to it in place. Otherwise, or when the master cannot be read or written,
a complete master is regenerated into the export directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				res, err := s.svc.Export(ctx)
				if err != nil {
					return fail(s.out, "export", err)
				}
				v := exportView(res)
				if s.out.JSON() {
					return s.out.Success(v)
				}
				printExport(s.out, v)
				return nil
			})
		},
	}
}

// MasterView is the JSON output of the master commands.
type MasterView struct {
	Path string `json:"path,omitempty"`
	Set  bool   `json:"set"`
}

// NewMasterCommand creates the master command group.
func NewMasterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "master",
		Short: "Manage the registered master spreadsheet",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <path>",
		Short: "Register the master spreadsheet for in-place updates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				path, err := s.svc.SetMaster(ctx, args[0])
				if err != nil {
					return fail(s.out, "master set", err)
				}
				if s.out.JSON() {
					return s.out.Success(MasterView{Path: path, Set: true})
				}
				s.out.Printf("%s Master registered: %s", okMark(), path)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "forget",
		Short: "Stop updating the registered master",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if err := s.svc.ForgetMaster(ctx); err != nil {
					return fail(s.out, "master forget", err)
				}
				if s.out.JSON() {
					return s.out.Success(MasterView{})
				}
				s.out.Printf("%s Master forgotten; exports will regenerate", okMark())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the registered master",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				path, ok, err := s.svc.Master(ctx)
				if err != nil {
					return fail(s.out, "master show", err)
				}
				if s.out.JSON() {
					return s.out.Success(MasterView{Path: path, Set: ok})
				}
				if !ok {
					s.out.Printf("No master registered")
					return nil
				}
				s.out.Printf("%s", path)
				return nil
			})
		},
	})

	return cmd
}
