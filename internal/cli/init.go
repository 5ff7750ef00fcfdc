package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/actas/internal/config"
	"github.com/roach88/actas/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Name      string
	Email     string
	Timezone  string
	ExportDir string
}

// InitResult is the JSON output of init.
type InitResult struct {
	Config   string `json:"config"`
	Database string `json:"database"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write settings and create the record store",
		Long: `Write the settings file and create the record store.

Existing settings are loaded first, so init can be re-run to change the
executive or time zone without losing other settings.

Example:
  actas init --name "Ana Pérez" --email ana@example.com --timezone America/Bogota`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "executive name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "executive email")
	cmd.Flags().StringVar(&opts.Timezone, "timezone", "", "IANA time zone for local visit times")
	cmd.Flags().StringVar(&opts.ExportDir, "export-dir", "", "directory for exports and archives")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	path, err := configPath(opts.RootOptions)
	if err != nil {
		return fail(out, "locate settings", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fail(out, "load settings", err)
	}

	if opts.Name != "" {
		cfg.Executive.Name = opts.Name
	}
	if opts.Email != "" {
		cfg.Executive.Email = opts.Email
	}
	if opts.Timezone != "" {
		cfg.Timezone = opts.Timezone
	}
	if opts.ExportDir != "" {
		cfg.ExportDir = opts.ExportDir
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if err := cfg.Validate(); err != nil {
		return fail(out, "invalid settings", err)
	}
	if err := config.Save(path, cfg); err != nil {
		return fail(out, "save settings", err)
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return fail(out, "create record store", err)
	}
	if err := st.Close(); err != nil {
		return fail(out, "create record store", err)
	}

	if out.JSON() {
		return out.Success(InitResult{Config: path, Database: cfg.Database})
	}
	out.Printf("%s Settings written to %s", okMark(), path)
	out.Printf("%s Record store ready at %s", okMark(), cfg.Database)
	if cfg.Executive.Name == "" {
		out.Printf("%s No executive set; use --name before capturing", warnMark())
	}
	return nil
}
