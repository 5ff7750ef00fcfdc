package cli

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/app"
	"github.com/roach88/actas/internal/config"
	"github.com/roach88/actas/internal/sheet"
	"github.com/roach88/actas/internal/store"
)

// session is one command's view of settings, store and service.
type session struct {
	cfg   config.Config
	store *store.Store
	svc   *app.Service
	out   *OutputFormatter
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func configPath(opts *RootOptions) (string, error) {
	if opts.Config != "" {
		return opts.Config, nil
	}
	return config.DefaultPath()
}

func loadConfig(opts *RootOptions) (config.Config, error) {
	path, err := configPath(opts)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// openSession loads settings, applies overrides and opens the record
// store. Failures are reported through the formatter and returned as an
// ExitError.
func openSession(opts *RootOptions, cmd *cobra.Command, overrides ...func(*config.Config)) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, fail(out, "load settings", err)
	}
	for _, o := range overrides {
		o(&cfg)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fail(out, "load settings", err)
	}

	out.VerboseLog("opening record store %s", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fail(out, "open record store", err)
	}

	var renderer app.Renderer
	if len(cfg.Renderer) > 0 {
		renderer = app.CommandRenderer{Command: cfg.Renderer}
	}

	env := app.SystemEnv{Agent: cfg.ClientEnvironment}
	if env.Agent == "" {
		env.Agent = fmt.Sprintf("actas (%s/%s)", runtime.GOOS, runtime.GOARCH)
	}

	svc := app.New(st, env, renderer, app.Options{
		Executive:      acta.Executive{Name: cfg.Executive.Name, Email: cfg.Executive.Email},
		Location:       loc,
		ExportDir:      cfg.ExportDir,
		AutoSync:       cfg.Master.AutoSync,
		BackupInterval: cfg.Backup.Interval(),
		NoticeWindow:   cfg.Backup.NoticeWindow,
		Sheet: sheet.Options{
			IOTimeout: cfg.Master.IOTimeout,
			Filename:  cfg.Master.Filename,
		},
	})

	return &session{cfg: cfg, store: st, svc: svc, out: out}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing record store", "error", err)
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withSession runs fn against an open session.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) error, overrides ...func(*config.Config)) error {
	s, err := openSession(opts, cmd, overrides...)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(commandContext(cmd), s)
}
