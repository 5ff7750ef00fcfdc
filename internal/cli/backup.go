package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/actas/internal/app"
)

// BackupView is the JSON output of backup.
type BackupView struct {
	Path      string `json:"path"`
	Actas     int    `json:"totalActas"`
	Timestamp int64  `json:"timestamp"`
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the store and write a dated archive",
		Long: `Snapshot every acta into the recovery slot and write the same snapshot
as backup_actas_YYYY-MM-DD.json in the export directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				res, err := s.svc.Backup(ctx)
				if err != nil {
					return fail(s.out, "backup", err)
				}
				v := BackupView{Path: res.Path, Actas: res.Envelope.TotalActas, Timestamp: res.Envelope.Timestamp}
				if s.out.JSON() {
					return s.out.Success(v)
				}
				s.out.Printf("%s Backed up %d actas to %s", okMark(), v.Actas, v.Path)
				return nil
			})
		},
	}
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [archive]",
		Short: "Replace the store with a backup",
		Long: `Replace every stored acta with the contents of a backup archive, or of
the recovery snapshot when no archive is given. An empty backup is refused
before anything is deleted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				var n int
				var err error
				if len(args) == 1 {
					n, err = s.svc.Restore(ctx, args[0])
				} else {
					n, err = s.svc.RestoreLatest(ctx)
				}
				if err != nil {
					return fail(s.out, "restore", err)
				}
				if s.out.JSON() {
					return s.out.Success(map[string]int{"restored": n})
				}
				s.out.Printf("%s Restored %d actas", okMark(), n)
				return nil
			})
		},
	}
}

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	Once bool
	Tick time.Duration
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the automatic backup",
		Long: `Run the automatic backup in the foreground.

Every tick the backup is checked against backup.interval_hours; when due,
the store is snapshotted and the master is updated. With --once a single
check is made and the command exits.

Example:
  actas schedule
  actas schedule --once`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Once, "once", false, "check once and exit")
	cmd.Flags().DurationVar(&opts.Tick, "tick", app.DefaultTick, "how often to check whether a backup is due")

	return cmd
}

func runSchedule(opts *ScheduleOptions, cmd *cobra.Command) error {
	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		if opts.Once {
			res, err := s.svc.AutoBackup(ctx)
			if err != nil {
				return fail(s.out, "auto backup", err)
			}
			if s.out.JSON() {
				return s.out.Success(autoBackupView(res))
			}
			printAutoBackup(s.out, res)
			return nil
		}

		if !s.cfg.Backup.Auto {
			s.out.Printf("%s backup.auto is off; nothing to schedule", warnMark())
			return nil
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sched := app.NewScheduler(s.svc, opts.Tick, func(res app.AutoBackupResult) {
			printAutoBackup(s.out, res)
		})
		go func() {
			select {
			case sig := <-sigChan:
				slog.Info("received signal, shutting down", "signal", sig)
				_ = sched.Stop()
			case <-ctx.Done():
			}
		}()

		s.out.Printf("Automatic backup every %s. Press Ctrl-C to stop.", s.cfg.Backup.Interval())
		if err := sched.Start(ctx); err != nil && err != context.Canceled {
			return WrapExitError(ExitFailure, "scheduler error", err)
		}
		return nil
	})
}

// AutoBackupView is the JSON output of schedule --once.
type AutoBackupView struct {
	Ran    bool        `json:"ran"`
	Reason string      `json:"reason,omitempty"`
	Actas  int         `json:"totalActas"`
	Notify bool        `json:"notify"`
	Export *ExportView `json:"export,omitempty"`
}

func autoBackupView(res app.AutoBackupResult) AutoBackupView {
	v := AutoBackupView{Ran: res.Ran, Reason: res.Reason, Actas: res.Actas, Notify: res.Notify}
	if res.Export != nil {
		e := exportView(*res.Export)
		v.Export = &e
	}
	return v
}

func printAutoBackup(f *OutputFormatter, res app.AutoBackupResult) {
	if !res.Ran {
		f.Printf("Backup skipped: %s", res.Reason)
		return
	}
	f.Printf("%s %s automatic backup of %d actas", okMark(), time.Now().Format("2006-01-02 15:04"), res.Actas)
	if res.Export != nil {
		printExport(f, exportView(*res.Export))
	} else {
		f.Printf("%s Master not updated this run", warnMark())
	}
}
