package app

import (
	"context"
	"time"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/backup"
	"github.com/roach88/actas/internal/sheet"
	"github.com/roach88/actas/internal/store"
)

// Durable meta keys.
const (
	MetaMasterPath       = "master.path"
	MetaBackupLastRun    = "backup.last_run"
	MetaBackupLastNotice = "backup.last_notice"
)

// Master lease defaults.
const (
	DefaultLeaseTTL   = 5 * time.Minute
	DefaultLeaseRetry = 250 * time.Millisecond
)

// Env supplies the current time and a description of the capturing
// environment.
type Env interface {
	Now() time.Time
	ClientEnvironment() string
}

// SystemEnv is the Env of the running process.
type SystemEnv struct {
	Agent string
}

// Now returns time.Now.
func (SystemEnv) Now() time.Time { return time.Now() }

// ClientEnvironment returns Agent.
func (e SystemEnv) ClientEnvironment() string { return e.Agent }

// Renderer produces the PDF for a sealed record.
type Renderer interface {
	Render(ctx context.Context, rec acta.Record) (blob []byte, filename string, err error)
}

// Options configures a Service.
type Options struct {
	// Executive is used for submissions that do not name one.
	Executive acta.Executive

	// Location is the zone for local visit timestamps. Nil means time.Local.
	Location *time.Location

	// ExportDir receives regenerated masters, rendered PDFs and backup
	// archives.
	ExportDir string

	// AutoSync reconciles the master after every capture.
	AutoSync bool

	// BackupInterval is the minimum time between scheduled backups.
	BackupInterval time.Duration

	// NoticeWindow throttles the scheduled backup notice.
	NoticeWindow time.Duration

	// LeaseTTL bounds how long a crashed exporter can keep other
	// processes off the master. It must outlast a slow export.
	LeaseTTL time.Duration

	// LeaseRetry is how often a waiting Export polls the master lease.
	LeaseRetry time.Duration

	Sheet sheet.Options
}

// Service is the session context: every operation runs against its store
// and synchronizer.
type Service struct {
	store    *store.Store
	backups  *backup.Manager
	sync     *sheet.Synchronizer
	env      Env
	renderer Renderer
	opts     Options
}

// New returns a Service over st. renderer may be nil.
func New(st *store.Store, env Env, renderer Renderer, opts Options) *Service {
	if env == nil {
		env = SystemEnv{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.BackupInterval <= 0 {
		opts.BackupInterval = 24 * time.Hour
	}
	if opts.NoticeWindow <= 0 {
		opts.NoticeWindow = 24 * time.Hour
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = DefaultLeaseTTL
	}
	if opts.LeaseRetry <= 0 {
		opts.LeaseRetry = DefaultLeaseRetry
	}
	return &Service{
		store:    st,
		backups:  backup.NewManager(st, env.Now),
		sync:     sheet.New(opts.Sheet),
		env:      env,
		renderer: renderer,
		opts:     opts,
	}
}

// Executive returns the default executive.
func (s *Service) Executive() acta.Executive {
	return s.opts.Executive
}
