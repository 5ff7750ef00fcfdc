package sheet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrHandleRevoked is returned by a Handle that can no longer reach its
// artifact.
var ErrHandleRevoked = errors.New("handle revoked")

// Handle is a held, writable reference to a master artifact.
//
// Read returns the current bytes; an artifact that does not exist yet
// reads as empty. Write replaces the artifact contents with data.
type Handle interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// FileHandle is a Handle on a local file.
type FileHandle struct {
	Path string
}

// NewFileHandle returns a handle on path after checking that its directory
// exists and that path, if present, is a regular file.
func NewFileHandle(path string) (*FileHandle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir, err := os.Stat(filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("master directory: %w", err)
	}
	if !dir.IsDir() {
		return nil, fmt.Errorf("master directory %s is not a directory", filepath.Dir(abs))
	}
	if fi, err := os.Stat(abs); err == nil && !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("master %s is not a regular file", abs)
	}
	return &FileHandle{Path: abs}, nil
}

// Name returns the file path.
func (h *FileHandle) Name() string { return h.Path }

// Read returns the file contents, or nil if the file does not exist.
func (h *FileHandle) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(h.Path)
	if errors.Is(err, fs.ErrNotExist) {
		if _, dirErr := os.Stat(filepath.Dir(h.Path)); dirErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrHandleRevoked, dirErr)
		}
		return nil, nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %v", ErrHandleRevoked, err)
	}
	return data, err
}

// Write replaces the file with data. The bytes go to a temporary file in
// the same directory, which is then renamed over the master, so a reader
// or a concurrent writer never sees a partial artifact.
func (h *FileHandle) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(h.Path), "."+filepath.Base(h.Path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := writeAndSync(f, data); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, h.Path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
