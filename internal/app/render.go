package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/roach88/actas/internal/acta"
)

// CommandRenderer renders by running an external program. The record is
// written to its stdin as JSON and the PDF is read from its stdout.
type CommandRenderer struct {
	Command []string
}

// Render runs the command for rec.
func (r CommandRenderer) Render(ctx context.Context, rec acta.Record) ([]byte, string, error) {
	if len(r.Command) == 0 {
		return nil, "", ErrNoRenderer
	}
	body, err := acta.Encode(rec)
	if err != nil {
		return nil, "", err
	}

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, "", fmt.Errorf("%s: %w: %s", r.Command[0], err, msg)
		}
		return nil, "", fmt.Errorf("%s: %w", r.Command[0], err)
	}
	if stdout.Len() == 0 {
		return nil, "", errors.New(r.Command[0] + ": renderer produced no output")
	}
	return stdout.Bytes(), PDFFilename(rec), nil
}
