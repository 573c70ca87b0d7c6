package packages

import (
	"context"
	"strings"

	cerr "github.com/cockroachdb/errors"

	"github.com/ksyq12/wpstack/internal/executor"
)

// Systemd controls services with systemctl.
type Systemd struct {
	exec executor.CommandExecutor
}

// NewSystemd creates a systemd controller.
func NewSystemd(exec executor.CommandExecutor) *Systemd {
	return &Systemd{exec: exec}
}

// EnableNow enables unit at boot and starts it.
func (s *Systemd) EnableNow(ctx context.Context, unit string) error {
	if _, err := s.exec.Execute(ctx, "systemctl", "enable", "--now", unit); err != nil {
		return cerr.Wrapf(err, "failed to enable %s", unit)
	}
	return nil
}

// Reload asks unit to reload its configuration.
func (s *Systemd) Reload(ctx context.Context, unit string) error {
	if _, err := s.exec.Execute(ctx, "systemctl", "reload", unit); err != nil {
		return cerr.Wrapf(err, "failed to reload %s", unit)
	}
	return nil
}

// IsActive reports whether unit is running.
func (s *Systemd) IsActive(ctx context.Context, unit string) bool {
	out, err := s.exec.Execute(ctx, "systemctl", "is-active", unit)
	return err == nil && strings.TrimSpace(string(out)) == "active"
}
