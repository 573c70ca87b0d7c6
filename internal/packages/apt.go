// Package packages installs Debian packages and manages systemd units
// through the command executor.
package packages

import (
	"context"
	"strings"

	cerr "github.com/cockroachdb/errors"

	"github.com/ksyq12/wpstack/internal/executor"
)

// Env is the environment apt-get needs to run without prompting.
var Env = []string{"DEBIAN_FRONTEND=noninteractive", "NEEDRESTART_MODE=a"}

// Manager installs packages on the host.
type Manager interface {
	Update(ctx context.Context) error
	Install(ctx context.Context, pkgs ...string) error
	IsInstalled(ctx context.Context, pkg string) (bool, error)
}

// Apt implements Manager with apt-get and dpkg-query.
type Apt struct {
	exec executor.CommandExecutor
}

// NewApt creates an apt manager. The executor should carry Env.
func NewApt(exec executor.CommandExecutor) *Apt {
	return &Apt{exec: exec}
}

// Update refreshes the package index.
func (a *Apt) Update(ctx context.Context) error {
	if _, err := a.exec.Execute(ctx, "apt-get", "update", "-q"); err != nil {
		return cerr.Wrap(err, "failed to update package index")
	}
	return nil
}

// Install installs pkgs, keeping existing configuration files.
func (a *Apt) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{
		"install", "-y", "-q",
		"-o", "Dpkg::Options::=--force-confdef",
		"-o", "Dpkg::Options::=--force-confold",
	}, pkgs...)
	if _, err := a.exec.Execute(ctx, "apt-get", args...); err != nil {
		return cerr.Wrapf(err, "failed to install %s", strings.Join(pkgs, " "))
	}
	return nil
}

// IsInstalled reports whether pkg is installed according to dpkg.
func (a *Apt) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	out, err := a.exec.Execute(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
	if err != nil {
		// dpkg-query exits 1 for unknown packages
		return false, nil
	}
	return strings.Contains(string(out), "install ok installed"), nil
}
