package webserver

import (
	"context"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"

	"github.com/ksyq12/wpstack/internal/executor"
	"github.com/ksyq12/wpstack/internal/fsys"
	"github.com/ksyq12/wpstack/internal/logger"
)

// DefaultSite is the site the nginx package enables on install.
const DefaultSite = "default"

// Paths contains the nginx site directories
type Paths struct {
	Available string // sites-available directory
	Enabled   string // sites-enabled directory
	Conf      string // conf.d directory, included at http level
}

// NginxDriver manages Debian style nginx sites
type NginxDriver struct {
	paths Paths
	exec  executor.CommandExecutor
	files fsys.Files
}

// NewNginx creates an nginx driver over the given paths, executor and files
func NewNginx(paths Paths, exec executor.CommandExecutor, files fsys.Files) *NginxDriver {
	return &NginxDriver{
		paths: paths,
		exec:  exec,
		files: files,
	}
}

// Paths returns the config paths
func (n *NginxDriver) Paths() Paths {
	return n.paths
}

// SitePath returns the sites-available file for domain
func (n *NginxDriver) SitePath(domain string) string {
	return filepath.Join(n.paths.Available, domain)
}

// WriteSite writes the site config to sites-available. An existing file is
// kept, since certbot edits it in place; the return value reports whether a
// new file was written.
func (n *NginxDriver) WriteSite(domain string, content []byte) (bool, error) {
	path := n.SitePath(domain)
	if n.files.Exists(path) {
		logger.Info("keeping existing site config %s", path)
		return false, nil
	}

	if err := n.files.MkdirAll(n.paths.Available, 0755); err != nil {
		return false, cerr.Wrap(err, "failed to create sites-available directory")
	}
	if err := n.files.MkdirAll(n.paths.Enabled, 0755); err != nil {
		return false, cerr.Wrap(err, "failed to create sites-enabled directory")
	}
	if err := n.files.WriteFile(path, content, 0644); err != nil {
		return false, cerr.Wrap(err, "failed to write site config")
	}
	return true, nil
}

// WriteConf writes an http level snippet to the conf.d directory. The
// snippet is shared by every site and always rewritten.
func (n *NginxDriver) WriteConf(name string, content []byte) error {
	if err := n.files.MkdirAll(n.paths.Conf, 0755); err != nil {
		return cerr.Wrap(err, "failed to create conf.d directory")
	}
	if err := n.files.WriteFile(filepath.Join(n.paths.Conf, name), content, 0644); err != nil {
		return cerr.Wrapf(err, "failed to write %s", name)
	}
	return nil
}

// Enable activates a site by creating a symlink. Enabling an enabled site
// is a no-op.
func (n *NginxDriver) Enable(domain string) error {
	source := n.SitePath(domain)
	target := filepath.Join(n.paths.Enabled, domain)

	if !n.files.Exists(source) {
		return cerr.Newf("site %s not found in sites-available", domain)
	}
	if n.files.Exists(target) {
		return nil
	}
	if err := n.files.Symlink(source, target); err != nil {
		return cerr.Wrapf(err, "failed to enable site %s", domain)
	}
	return nil
}

// IsEnabled checks if a site is enabled
func (n *NginxDriver) IsEnabled(domain string) bool {
	return n.files.Exists(filepath.Join(n.paths.Enabled, domain))
}

// DisableDefault removes the distribution's default site from
// sites-enabled, so it does not answer for the domain.
func (n *NginxDriver) DisableDefault() error {
	target := filepath.Join(n.paths.Enabled, DefaultSite)
	if !n.files.Exists(target) {
		return nil
	}
	if err := n.files.Remove(target); err != nil {
		return cerr.Wrap(err, "failed to disable default site")
	}
	return nil
}

// Test validates the nginx config syntax
func (n *NginxDriver) Test(ctx context.Context) error {
	if _, err := n.exec.Execute(ctx, "nginx", "-t"); err != nil {
		return cerr.WithHint(cerr.Wrap(err, "nginx config test failed"),
			"inspect "+n.paths.Available+" and run nginx -t")
	}
	return nil
}

// Reload reloads nginx to apply changes
func (n *NginxDriver) Reload(ctx context.Context) error {
	if _, err := n.exec.Execute(ctx, "systemctl", "reload", "nginx"); err != nil {
		// Try nginx -s reload as fallback
		if _, err := n.exec.Execute(ctx, "nginx", "-s", "reload"); err != nil {
			return cerr.Wrap(err, "failed to reload nginx")
		}
	}
	return nil
}
