package provision

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	cerr "github.com/cockroachdb/errors"

	"github.com/ksyq12/wpstack/internal/logger"
	"github.com/ksyq12/wpstack/internal/ssl"
	"github.com/ksyq12/wpstack/internal/template"
)

func (p *Provisioner) systemUpdate(ctx context.Context) error {
	return p.apt.Update(ctx)
}

func (p *Provisioner) adminUser(ctx context.Context) error {
	user := p.cfg.Username
	if _, err := p.exec.Execute(ctx, "id", "-u", user); err == nil {
		logger.Info("user %s already exists, leaving it unchanged", user)
		return nil
	}

	if _, err := p.exec.Execute(ctx, "useradd", "-m", "-s", adminShell, "-G", adminGroup, user); err != nil {
		return cerr.Wrapf(err, "failed to create user %s", user)
	}
	// chpasswd reads user:password from stdin, keeping the password out of argv
	if _, err := p.exec.ExecuteInput(ctx, user+":"+p.cfg.UserPassword+"\n", "chpasswd"); err != nil {
		return cerr.Wrapf(err, "failed to set password for %s", user)
	}
	return nil
}

func (p *Provisioner) installNginx(ctx context.Context) error {
	if err := p.apt.Install(ctx, "nginx"); err != nil {
		return err
	}
	return p.systemd.EnableNow(ctx, nginxService)
}

func (p *Provisioner) installMariaDB(ctx context.Context) error {
	if err := p.apt.Install(ctx, "mariadb-server", "mariadb-client"); err != nil {
		return err
	}
	return p.systemd.EnableNow(ctx, mariadbService)
}

func (p *Provisioner) setupDatabase(ctx context.Context) error {
	// a kept wp-config.php pins the credentials WordPress connects with
	existing := filepath.Join(p.DocumentRoot(), wpConfigFile)
	kept := p.files.Exists(existing)
	if kept {
		if err := p.checkExistingCredentials(existing); err != nil {
			return err
		}
	}

	script := DatabaseScript(p.cfg.DBName, p.cfg.DBUser, p.cfg.DBPassword, !kept)
	// root authenticates over the unix socket on Debian's MariaDB
	if _, err := p.exec.ExecuteInput(ctx, script, databaseClient, "-u", "root"); err != nil {
		return cerr.Wrapf(err, "failed to create database %s", p.cfg.DBName)
	}
	return nil
}

// checkExistingCredentials fails when the answers name other database
// credentials than the wp-config.php a re-run is going to keep.
func (p *Provisioner) checkExistingCredentials(path string) error {
	data, err := p.files.ReadFile(path)
	if err != nil {
		return cerr.Wrapf(err, "failed to read %s", path)
	}
	creds, ok := template.ParseDBCredentials(string(data))
	if !ok {
		logger.Warn("cannot read database settings from %s, leaving the database password unchanged", path)
		return nil
	}

	var differ []string
	if creds.Name != p.cfg.DBName {
		differ = append(differ, "DB_NAME")
	}
	if creds.User != p.cfg.DBUser {
		differ = append(differ, "DB_USER")
	}
	if creds.Password != p.cfg.DBPassword {
		differ = append(differ, "DB_PASSWORD")
	}
	if len(differ) > 0 {
		return cerr.WithHint(
			cerr.Newf("existing %s has a different %s than the answers", path, strings.Join(differ, ", ")),
			"re-run with the original database answers, or remove wp-config.php to configure WordPress again")
	}
	return nil
}

func (p *Provisioner) installPHP(ctx context.Context) error {
	v := p.settings.PHPVersion
	pkgs := []string{"php" + v + "-fpm"}
	for _, ext := range phpExtensions {
		pkgs = append(pkgs, fmt.Sprintf("php%s-%s", v, ext))
	}
	if err := p.apt.Install(ctx, pkgs...); err != nil {
		return err
	}
	return p.systemd.EnableNow(ctx, p.settings.PHPFPMService())
}

func (p *Provisioner) downloadWordPress(ctx context.Context) error {
	root := p.DocumentRoot()
	if p.files.Exists(filepath.Join(root, wpVersionFile)) {
		logger.Info("WordPress already present in %s", root)
		return nil
	}

	if err := p.files.MkdirAll(root, 0755); err != nil {
		return cerr.Wrapf(err, "failed to create %s", root)
	}

	archive := filepath.Join(p.tempDir, wpArchive)
	if _, err := p.exec.Execute(ctx, "curl", "-fsSL", "-o", archive, p.settings.WordPressURL); err != nil {
		return cerr.Wrap(err, "failed to download WordPress")
	}
	defer func() {
		if err := p.files.Remove(archive); err != nil {
			logger.Debug("failed to remove %s: %v", archive, err)
		}
	}()

	if _, err := p.exec.Execute(ctx, "tar", "-xzf", archive, "-C", root, "--strip-components=1"); err != nil {
		return cerr.Wrapf(err, "failed to extract WordPress into %s", root)
	}
	return nil
}

func (p *Provisioner) configureWordPress(ctx context.Context) error {
	path := filepath.Join(p.DocumentRoot(), wpConfigFile)
	if p.files.Exists(path) {
		logger.Info("keeping existing %s", path)
		return nil
	}

	set, err := p.salts.Salts(ctx)
	if err != nil {
		return err
	}

	rendered, err := template.RenderWPConfig(p.cfg, set.Block())
	if err != nil {
		return err
	}
	if err := p.files.WriteFile(path, rendered.Bytes(), 0640); err != nil {
		return cerr.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func (p *Provisioner) fixPermissions(ctx context.Context) error {
	root := p.DocumentRoot()
	owner := p.settings.WebUser + ":" + p.settings.WebUser
	if _, err := p.exec.Execute(ctx, "chown", "-R", owner, root); err != nil {
		return cerr.Wrapf(err, "failed to chown %s", root)
	}
	if _, err := p.exec.Execute(ctx, "chmod", "640", filepath.Join(root, wpConfigFile)); err != nil {
		return cerr.Wrap(err, "failed to restrict wp-config.php")
	}
	return nil
}

func (p *Provisioner) virtualHost(ctx context.Context) error {
	cache, err := template.RenderCache(p.settings)
	if err != nil {
		return err
	}
	rendered, err := template.RenderVHost(p.cfg, p.settings)
	if err != nil {
		return err
	}
	if err := p.nginx.WriteConf(cacheConfFile, cache.Bytes()); err != nil {
		return err
	}
	if _, err := p.nginx.WriteSite(p.cfg.Domain, rendered.Bytes()); err != nil {
		return err
	}
	if err := p.nginx.Enable(p.cfg.Domain); err != nil {
		return err
	}
	if err := p.nginx.DisableDefault(); err != nil {
		return err
	}
	if err := p.nginx.Test(ctx); err != nil {
		return err
	}
	return p.nginx.Reload(ctx)
}

func (p *Provisioner) installCertbot(ctx context.Context) error {
	return p.apt.Install(ctx, ssl.Packages...)
}

func (p *Provisioner) issueCertificate(ctx context.Context) error {
	cert, err := p.certbot.IssueNginx(ctx, p.cfg.AdminEmail, p.cfg.Domain, p.cfg.WWWDomain())
	if err != nil {
		return err
	}
	logger.Info("certificate installed at %s", cert.CertPath)
	return nil
}
