// Package provision defines the WordPress provisioning run: the ordered
// steps that turn a fresh Debian or Ubuntu host into a LEMP server serving
// one WordPress site over HTTPS.
//
// Each step wraps calls into external collaborators (apt, systemd, the
// MariaDB client, curl, tar, nginx and certbot) through
// executor.CommandExecutor, and filesystem writes through fsys.Files, so the
// whole run can be exercised against fakes.
package provision

import (
	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/executor"
	"github.com/ksyq12/wpstack/internal/fsys"
	"github.com/ksyq12/wpstack/internal/packages"
	"github.com/ksyq12/wpstack/internal/pipeline"
	"github.com/ksyq12/wpstack/internal/salt"
	"github.com/ksyq12/wpstack/internal/ssl"
	"github.com/ksyq12/wpstack/internal/webserver"
)

// Step names, in execution order.
const (
	StepSystemUpdate = "System update"
	StepAdminUser    = "Admin user creation"
	StepNginx        = "Nginx installation"
	StepMariaDB      = "MariaDB installation"
	StepDatabase     = "Database setup"
	StepPHP          = "PHP installation"
	StepWordPress    = "WordPress download"
	StepWPConfig     = "WordPress configuration"
	StepPermissions  = "File permissions"
	StepVirtualHost  = "Nginx virtual host"
	StepCertbot      = "Certbot installation"
	StepTLS          = "TLS certificate"
)

const (
	wpConfigFile   = "wp-config.php"
	cacheConfFile  = "wpstack-fastcgi-cache.conf"
	wpVersionFile  = "wp-includes/version.php"
	wpArchive      = "wpstack-wordpress.tar.gz"
	adminShell     = "/bin/bash"
	adminGroup     = "sudo"
	mariadbService = "mariadb"
	nginxService   = "nginx"
	databaseClient = "mysql"
)

// phpExtensions are installed next to php<version>-fpm.
var phpExtensions = []string{"mysql", "curl", "gd", "mbstring", "xml", "zip", "intl", "bcmath"}

// Deps are the collaborators of a provisioning run.
type Deps struct {
	Exec     executor.CommandExecutor
	Files    fsys.Files
	Salts    salt.Source
	Settings config.Settings
	TempDir  string
}

// Provisioner builds the steps for one ProvisioningConfig.
type Provisioner struct {
	cfg      config.ProvisioningConfig
	settings config.Settings
	exec     executor.CommandExecutor
	files    fsys.Files
	salts    salt.Source
	tempDir  string

	apt     packages.Manager
	systemd *packages.Systemd
	nginx   *webserver.NginxDriver
	certbot *ssl.Certbot
}

// New creates a provisioner. cfg must already be validated.
func New(cfg config.ProvisioningConfig, deps Deps) *Provisioner {
	tempDir := deps.TempDir
	if tempDir == "" {
		tempDir = "/tmp"
	}
	paths := webserver.Paths{
		Available: deps.Settings.NginxAvailable,
		Enabled:   deps.Settings.NginxEnabled,
		Conf:      deps.Settings.NginxConf,
	}
	return &Provisioner{
		cfg:      cfg,
		settings: deps.Settings,
		exec:     deps.Exec,
		files:    deps.Files,
		salts:    deps.Salts,
		tempDir:  tempDir,
		apt:      packages.NewApt(deps.Exec),
		systemd:  packages.NewSystemd(deps.Exec),
		nginx:    webserver.NewNginx(paths, deps.Exec, deps.Files),
		certbot:  ssl.NewCertbot(deps.Exec),
	}
}

// Steps returns the provisioning steps in execution order.
func (p *Provisioner) Steps() []pipeline.Step {
	return []pipeline.Step{
		{Name: StepSystemUpdate, Action: p.systemUpdate, Idempotent: true},
		{Name: StepAdminUser, Action: p.adminUser, Idempotent: true},
		{Name: StepNginx, Action: p.installNginx, Idempotent: true},
		{Name: StepMariaDB, Action: p.installMariaDB, Idempotent: true},
		{Name: StepDatabase, Action: p.setupDatabase, Idempotent: true},
		{Name: StepPHP, Action: p.installPHP, Idempotent: true},
		{Name: StepWordPress, Action: p.downloadWordPress, Idempotent: true},
		{Name: StepWPConfig, Action: p.configureWordPress, Idempotent: true},
		{Name: StepPermissions, Action: p.fixPermissions, Idempotent: true},
		{Name: StepVirtualHost, Action: p.virtualHost, Idempotent: true},
		{Name: StepCertbot, Action: p.installCertbot, Idempotent: true},
		{Name: StepTLS, Action: p.issueCertificate, Idempotent: true},
	}
}

// Pipeline returns a fresh pipeline over Steps.
func (p *Provisioner) Pipeline() *pipeline.Pipeline {
	return pipeline.New(p.Steps()...)
}

// DocumentRoot returns the WordPress directory of the site.
func (p *Provisioner) DocumentRoot() string {
	return p.settings.DocumentRoot(p.cfg.Domain)
}
