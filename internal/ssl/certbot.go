package ssl

import (
	"context"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"

	"github.com/ksyq12/wpstack/internal/executor"
	"github.com/ksyq12/wpstack/internal/fsys"
)

// Packages are the Debian packages providing certbot and its nginx plugin.
var Packages = []string{"certbot", "python3-certbot-nginx"}

// Cert represents an SSL certificate
type Cert struct {
	Domain   string
	CertPath string
	KeyPath  string
}

// letsencryptDir is the base directory for Let's Encrypt certificates
const letsencryptDir = "/etc/letsencrypt/live"

// Certbot runs certbot through a command executor.
type Certbot struct {
	exec executor.CommandExecutor
}

// NewCertbot creates a certbot runner.
func NewCertbot(exec executor.CommandExecutor) *Certbot {
	return &Certbot{exec: exec}
}

// IsInstalled checks if certbot is installed
func (c *Certbot) IsInstalled() bool {
	_, err := c.exec.LookPath("certbot")
	return err == nil
}

// GetCertPaths returns the certificate paths for a domain
func GetCertPaths(domain string) *Cert {
	return &Cert{
		Domain:   domain,
		CertPath: filepath.Join(letsencryptDir, domain, "fullchain.pem"),
		KeyPath:  filepath.Join(letsencryptDir, domain, "privkey.pem"),
	}
}

// HasCertificate reports whether a certificate for domain is on disk.
func HasCertificate(files fsys.Files, domain string) bool {
	return files.Exists(GetCertPaths(domain).CertPath)
}

// NginxArgs returns the certbot arguments that obtain one certificate for
// all domains and install it into their nginx server block, redirecting
// HTTP to HTTPS. An unexpired certificate is reused.
func NginxArgs(email string, domains ...string) []string {
	args := []string{"--nginx"}
	for _, d := range domains {
		args = append(args, "-d", d)
	}
	return append(args,
		"--email", email,
		"--agree-tos",
		"--non-interactive",
		"--redirect",
		"--keep-until-expiring",
	)
}

// IssueNginx obtains a certificate using the nginx plugin. The first domain
// names the certificate.
func (c *Certbot) IssueNginx(ctx context.Context, email string, domains ...string) (*Cert, error) {
	if len(domains) == 0 {
		return nil, cerr.New("no domains to certify")
	}
	if !c.IsInstalled() {
		return nil, cerr.WithHint(cerr.New("certbot is not installed"),
			"install it with: apt install certbot python3-certbot-nginx")
	}

	if _, err := c.exec.Execute(ctx, "certbot", NginxArgs(email, domains...)...); err != nil {
		return nil, cerr.WithHint(cerr.Wrap(err, "certbot failed"),
			"make sure the domain's DNS points at this host and port 80 is reachable")
	}
	return GetCertPaths(domains[0]), nil
}
