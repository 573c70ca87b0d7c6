// Package ssl obtains Let's Encrypt certificates through Certbot's nginx
// plugin.
//
// # Prerequisites
//
// Certbot and its nginx plugin must be installed:
//
//	apt install certbot python3-certbot-nginx
//
// # Usage
//
//	cb := ssl.NewCertbot(executor.NewSystemExecutor())
//	cert, err := cb.IssueNginx(ctx, "admin@example.com", "example.com", "www.example.com")
//
// The nginx plugin edits the site's server block in place to add the
// certificate and an HTTP to HTTPS redirect. Re-running IssueNginx keeps an
// unexpired certificate.
//
// # Certificate Paths
//
// Certificates are stored in Let's Encrypt's standard directory:
//
//	/etc/letsencrypt/live/{domain}/fullchain.pem  (certificate chain)
//	/etc/letsencrypt/live/{domain}/privkey.pem    (private key)
//
// # Error Handling
//
// Errors include the certbot command line and the tail of its output.
// Common causes:
//   - DNS not configured: the domain must point at this host
//   - Port 80 blocked by a firewall
//   - Rate limiting: Let's Encrypt has strict limits
package ssl
