// Package webserver manages the nginx site of the provisioned domain.
//
// Sites follow the Debian layout: the config file lives in sites-available
// and is activated by a symlink in sites-enabled.
//
//	/etc/nginx/sites-available/example.com
//	/etc/nginx/sites-enabled/example.com -> /etc/nginx/sites-available/example.com
//
// Every operation is safe to repeat. WriteSite keeps an existing config,
// Enable tolerates an existing link and DisableDefault tolerates a missing
// default site.
//
// Filesystem access goes through fsys.Files so the driver can run
// against an in-memory filesystem; commands go through
// executor.CommandExecutor.
package webserver
