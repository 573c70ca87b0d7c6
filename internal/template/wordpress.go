package template

import (
	"regexp"
	"strings"

	"github.com/ksyq12/wpstack/internal/config"
)

// VHostValues returns the placeholders of the Nginx virtual host.
func VHostValues(cfg config.ProvisioningConfig, s config.Settings) Values {
	return Values{
		"Domain":       cfg.Domain,
		"WWWDomain":    cfg.WWWDomain(),
		"DocumentRoot": s.DocumentRoot(cfg.Domain),
		"PHPSocket":    s.PHPSocket(),
		"CacheZone":    s.CacheZone,
	}
}

// CacheValues returns the placeholders of the shared FastCGI cache zone.
func CacheValues(s config.Settings) Values {
	return Values{
		"CacheZone":     s.CacheZone,
		"CachePath":     s.CachePath,
		"CacheSize":     s.CacheSize,
		"CacheInactive": s.CacheInactive,
	}
}

// RenderCache renders the http level FastCGI cache zone every site uses.
func RenderCache(s config.Settings) (*RenderedConfig, error) {
	return Render(NginxCache, CacheValues(s))
}

// RenderVHost renders the Nginx virtual host for cfg.
func RenderVHost(cfg config.ProvisioningConfig, s config.Settings) (*RenderedConfig, error) {
	return Render(NginxVHost, VHostValues(cfg, s))
}

// WPConfigValues returns the placeholders of wp-config.php. Database
// credentials are escaped for PHP single-quoted strings; salts must already
// be a validated block of define() lines.
func WPConfigValues(cfg config.ProvisioningConfig, salts string) Values {
	return Values{
		"Domain":     cfg.Domain,
		"DBName":     phpString(cfg.DBName),
		"DBUser":     phpString(cfg.DBUser),
		"DBPassword": phpString(cfg.DBPassword),
		"Salts":      salts,
	}
}

// RenderWPConfig renders wp-config.php for cfg.
func RenderWPConfig(cfg config.ProvisioningConfig, salts string) (*RenderedConfig, error) {
	return Render(WPConfig, WPConfigValues(cfg, salts))
}

var phpEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// phpString escapes s for use inside a PHP single-quoted literal.
func phpString(s string) string {
	return phpEscaper.Replace(s)
}

// DBCredentials are the database settings a wp-config.php connects with.
type DBCredentials struct {
	Name     string
	User     string
	Password string
}

var dbDefine = regexp.MustCompile(`define\(\s*'(DB_NAME|DB_USER|DB_PASSWORD)'\s*,\s*'((?:[^'\\]|\\.)*)'\s*\)`)

// ParseDBCredentials reads the database settings from a wp-config.php. It
// reports false unless all three are plain single-quoted define() calls.
func ParseDBCredentials(content string) (DBCredentials, bool) {
	var creds DBCredentials
	found := map[string]bool{}
	for _, m := range dbDefine.FindAllStringSubmatch(content, -1) {
		value := phpUnquote(m[2])
		switch m[1] {
		case "DB_NAME":
			creds.Name = value
		case "DB_USER":
			creds.User = value
		case "DB_PASSWORD":
			creds.Password = value
		}
		found[m[1]] = true
	}
	return creds, len(found) == 3
}

// phpUnquote reverses phpString. PHP keeps any other backslash literally.
func phpUnquote(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '\'') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
