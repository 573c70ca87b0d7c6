package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/errors"
)

const testSalts = "define( 'AUTH_KEY', 'x' );"

func testConfig(t *testing.T, domain string) config.ProvisioningConfig {
	t.Helper()
	cfg, err := config.New(config.ProvisioningConfig{
		Domain:       domain,
		DBPassword:   "db-pass",
		AdminEmail:   "a@b.com",
		UserPassword: "user-pass",
	})
	require.NoError(t, err)
	return cfg
}

func TestRenderVHost(t *testing.T) {
	cfg := testConfig(t, "example.com")

	rc, err := RenderVHost(cfg, config.DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, NginxVHost, rc.Template)
	for _, expected := range []string{
		"server_name example.com www.example.com;",
		"root /var/www/example.com;",
		"fastcgi_pass unix:/run/php/php8.3-fpm.sock;",
		"fastcgi_cache WORDPRESS;",
		"try_files $uri $uri/ /index.php?$args;",
	} {
		assert.Contains(t, rc.Content, expected)
	}
	// http level directives live in the shared cache snippet
	assert.NotContains(t, rc.Content, "fastcgi_cache_path")
	assert.NotContains(t, rc.Content, "fastcgi_cache_key")
}

func TestRenderCache(t *testing.T) {
	rc, err := RenderCache(config.DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, NginxCache, rc.Template)
	assert.Contains(t, rc.Content, "fastcgi_cache_path /var/run/nginx-cache levels=1:2 keys_zone=WORDPRESS:100m inactive=60m;")
	assert.Contains(t, rc.Content, `fastcgi_cache_key "$scheme$request_method$host$request_uri";`)
	assert.NotContains(t, rc.Content, "server {")

	// one snippet serves every domain
	other, err := RenderCache(config.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, rc.Content, other.Content)
}

func TestRenderVHost_NoResidualPlaceholders(t *testing.T) {
	domains := []string{"example.com", "blog.example.org", "a-b.example.co.uk", "x1.io"}

	for _, domain := range domains {
		t.Run(domain, func(t *testing.T) {
			rc, err := RenderVHost(testConfig(t, domain), config.DefaultSettings())
			require.NoError(t, err)

			assert.Contains(t, rc.Content, domain)
			assert.NotContains(t, rc.Content, "{{")
			assert.NotContains(t, rc.Content, "}}")
			assert.NotContains(t, rc.Content, "<no value>")
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	cfg := testConfig(t, "example.com")

	first, err := RenderVHost(cfg, config.DefaultSettings())
	require.NoError(t, err)
	second, err := RenderVHost(cfg, config.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), second.Bytes())

	wp1, err := RenderWPConfig(cfg, testSalts)
	require.NoError(t, err)
	wp2, err := RenderWPConfig(cfg, testSalts)
	require.NoError(t, err)
	assert.Equal(t, wp1.Content, wp2.Content)
}

func TestRender_MissingPlaceholder(t *testing.T) {
	values := VHostValues(testConfig(t, "example.com"), config.DefaultSettings())
	delete(values, "PHPSocket")

	_, err := Render(NginxVHost, values)
	require.Error(t, err)

	var tmplErr *errors.TemplateError
	require.True(t, errors.As(err, &tmplErr))
	assert.Equal(t, NginxVHost, tmplErr.Template)
	assert.Equal(t, "PHPSocket", tmplErr.Placeholder)
}

func TestRender_BlankPlaceholder(t *testing.T) {
	cfg := testConfig(t, "example.com")

	_, err := RenderWPConfig(cfg, "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, &errors.TemplateError{Template: WPConfig}))
	assert.Contains(t, err.Error(), "Salts")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render("nginx/static.conf", Values{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTemplate))
}

func TestPlaceholders(t *testing.T) {
	keys, err := Placeholders(NginxVHost)
	require.NoError(t, err)
	assert.Equal(t, []string{"CacheZone", "DocumentRoot", "Domain", "PHPSocket", "WWWDomain"}, keys)

	keys, err = Placeholders(NginxCache)
	require.NoError(t, err)
	assert.Equal(t, []string{"CacheInactive", "CachePath", "CacheSize", "CacheZone"}, keys)

	keys, err = Placeholders(WPConfig)
	require.NoError(t, err)
	assert.Equal(t, []string{"DBName", "DBPassword", "DBUser", "Domain", "Salts"}, keys)
}

func TestRenderWPConfig(t *testing.T) {
	cfg := testConfig(t, "example.com")
	cfg.DBPassword = `it's\secret`

	rc, err := RenderWPConfig(cfg, testSalts)
	require.NoError(t, err)

	assert.Contains(t, rc.Content, "define( 'DB_NAME', 'wordpress' );")
	assert.Contains(t, rc.Content, "define( 'DB_USER', 'wordpress' );")
	assert.Contains(t, rc.Content, `define( 'DB_PASSWORD', 'it\'s\\secret' );`)
	assert.Contains(t, rc.Content, testSalts)
	assert.True(t, strings.HasPrefix(rc.Content, "<?php"))
}

func TestAvailable(t *testing.T) {
	for _, name := range Available() {
		_, err := Placeholders(name)
		assert.NoError(t, err, name)
	}
}

func TestParseDBCredentials(t *testing.T) {
	t.Run("rendered config", func(t *testing.T) {
		cfg := testConfig(t, "example.com")
		cfg.DBPassword = `it's\secret`
		rc, err := RenderWPConfig(cfg, testSalts)
		require.NoError(t, err)

		creds, ok := ParseDBCredentials(rc.Content)
		require.True(t, ok)
		assert.Equal(t, DBCredentials{Name: "wordpress", User: "wordpress", Password: `it's\secret`}, creds)
	})

	t.Run("hand edited", func(t *testing.T) {
		creds, ok := ParseDBCredentials("define('DB_NAME','blog');\ndefine( 'DB_USER' , 'blog' );\ndefine('DB_PASSWORD', 'a\\b');")
		require.True(t, ok)
		assert.Equal(t, `a\b`, creds.Password)
	})

	t.Run("incomplete", func(t *testing.T) {
		_, ok := ParseDBCredentials("define( 'DB_NAME', 'wordpress' );\ndefine( 'DB_PASSWORD', getenv('DB_PASSWORD') );")
		assert.False(t, ok)
	})
}
