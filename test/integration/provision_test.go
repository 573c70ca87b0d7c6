//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/executor"
	"github.com/ksyq12/wpstack/internal/fsys"
	"github.com/ksyq12/wpstack/internal/provision"
	"github.com/ksyq12/wpstack/internal/salt"
	"github.com/ksyq12/wpstack/internal/template"
	"github.com/ksyq12/wpstack/internal/webserver"
)

// testDirs holds paths to test directories, created fresh for each test
type testDirs struct {
	base           string
	sitesAvailable string
	sitesEnabled   string
	confDir        string
	wwwDir         string
	cacheDir       string
}

// setupTestDirs creates temporary directories for testing
func setupTestDirs(t *testing.T) *testDirs {
	t.Helper()
	baseDir := t.TempDir() // Automatically cleaned up after test

	dirs := &testDirs{
		base:           baseDir,
		sitesAvailable: filepath.Join(baseDir, "sites-available"),
		sitesEnabled:   filepath.Join(baseDir, "sites-enabled"),
		confDir:        filepath.Join(baseDir, "conf.d"),
		wwwDir:         filepath.Join(baseDir, "www"),
		cacheDir:       filepath.Join(baseDir, "cache"),
	}

	for _, dir := range []string{dirs.sitesAvailable, dirs.sitesEnabled, dirs.wwwDir, dirs.cacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	return dirs
}

func (d *testDirs) settings() config.Settings {
	s := config.DefaultSettings()
	s.WebRoot = d.wwwDir
	s.NginxAvailable = d.sitesAvailable
	s.NginxEnabled = d.sitesEnabled
	s.NginxConf = d.confDir
	s.CachePath = d.cacheDir
	return s
}

func testConfig(t *testing.T) config.ProvisioningConfig {
	t.Helper()
	cfg, err := config.New(config.ProvisioningConfig{
		Domain:       "test.local",
		DBPassword:   "db-secret",
		AdminEmail:   "admin@test.local",
		UserPassword: "user-secret",
	})
	if err != nil {
		t.Fatalf("Failed to build config: %v", err)
	}
	return cfg
}

func isNginxAvailable() bool {
	_, err := exec.LookPath("nginx")
	return err == nil
}

func TestProvisionOnDisk(t *testing.T) {
	dirs := setupTestDirs(t)
	s := dirs.settings()
	cfg := testConfig(t)

	// commands are simulated, files are real
	host := &executor.MockExecutor{}
	prov := provision.New(cfg, provision.Deps{
		Exec:     host,
		Files:    fsys.OS{},
		Salts:    salt.Local{},
		Settings: s,
		TempDir:  dirs.base,
	})

	if err := prov.Pipeline().Execute(context.Background()); err != nil {
		t.Fatalf("Provisioning failed: %v", err)
	}

	t.Run("Site config", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dirs.sitesAvailable, "test.local"))
		if err != nil {
			t.Fatalf("Failed to read site config: %v", err)
		}
		if !strings.Contains(string(data), "root "+filepath.Join(dirs.wwwDir, "test.local")+";") {
			t.Error("Site config does not point at the document root")
		}
	})

	t.Run("Site enabled", func(t *testing.T) {
		symlinkPath := filepath.Join(dirs.sitesEnabled, "test.local")
		info, err := os.Lstat(symlinkPath)
		if err != nil {
			t.Fatalf("Failed to stat symlink: %v", err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			t.Error("Expected symlink, got regular file")
		}
	})

	t.Run("wp-config.php", func(t *testing.T) {
		path := filepath.Join(dirs.wwwDir, "test.local", "wp-config.php")
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Failed to stat wp-config.php: %v", err)
		}
		if info.Mode().Perm() != 0640 {
			t.Errorf("Expected mode 0640, got %o", info.Mode().Perm())
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "define( 'DB_PASSWORD', 'db-secret' );") {
			t.Error("wp-config.php is missing the database password")
		}
	})

	t.Run("Re-run keeps files", func(t *testing.T) {
		path := filepath.Join(dirs.wwwDir, "test.local", "wp-config.php")
		before, _ := os.ReadFile(path)

		again := provision.New(cfg, provision.Deps{
			Exec:     &executor.MockExecutor{},
			Files:    fsys.OS{},
			Salts:    salt.Local{},
			Settings: s,
			TempDir:  dirs.base,
		})
		if err := again.Pipeline().Execute(context.Background()); err != nil {
			t.Fatalf("Second run failed: %v", err)
		}

		after, _ := os.ReadFile(path)
		if string(before) != string(after) {
			t.Error("wp-config.php was rewritten on the second run")
		}
	})
}

// nginxConf wraps the sites directory in a configuration nginx -t accepts
// without root.
const nginxConf = `pid nginx.pid;
error_log stderr;
events {}
http {
    access_log off;
    client_body_temp_path tmp;
    include %s/*.conf;
    include %s/*;
}
`

const fastcgiSnippet = `fastcgi_split_path_info ^(.+?\.php)(/.*)$;
fastcgi_index index.php;
fastcgi_param SCRIPT_FILENAME $document_root$fastcgi_script_name;
`

func TestNginxConfigValidation(t *testing.T) {
	if !isNginxAvailable() {
		t.Skip("Nginx is not available")
	}

	dirs := setupTestDirs(t)
	s := dirs.settings()

	cache, err := template.RenderCache(s)
	if err != nil {
		t.Fatalf("Failed to render cache snippet: %v", err)
	}

	drv := webserver.NewNginx(webserver.Paths{Available: dirs.sitesAvailable, Enabled: dirs.sitesEnabled, Conf: dirs.confDir},
		executor.NewSystemExecutor(), fsys.OS{})
	if err := drv.WriteConf("wpstack-fastcgi-cache.conf", cache.Bytes()); err != nil {
		t.Fatalf("Failed to write cache snippet: %v", err)
	}

	// two sites share the cache zone
	for _, domain := range []string{"test.local", "blog.test.local"} {
		cfg := testConfig(t)
		cfg.Domain = domain
		rc, err := template.RenderVHost(cfg, s)
		if err != nil {
			t.Fatalf("Failed to render template: %v", err)
		}
		if _, err := drv.WriteSite(domain, rc.Bytes()); err != nil {
			t.Fatalf("Failed to write site: %v", err)
		}
		if err := drv.Enable(domain); err != nil {
			t.Fatalf("Failed to enable site: %v", err)
		}
	}

	confPath := filepath.Join(dirs.base, "nginx.conf")
	if err := os.WriteFile(confPath, []byte(fmt.Sprintf(nginxConf, dirs.confDir, dirs.sitesEnabled)), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dirs.base, "snippets"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dirs.base, "snippets", "fastcgi-php.conf"), []byte(fastcgiSnippet), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := exec.Command("nginx", "-t", "-q", "-e", "stderr", "-p", dirs.base, "-c", confPath).CombinedOutput()
	if err != nil {
		t.Fatalf("nginx rejected the rendered site: %v\n%s", err, out)
	}
}
