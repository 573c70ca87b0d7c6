// Package platform detects the host operating system and the nginx layout
// it uses.
package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
)

// OSReleasePath is the os-release file read by Detect.
const OSReleasePath = "/etc/os-release"

// PathConfig contains the nginx site directories.
type PathConfig struct {
	Available string
	Enabled   string
}

// Host describes the detected distribution.
type Host struct {
	ID        string // os-release ID, e.g. "ubuntu"
	IDLike    string // os-release ID_LIKE, e.g. "debian"
	VersionID string
	Name      string // PRETTY_NAME
}

// Debian reports whether the host belongs to the Debian family.
func (h Host) Debian() bool {
	if h.ID == "debian" || h.ID == "ubuntu" {
		return true
	}
	for _, like := range strings.Fields(h.IDLike) {
		if like == "debian" || like == "ubuntu" {
			return true
		}
	}
	return false
}

// String returns the pretty name, or ID and version.
func (h Host) String() string {
	if h.Name != "" {
		return h.Name
	}
	return strings.TrimSpace(h.ID + " " + h.VersionID)
}

// Detect reads the os-release file at path.
func Detect(path string) (Host, error) {
	if runtime.GOOS != "linux" {
		return Host{}, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	f, err := os.Open(path)
	if err != nil {
		return Host{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	// os-release uses shell-style KEY=value assignments
	vars, err := godotenv.Parse(f)
	if err != nil {
		return Host{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return Host{
		ID:        vars["ID"],
		IDLike:    vars["ID_LIKE"],
		VersionID: vars["VERSION_ID"],
		Name:      vars["PRETTY_NAME"],
	}, nil
}

// RequireDebian returns an error unless host is in the Debian family.
func RequireDebian(host Host) error {
	if !host.Debian() {
		return fmt.Errorf("unsupported distribution %q: only Debian and Ubuntu are supported", host.String())
	}
	return nil
}

// NginxPaths returns the Debian nginx site directories.
func NginxPaths() PathConfig {
	return PathConfig{
		Available: "/etc/nginx/sites-available",
		Enabled:   "/etc/nginx/sites-enabled",
	}
}

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// HasNginxLayout reports whether the Debian site directories exist.
func HasNginxLayout() bool {
	p := NginxPaths()
	return pathExists(p.Available) && pathExists(p.Enabled)
}

// Platform returns a string describing the current platform.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
