package cli

import (
	"io"
	"os"

	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/errors"
	"github.com/ksyq12/wpstack/internal/executor"
	"github.com/ksyq12/wpstack/internal/fsys"
	"github.com/ksyq12/wpstack/internal/input"
	"github.com/ksyq12/wpstack/internal/packages"
	"github.com/ksyq12/wpstack/internal/platform"
	"github.com/ksyq12/wpstack/internal/salt"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	SettingsLoader   SettingsLoader
	PlatformDetector PlatformDetector
	RootChecker      RootChecker
	SaltFactory      SaltFactory
	Executor         executor.CommandExecutor
	Files            fsys.Files
	StdinReader      input.Reader
	PasswordReader   input.PasswordReader
	Prompt           io.Writer
}

// SettingsLoader loads tool settings
type SettingsLoader interface {
	Load(configPath, envPath string) (*config.Settings, error)
}

// PlatformDetector identifies the host distribution
type PlatformDetector interface {
	Detect() (platform.Host, error)
}

// RootChecker checks root privileges
type RootChecker interface {
	RequireRoot() error
}

// SaltFactory returns the salt source for a run
type SaltFactory interface {
	Source(s config.Settings) salt.Source
}

// Package-level dependencies (can be overridden for testing)
var deps = defaultDeps()

func defaultDeps() *Dependencies {
	return &Dependencies{
		SettingsLoader:   &realSettingsLoader{},
		PlatformDetector: &realPlatformDetector{},
		RootChecker:      &realRootChecker{},
		SaltFactory:      &realSaltFactory{},
		Executor:         executor.NewSystemExecutor(packages.Env...),
		Files:            fsys.OS{},
		StdinReader:      input.NewStdinReader(),
		PasswordReader:   input.NewTerminalPasswordReader(),
		Prompt:           os.Stdout,
	}
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// Real implementations that delegate to existing functions

type realSettingsLoader struct{}

func (r *realSettingsLoader) Load(configPath, envPath string) (*config.Settings, error) {
	return config.LoadSettings(configPath, envPath)
}

type realPlatformDetector struct{}

func (r *realPlatformDetector) Detect() (platform.Host, error) {
	return platform.Detect(platform.OSReleasePath)
}

type realRootChecker struct{}

func (r *realRootChecker) RequireRoot() error {
	if os.Geteuid() != 0 {
		return errors.ErrRootRequired
	}
	return nil
}

type realSaltFactory struct{}

func (r *realSaltFactory) Source(s config.Settings) salt.Source {
	return salt.NewFetcher(s.SaltURL, s.HTTPTimeout)
}
