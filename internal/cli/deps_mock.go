package cli

import (
	"bytes"
	"errors"

	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/executor"
	"github.com/ksyq12/wpstack/internal/fsys"
	"github.com/ksyq12/wpstack/internal/input"
	"github.com/ksyq12/wpstack/internal/platform"
	"github.com/ksyq12/wpstack/internal/salt"
)

// MockSettingsLoader is a test double for SettingsLoader
type MockSettingsLoader struct {
	Settings *config.Settings
	Err      error
	Calls    int
}

func (m *MockSettingsLoader) Load(configPath, envPath string) (*config.Settings, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Settings == nil {
		s := config.DefaultSettings()
		m.Settings = &s
	}
	return m.Settings, nil
}

// MockPlatformDetector is a test double for PlatformDetector
type MockPlatformDetector struct {
	Host platform.Host
	Err  error
}

func (m *MockPlatformDetector) Detect() (platform.Host, error) {
	if m.Err != nil {
		return platform.Host{}, m.Err
	}
	if m.Host.ID == "" {
		return platform.Host{ID: "ubuntu", IDLike: "debian", VersionID: "24.04", Name: "Ubuntu 24.04 LTS"}, nil
	}
	return m.Host, nil
}

// MockRootChecker is a test double for RootChecker
type MockRootChecker struct {
	IsRoot bool
	Calls  int
}

func (m *MockRootChecker) RequireRoot() error {
	m.Calls++
	if !m.IsRoot {
		return errors.New("this operation requires root privileges. Please run with sudo")
	}
	return nil
}

// MockSaltFactory is a test double for SaltFactory
type MockSaltFactory struct {
	Salts salt.Source
}

func (m *MockSaltFactory) Source(config.Settings) salt.Source {
	if m.Salts == nil {
		return salt.Local{}
	}
	return m.Salts
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults:
// a root session on Ubuntu, default settings, local salts, a mock executor
// and an in-memory filesystem.
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			SettingsLoader:   &MockSettingsLoader{},
			PlatformDetector: &MockPlatformDetector{},
			RootChecker:      &MockRootChecker{IsRoot: true},
			SaltFactory:      &MockSaltFactory{},
			Executor:         &executor.MockExecutor{},
			Files:            fsys.NewMem(),
			StdinReader:      input.NewStringReader(),
			PasswordReader:   input.NewStaticPasswords(),
			Prompt:           &bytes.Buffer{},
		},
	}
}

// WithRootAccess sets whether root access is available
func (b *MockDependenciesBuilder) WithRootAccess(isRoot bool) *MockDependenciesBuilder {
	b.deps.RootChecker = &MockRootChecker{IsRoot: isRoot}
	return b
}

// WithHost sets the detected host
func (b *MockDependenciesBuilder) WithHost(host platform.Host) *MockDependenciesBuilder {
	b.deps.PlatformDetector = &MockPlatformDetector{Host: host}
	return b
}

// WithSettingsLoader sets a custom settings loader
func (b *MockDependenciesBuilder) WithSettingsLoader(loader SettingsLoader) *MockDependenciesBuilder {
	b.deps.SettingsLoader = loader
	return b
}

// WithExecutor sets the command executor
func (b *MockDependenciesBuilder) WithExecutor(exec executor.CommandExecutor) *MockDependenciesBuilder {
	b.deps.Executor = exec
	return b
}

// WithFiles sets the filesystem
func (b *MockDependenciesBuilder) WithFiles(files fsys.Files) *MockDependenciesBuilder {
	b.deps.Files = files
	return b
}

// WithSalts sets the salt source
func (b *MockDependenciesBuilder) WithSalts(src salt.Source) *MockDependenciesBuilder {
	b.deps.SaltFactory = &MockSaltFactory{Salts: src}
	return b
}

// WithAnswers sets the prompt answers: line input and hidden input
func (b *MockDependenciesBuilder) WithAnswers(lines []string, passwords ...string) *MockDependenciesBuilder {
	b.deps.StdinReader = input.NewStringReader(lines...)
	b.deps.PasswordReader = input.NewStaticPasswords(passwords...)
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}
