package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/logger"
	"github.com/ksyq12/wpstack/internal/output"
)

// setupCLI installs d as the package dependencies, resets every flag and
// captures output. Everything is restored when the test ends.
func setupCLI(t *testing.T, d *Dependencies) *bytes.Buffer {
	t.Helper()

	oldDeps := deps
	deps = d
	resetFlags()

	var buf bytes.Buffer
	output.SetOutput(&buf)
	logger.SetOutput(io.Discard)

	t.Cleanup(func() {
		deps = oldDeps
		resetFlags()
		output.SetOutput(nil)
		logger.SetOutput(nil)
	})
	return &buf
}

func resetFlags() {
	jsonOutput = false
	verbose = false
	answersPath = ""
	configPath = config.DefaultConfigPath
	envPath = config.DefaultEnvPath
	checkDomain = ""
}

// writeAnswers writes an answers file and returns its path
func writeAnswers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validAnswers = `domain: example.com
db_name: ""
db_user: ""
db_password: s3cret-db
admin_email: a@b.com
user_password: s3cret-user
`

// interactiveAnswers are the prompt answers of a run with all defaults
var interactiveAnswers = []string{"example.com\n", "\n", "\n", "a@b.com\n", "\n"}

// run executes the CLI with args; no args must not fall back to os.Args
func run(args ...string) int {
	if args == nil {
		args = []string{}
	}
	return Run(context.Background(), args)
}
