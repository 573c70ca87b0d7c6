package cli

import (
	"context"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/errors"
	"github.com/ksyq12/wpstack/internal/input"
	"github.com/ksyq12/wpstack/internal/logger"
	"github.com/ksyq12/wpstack/internal/output"
	"github.com/ksyq12/wpstack/internal/pipeline"
	"github.com/ksyq12/wpstack/internal/platform"
	"github.com/ksyq12/wpstack/internal/provision"
)

var (
	jsonOutput  bool
	verbose     bool
	answersPath string
	configPath  string
	envPath     string
	version     = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wpstack",
	Short: "Provision a WordPress LEMP stack on this host",
	Long: `wpstack turns a fresh Debian or Ubuntu host into a WordPress server.

It asks for the site domain, database credentials, an admin e-mail and a new
sudo user, then installs and configures Nginx with FastCGI caching, MariaDB,
PHP-FPM and WordPress, and obtains a Let's Encrypt certificate.

Steps run in order and the run stops at the first failure. Every step is safe
to run again.

Examples:
  sudo wpstack
  sudo wpstack --answers site.yaml --json
  wpstack plan --answers site.yaml
  wpstack check --domain example.com`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runProvision,
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	return Run(ctx, nil)
}

// Run executes the CLI with args (nil means os.Args) and returns the exit
// code: 0 on success, 1 on any failure.
func Run(ctx context.Context, args []string) int {
	if args != nil {
		rootCmd.SetArgs(args)
	}
	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		reportError(err)
		return 1
	}
	return 0
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	// Initialize logger based on verbose flag (parsed by cobra)
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
	rootCmd.PersistentFlags().StringVar(&answersPath, "answers", "", "Read answers from a YAML file instead of prompting")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Settings file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", config.DefaultEnvPath, "Environment file loaded before settings")
}

// reportError prints the failure, naming the failed step when there is one
func reportError(err error) {
	var stepErr *errors.StepError
	if errors.As(err, &stepErr) {
		output.Error("Provisioning failed at step %q", stepErr.Step)
		output.Print("  %v", stepErr.Err)
	} else {
		output.Error("%v", err)
	}
	for _, hint := range cerr.GetAllHints(err) {
		output.Print("  hint: %s", hint)
	}
	logger.DebugFields("run failed", map[string]interface{}{
		"code":  string(errors.CodeOf(err)),
		"error": err.Error(),
	})
}

// loadSettings reads the settings sources named by the flags
func loadSettings() (*config.Settings, error) {
	settings, err := deps.SettingsLoader.Load(configPath, envPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("settings: php %s, web root %s", settings.PHPVersion, settings.WebRoot)
	return settings, nil
}

// collectAnswers reads the operator's answers from --answers or the prompts
func collectAnswers() (config.ProvisioningConfig, error) {
	if answersPath != "" {
		return input.LoadAnswers(answersPath)
	}
	return input.NewCollector(deps.StdinReader, deps.PasswordReader, deps.Prompt).Collect()
}

// RunResult is the JSON document printed by a provisioning run
type RunResult struct {
	Success bool            `json:"success"`
	Domain  string          `json:"domain"`
	Report  pipeline.Report `json:"report"`
	Error   string          `json:"error,omitempty"`
}

func runProvision(cmd *cobra.Command, args []string) error {
	if err := deps.RootChecker.RequireRoot(); err != nil {
		return err
	}

	host, err := deps.PlatformDetector.Detect()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to detect platform", err)
	}
	if err := platform.RequireDebian(host); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "unsupported host", err)
	}
	logger.Debug("detected %s", host)

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cfg, err := collectAnswers()
	if err != nil {
		return err
	}

	prov := provision.New(cfg, provision.Deps{
		Exec:     deps.Executor,
		Files:    deps.Files,
		Salts:    deps.SaltFactory.Source(*settings),
		Settings: *settings,
	})
	pl := prov.Pipeline()
	if !jsonOutput {
		pl.WithObserver(progress{})
		output.Info("Provisioning %s on %s", cfg.Domain, host)
	}

	runErr := pl.Execute(cmd.Context())
	report := pl.Report()

	if jsonOutput {
		result := RunResult{Success: runErr == nil, Domain: cfg.Domain, Report: report}
		if runErr != nil {
			result.Error = runErr.Error()
		}
		if err := output.JSON(result); err != nil {
			return err
		}
		return runErr
	}
	output.Print("")
	displayReport(report)
	if runErr != nil {
		return runErr
	}

	output.Print("")
	output.Success("WordPress is ready at https://%s (%v)", cfg.Domain, report.Duration)
	output.Print("Finish the installation in your browser; database credentials are in %s/wp-config.php", prov.DocumentRoot())
	return nil
}

// displayReport prints one row per step
func displayReport(report pipeline.Report) {
	headers := []string{"STEP", "STATE", "DURATION"}
	rows := make([][]string, 0, len(report.Steps))
	for _, step := range report.Steps {
		duration := "-"
		if step.State == pipeline.Succeeded || step.State == pipeline.Failed {
			duration = step.Duration.Round(time.Millisecond).String()
		}
		rows = append(rows, []string{step.Name, string(step.State), duration})
	}
	output.Table(headers, rows)
}

// progress prints step progress as the pipeline runs
type progress struct{}

func (progress) StepStarted(index, total int, name string) {
	output.Step(index, total, name)
}

func (progress) StepFinished(_, _ int, name string, elapsed time.Duration, err error) {
	output.StepDone(name, elapsed, err)
}
