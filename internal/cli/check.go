package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/executor"
	"github.com/ksyq12/wpstack/internal/fsys"
	"github.com/ksyq12/wpstack/internal/output"
	"github.com/ksyq12/wpstack/internal/packages"
	"github.com/ksyq12/wpstack/internal/platform"
	"github.com/ksyq12/wpstack/internal/ssl"
)

var checkDomain string

var checkCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"doctor"},
	Short:   "Check host readiness and the provisioned site",
	Long: `Run diagnostic checks on the host and, with --domain, on a provisioned site.

Checks:
  - Distribution (Debian or Ubuntu)
  - Nginx, MariaDB, PHP-FPM and Certbot installation
  - Nginx, MariaDB and PHP-FPM service status
  - Site config, enabled link, WordPress files and certificate

Examples:
  wpstack check
  wpstack check --domain example.com --json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkDomain, "domain", "", "Also check the site for this domain")
	rootCmd.AddCommand(checkCmd)
}

// Check statuses
const (
	statusSuccess = "success"
	statusWarning = "warning"
	statusError   = "error"
)

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// CheckReport contains all diagnostic results
type CheckReport struct {
	Host     string        `json:"host"`
	System   []CheckResult `json:"system_requirements"`
	Services []CheckResult `json:"services"`
	Site     []CheckResult `json:"site,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	report := &CheckReport{}
	report.Host, report.System = checkPlatform()
	report.System = append(report.System, checkSystemRequirements(ctx, deps.Executor, *settings)...)
	report.Services = checkServices(ctx, deps.Executor, *settings)
	if checkDomain != "" {
		report.Site = checkSite(deps.Files, *settings, checkDomain)
	}

	if jsonOutput {
		return output.JSON(report)
	}

	displayCheckResults(report)
	return nil
}

func checkPlatform() (string, []CheckResult) {
	host, err := deps.PlatformDetector.Detect()
	if err != nil {
		return "", []CheckResult{{Status: statusError, Message: fmt.Sprintf("Platform detection failed: %v", err)}}
	}
	if err := platform.RequireDebian(host); err != nil {
		return host.String(), []CheckResult{{Status: statusError, Message: fmt.Sprintf("%s is not supported", host)}}
	}
	return host.String(), []CheckResult{{Status: statusSuccess, Message: fmt.Sprintf("%s supported", host)}}
}

func checkSystemRequirements(ctx context.Context, exec executor.CommandExecutor, s config.Settings) []CheckResult {
	results := []CheckResult{}

	// Version extraction patterns
	versionPatterns := map[string]*regexp.Regexp{
		"nginx":   regexp.MustCompile(`nginx/(\d+\.\d+\.\d+)`),
		"mariadb": regexp.MustCompile(`(\d+\.\d+\.\d+)-MariaDB`),
		"php":     regexp.MustCompile(`PHP (\d+\.\d+\.\d+)`),
		"certbot": regexp.MustCompile(`certbot (\d+\.\d+\.\d+)`),
	}

	components := []struct {
		name        string
		binary      string
		versionFlag string
		pattern     string
		optional    bool
	}{
		{"Nginx", "nginx", "-v", "nginx", false},
		{"MariaDB", "mariadb", "--version", "mariadb", false},
		{"PHP-FPM " + s.PHPVersion, "php-fpm" + s.PHPVersion, "-v", "php", false},
		{"Certbot", "certbot", "--version", "certbot", true},
	}

	for _, c := range components {
		if _, err := exec.LookPath(c.binary); err != nil {
			status := statusError
			suffix := ""
			if c.optional {
				status = statusWarning
				suffix = " (installed during provisioning)"
			}
			results = append(results, CheckResult{
				Status:  status,
				Message: fmt.Sprintf("%s not installed%s", c.name, suffix),
			})
			continue
		}

		version := "unknown"
		if out, err := exec.Execute(ctx, c.binary, c.versionFlag); err == nil {
			if matches := versionPatterns[c.pattern].FindStringSubmatch(string(out)); len(matches) >= 2 {
				version = matches[1]
			}
		}
		results = append(results, CheckResult{
			Status:  statusSuccess,
			Message: fmt.Sprintf("%s installed (%s)", c.name, version),
		})
	}

	return results
}

func checkServices(ctx context.Context, exec executor.CommandExecutor, s config.Settings) []CheckResult {
	systemd := packages.NewSystemd(exec)
	results := []CheckResult{}
	for _, unit := range []string{"nginx", "mariadb", s.PHPFPMService()} {
		if systemd.IsActive(ctx, unit) {
			results = append(results, CheckResult{Status: statusSuccess, Message: unit + " running"})
		} else {
			results = append(results, CheckResult{Status: statusError, Message: unit + " not running"})
		}
	}
	return results
}

func checkSite(files fsys.Files, s config.Settings, domain string) []CheckResult {
	root := s.DocumentRoot(domain)
	checks := []struct {
		path    string
		ok      string
		missing string
		status  string
	}{
		{filepath.Join(s.NginxAvailable, domain), "Site config present", "Site config missing", statusError},
		{filepath.Join(s.NginxEnabled, domain), "Site enabled", "Site not enabled", statusError},
		{filepath.Join(root, "wp-includes", "version.php"), "WordPress installed in " + root, "WordPress not installed in " + root, statusError},
		{filepath.Join(root, "wp-config.php"), "wp-config.php present", "wp-config.php missing", statusError},
		{ssl.GetCertPaths(domain).CertPath, "Certificate present", "No certificate for " + domain, statusWarning},
	}

	results := []CheckResult{}
	for _, c := range checks {
		if files.Exists(c.path) {
			results = append(results, CheckResult{Status: statusSuccess, Message: c.ok})
		} else {
			results = append(results, CheckResult{Status: c.status, Message: c.missing})
		}
	}
	return results
}

func displayCheckResults(report *CheckReport) {
	output.Print("Checking system requirements...")
	for _, check := range report.System {
		displayCheck(check)
	}
	output.Print("")

	output.Print("Checking services...")
	for _, check := range report.Services {
		displayCheck(check)
	}

	if len(report.Site) > 0 {
		output.Print("")
		output.Print("Checking site...")
		for _, check := range report.Site {
			displayCheck(check)
		}
	}
}

func displayCheck(check CheckResult) {
	switch check.Status {
	case statusSuccess:
		output.Success("%s", check.Message)
	case statusWarning:
		output.Warn("%s", check.Message)
	case statusError:
		output.Error("%s", check.Message)
	}
}
