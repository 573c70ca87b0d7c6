package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksyq12/wpstack/internal/executor"
	"github.com/ksyq12/wpstack/internal/fsys"
	"github.com/ksyq12/wpstack/internal/output"
	"github.com/ksyq12/wpstack/internal/provision"
	"github.com/ksyq12/wpstack/internal/salt"
	"github.com/ksyq12/wpstack/internal/template"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a provisioning run would do",
	Long: `Walk through every provisioning step against a simulated host and print
the commands each step would run and the files it would write. Nothing on
this host is changed and no root privileges are needed.

Secrets are never printed: commands that receive one on stdin are marked.
The simulated host has no admin user and no existing site, so the plan
shows a first run.

Examples:
  wpstack plan
  wpstack plan --answers site.yaml
  wpstack plan --answers site.yaml --json`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

// PlannedStep is one step of a plan
type PlannedStep struct {
	Name     string   `json:"name"`
	Commands []string `json:"commands"`
	Files    []string `json:"files,omitempty"`
}

// Plan is the result of a dry run
type Plan struct {
	Domain string        `json:"domain"`
	Steps  []PlannedStep `json:"steps"`
	VHost  string        `json:"vhost"`
}

// recorder splits the simulated calls and writes by step
type recorder struct {
	exec  *executor.MockExecutor
	files *fsys.Mem
	steps []PlannedStep
	calls int
	seen  map[string]bool
}

func (r *recorder) StepStarted(_, _ int, name string) {
	r.steps = append(r.steps, PlannedStep{Name: name, Commands: []string{}})
	r.calls = len(r.exec.Calls)
}

func (r *recorder) StepFinished(_, _ int, _ string, _ time.Duration, _ error) {
	step := &r.steps[len(r.steps)-1]
	for _, c := range r.exec.Calls[r.calls:] {
		line := c.Line()
		if c.Stdin != "" {
			line += " <<< [stdin redacted]"
		}
		step.Commands = append(step.Commands, line)
	}
	for _, p := range r.files.Paths("/") {
		if e, _ := r.files.Entry(p); !e.Dir && !r.seen[p] {
			r.seen[p] = true
			step.Files = append(step.Files, p)
		}
	}
}

// simulatedExecutor behaves like a fresh host: the admin user does not exist
func simulatedExecutor() *executor.MockExecutor {
	return &executor.MockExecutor{
		ExecuteFunc: func(name string, args ...string) ([]byte, error) {
			if name == "id" {
				return nil, fmt.Errorf("no such user")
			}
			return nil, nil
		},
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cfg, err := collectAnswers()
	if err != nil {
		return err
	}

	rec := &recorder{
		exec:  simulatedExecutor(),
		files: fsys.NewMem(),
		seen:  map[string]bool{},
	}
	prov := provision.New(cfg, provision.Deps{
		Exec:     rec.exec,
		Files:    rec.files,
		Salts:    salt.Local{},
		Settings: *settings,
	})
	if err := prov.Pipeline().WithObserver(rec).Execute(cmd.Context()); err != nil {
		return err
	}

	vhost, err := template.RenderVHost(cfg, *settings)
	if err != nil {
		return err
	}

	plan := Plan{Domain: cfg.Domain, Steps: rec.steps, VHost: vhost.Content}
	if jsonOutput {
		return output.JSON(plan)
	}
	displayPlan(plan)
	return nil
}

func displayPlan(plan Plan) {
	output.Info("Provisioning plan for %s", plan.Domain)
	output.Print("")
	for i, step := range plan.Steps {
		output.Step(i+1, len(plan.Steps), step.Name)
		for _, c := range step.Commands {
			output.Print("    $ %s", c)
		}
		for _, f := range step.Files {
			output.Print("    write %s", f)
		}
	}
	output.Print("")
	output.Info("Nginx virtual host")
	output.Print("%s", strings.TrimRight(plan.VHost, "\n"))
}
