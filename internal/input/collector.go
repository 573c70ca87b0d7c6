package input

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ksyq12/wpstack/internal/config"
	"github.com/ksyq12/wpstack/internal/errors"
	"github.com/ksyq12/wpstack/internal/logger"
)

// Collector prompts the operator for the provisioning answers.
type Collector struct {
	in      Reader
	secrets PasswordReader
	out     io.Writer
}

// NewCollector creates a Collector. Prompts are written to out.
func NewCollector(in Reader, secrets PasswordReader, out io.Writer) *Collector {
	return &Collector{in: in, secrets: secrets, out: out}
}

// Collect asks every question once and returns the validated config.
// A blank required answer fails immediately; there are no retries.
func (c *Collector) Collect() (config.ProvisioningConfig, error) {
	var raw config.ProvisioningConfig
	var err error

	if raw.Domain, err = c.ask("domain", "Domain name (e.g. example.com)", "", true); err != nil {
		return raw, err
	}
	if raw.DBName, err = c.ask("db_name", "Database name", config.DefaultDBName, false); err != nil {
		return raw, err
	}
	if raw.DBUser, err = c.ask("db_user", "Database user", config.DefaultDBUser, false); err != nil {
		return raw, err
	}
	if raw.DBPassword, err = c.askSecret("db_password", "Database password"); err != nil {
		return raw, err
	}
	if raw.AdminEmail, err = c.ask("admin_email", "Admin email (for Let's Encrypt)", "", true); err != nil {
		return raw, err
	}
	if raw.Username, err = c.ask("username", "New admin username", config.DefaultUsername, false); err != nil {
		return raw, err
	}
	if raw.UserPassword, err = c.askSecret("user_password", "New admin password"); err != nil {
		return raw, err
	}

	cfg, err := config.New(raw)
	if err != nil {
		return config.ProvisioningConfig{}, err
	}
	logger.InfoFields("Collected answers", cfg.LogFields())
	return cfg, nil
}

func (c *Collector) ask(field, label, def string, required bool) (string, error) {
	if def != "" {
		fmt.Fprintf(c.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(c.out, "%s: ", label)
	}

	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", field, err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" && required {
		return "", errors.Validation(field, "value is required")
	}
	return answer, nil
}

func (c *Collector) askSecret(field, label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	secret, err := c.secrets.ReadPassword()
	fmt.Fprintln(c.out)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", field, err)
	}
	if strings.TrimSpace(secret) == "" {
		return "", errors.Validation(field, "value is required")
	}
	return secret, nil
}

// LoadAnswers reads the answers from a YAML file instead of prompting.
// Defaults and validation are the same as for Collect.
func LoadAnswers(path string) (config.ProvisioningConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.ProvisioningConfig{}, fmt.Errorf("failed to read answers: %w", err)
	}

	var raw config.ProvisioningConfig
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return config.ProvisioningConfig{}, errors.Validation("", "cannot parse answers file: "+err.Error())
	}

	cfg, err := config.New(raw)
	if err != nil {
		return config.ProvisioningConfig{}, err
	}
	logger.InfoFields("Loaded answers", cfg.LogFields())
	return cfg, nil
}
