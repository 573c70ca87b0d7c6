package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap/zapcore"

	"github.com/ksyq12/wpstack/internal/errors"
)

// Defaults applied to blank operator answers.
const (
	DefaultDBName   = "wordpress"
	DefaultDBUser   = "wordpress"
	DefaultUsername = "wpadmin"
)

const redacted = "********"

// ProvisioningConfig holds the operator answers that drive one run.
// It is created once, validated, and passed by value afterwards.
type ProvisioningConfig struct {
	Domain       string `yaml:"domain" validate:"required,fqdn"`
	DBName       string `yaml:"db_name" validate:"required,sqlident"`
	DBUser       string `yaml:"db_user" validate:"required,sqluser"`
	DBPassword   string `yaml:"db_password" validate:"required,singleline"`
	AdminEmail   string `yaml:"admin_email" validate:"required,email"`
	Username     string `yaml:"username" validate:"required,unixuser"`
	UserPassword string `yaml:"user_password" validate:"required,singleline"`
}

var (
	sqlIdentRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)
	sqlUserRe  = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)
	unixUserRe = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("sqlident", regexValidator(sqlIdentRe))
		_ = v.RegisterValidation("sqluser", regexValidator(sqlUserRe))
		_ = v.RegisterValidation("unixuser", regexValidator(unixUserRe))
		_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
			return !strings.ContainsAny(fl.Field().String(), "\r\n\x00")
		})
		validate = v
	})
	return validate
}

func regexValidator(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// WithDefaults returns a copy with surrounding whitespace trimmed from
// non-secret fields and defaults applied to blank database name, database
// user and username answers. Passwords are kept verbatim.
func (c ProvisioningConfig) WithDefaults() ProvisioningConfig {
	c.Domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(c.Domain)), ".")
	c.DBName = defaultIfBlank(c.DBName, DefaultDBName)
	c.DBUser = defaultIfBlank(c.DBUser, DefaultDBUser)
	c.AdminEmail = strings.TrimSpace(c.AdminEmail)
	c.Username = defaultIfBlank(c.Username, DefaultUsername)
	return c
}

func defaultIfBlank(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// Validate checks every field and returns the first problem as a
// *errors.ValidationError.
func (c ProvisioningConfig) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Validation("", err.Error())
	}
	fe := fieldErrs[0]
	return errors.Validation(fe.Field(), describeRule(fe.Tag()))
}

func describeRule(tag string) string {
	switch tag {
	case "required":
		return "value is required"
	case "fqdn":
		return "must be a fully qualified domain name such as example.com"
	case "email":
		return "must be an email address"
	case "sqlident":
		return "use 1-64 letters, digits or underscores"
	case "sqluser":
		return "use 1-32 letters, digits or underscores"
	case "unixuser":
		return "use lowercase letters, digits, underscore or dash, starting with a letter or underscore"
	case "singleline":
		return "must not contain line breaks"
	default:
		return "failed " + tag + " check"
	}
}

// New builds a validated config from raw answers, applying defaults first.
func New(raw ProvisioningConfig) (ProvisioningConfig, error) {
	cfg := raw.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return ProvisioningConfig{}, err
	}
	return cfg, nil
}

// WWWDomain returns the www alias of the domain.
func (c ProvisioningConfig) WWWDomain() string {
	return "www." + c.Domain
}

// String implements fmt.Stringer with passwords redacted.
func (c ProvisioningConfig) String() string {
	return fmt.Sprintf("domain=%s db_name=%s db_user=%s db_password=%s admin_email=%s username=%s user_password=%s",
		c.Domain, c.DBName, c.DBUser, redacted, c.AdminEmail, c.Username, redacted)
}

// GoString keeps %#v from printing secrets.
func (c ProvisioningConfig) GoString() string {
	return "config.ProvisioningConfig{" + c.String() + "}"
}

// LogFields returns the non-secret fields for logger.*Fields.
func (c ProvisioningConfig) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"domain":      c.Domain,
		"db_name":     c.DBName,
		"db_user":     c.DBUser,
		"admin_email": c.AdminEmail,
		"username":    c.Username,
	}
}

// MarshalLogObject implements zapcore.ObjectMarshaler without secrets.
func (c ProvisioningConfig) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("domain", c.Domain)
	enc.AddString("db_name", c.DBName)
	enc.AddString("db_user", c.DBUser)
	enc.AddString("admin_email", c.AdminEmail)
	enc.AddString("username", c.Username)
	return nil
}
