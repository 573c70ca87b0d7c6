// Package salt obtains the WordPress authentication keys and salts that go
// into wp-config.php.
//
// Salts fetched from the WordPress secret-key service are untrusted input:
// they are parsed line by line and only a set of exactly the eight expected
// keys, each with a 64 character value free of quotes and backslashes, is
// accepted. The accepted set is re-serialized by Block, so nothing from the
// response body is injected verbatim.
package salt

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"

	"github.com/ksyq12/wpstack/internal/logger"
)

// DefaultURL is the WordPress secret-key service.
const DefaultURL = "https://api.wordpress.org/secret-key/1.1/salt/"

// ValueLength is the length of every salt value.
const ValueLength = 64

// maxBody caps the response size read from the service.
const maxBody = 16 << 10

// Keys lists the salt constants in wp-config.php order.
var Keys = []string{
	"AUTH_KEY",
	"SECURE_AUTH_KEY",
	"LOGGED_IN_KEY",
	"NONCE_KEY",
	"AUTH_SALT",
	"SECURE_AUTH_SALT",
	"LOGGED_IN_SALT",
	"NONCE_SALT",
}

var defineLine = regexp.MustCompile(`^define\(\s*'([A-Z_]+)'\s*,\s*'([^']*)'\s*\);$`)

// Set maps each salt constant to its value.
type Set map[string]string

// Source produces a salt set.
type Source interface {
	Salts(ctx context.Context) (Set, error)
}

// Parse validates a response body from the secret-key service.
func Parse(body string) (Set, error) {
	set := Set{}
	for i, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := defineLine.FindStringSubmatch(line)
		if m == nil {
			return nil, cerr.Newf("line %d is not a define() statement", i+1)
		}
		key, value := m[1], m[2]
		if !isKey(key) {
			return nil, cerr.Newf("line %d: unexpected key %s", i+1, key)
		}
		if _, dup := set[key]; dup {
			return nil, cerr.Newf("line %d: duplicate key %s", i+1, key)
		}
		set[key] = value
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Validate checks that s holds exactly the expected keys with well-formed
// values.
func (s Set) Validate() error {
	if len(s) != len(Keys) {
		return cerr.Newf("expected %d salts, got %d", len(Keys), len(s))
	}
	for _, key := range Keys {
		value, ok := s[key]
		if !ok {
			return cerr.Newf("missing %s", key)
		}
		if len(value) != ValueLength {
			return cerr.Newf("%s: value must be %d characters, got %d", key, ValueLength, len(value))
		}
		if strings.ContainsAny(value, "'\"\\\n\r") {
			return cerr.Newf("%s: value contains a forbidden character", key)
		}
	}
	return nil
}

// Block renders the set as define() lines in Keys order.
func (s Set) Block() string {
	var b strings.Builder
	for _, key := range Keys {
		fmt.Fprintf(&b, "define( '%s', '%s' );\n", key, s[key])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// String hides the values.
func (s Set) String() string {
	return fmt.Sprintf("salt.Set(%d keys)", len(s))
}

func isKey(k string) bool {
	for _, key := range Keys {
		if key == k {
			return true
		}
	}
	return false
}

// Fetcher downloads salts from the secret-key service.
type Fetcher struct {
	URL    string
	Client *resty.Client
}

// NewFetcher creates a fetcher for url with a client timeout.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	return &Fetcher{
		URL: url,
		Client: resty.New().
			SetTimeout(timeout).
			SetResponseBodyLimit(maxBody),
	}
}

// Salts fetches and validates a salt set.
func (f *Fetcher) Salts(ctx context.Context) (Set, error) {
	logger.Debug("fetching salts from %s", f.URL)
	resp, err := f.Client.R().SetContext(ctx).Get(f.URL)
	if err != nil {
		if cerr.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, cerr.Newf("rejected salt response: larger than %d bytes", maxBody)
		}
		return nil, cerr.WithHint(cerr.Wrap(err, "failed to fetch salts"),
			"check outbound HTTPS access to api.wordpress.org")
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, cerr.Newf("salt service returned %s", resp.Status())
	}

	set, err := Parse(resp.String())
	if err != nil {
		return nil, cerr.Wrap(err, "rejected salt response")
	}
	return set, nil
}

// charset excludes quotes, backslashes and whitespace.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_[]{}<>~`+=,.;:/?|"

// Local generates salts with crypto/rand, without network access.
type Local struct{}

// Salts returns a freshly generated set.
func (Local) Salts(_ context.Context) (Set, error) {
	set := Set{}
	max := big.NewInt(int64(len(charset)))
	for _, key := range Keys {
		buf := make([]byte, ValueLength)
		for i := range buf {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return nil, cerr.Wrap(err, "failed to generate salt")
			}
			buf[i] = charset[n.Int64()]
		}
		set[key] = string(buf)
	}
	return set, nil
}
