// Package config loads the settings for the netlify-ddns daemon.
//
// Settings come from an optional YAML file and from environment variables,
// with environment variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// Environment variable names.
const (
	EnvAccessToken   = "NETLIFY_ACCESS_TOKEN"
	EnvDomainPrefix  = "DOMAIN_" // DOMAIN_01, DOMAIN_02, ...
	EnvCheckInterval = "CHECK_INTERVAL"
	EnvEnableLogging = "ENABLE_LOGGING"
	EnvConfigPath    = "DDNS_CONFIG_PATH"
)

const (
	// DefaultCheckInterval is used when CHECK_INTERVAL is unset or invalid.
	DefaultCheckInterval = 1800 * time.Second

	// MinTokenLength rejects obviously truncated access tokens.
	MinTokenLength = 20
)

// Config is the desired state for the daemon. It is created once at startup.
type Config struct {
	AccessToken   string
	Domains       []string
	CheckInterval time.Duration
	EnableLogging bool
	IPServices    []string // empty means the library defaults
}

// fileConfig is the YAML layout.
type fileConfig struct {
	AccessToken   string   `yaml:"access_token"`
	Domains       []string `yaml:"domains"`
	CheckInterval *int     `yaml:"check_interval"`
	EnableLogging *bool    `yaml:"enable_logging"`
	IPServices    []string `yaml:"ip_services"`
}

// Default returns the configuration used before any source is applied.
func Default() *Config {
	return &Config{CheckInterval: DefaultCheckInterval, EnableLogging: true}
}

// Load builds the configuration from the YAML file at path (skipped if path is empty)
// and then from the environment. It does not validate; call Validate once every token
// source has been consulted.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.Environ())
	return cfg, nil
}

// LoadFile reads only the YAML file at path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	// Expand ${ENV_VAR} references so secrets can stay out of the file.
	if fc.AccessToken != "" {
		c.AccessToken = os.ExpandEnv(fc.AccessToken)
	}
	for _, d := range fc.Domains {
		if d = normalizeDomain(os.ExpandEnv(d)); d != "" {
			c.Domains = append(c.Domains, d)
		}
	}
	if fc.CheckInterval != nil && *fc.CheckInterval > 0 {
		c.CheckInterval = time.Duration(*fc.CheckInterval) * time.Second
	}
	if fc.EnableLogging != nil {
		c.EnableLogging = *fc.EnableLogging
	}
	c.IPServices = append(c.IPServices, fc.IPServices...)
	return nil
}

// applyEnv overlays environment variables given as KEY=value pairs.
// Unparsable CHECK_INTERVAL and ENABLE_LOGGING values leave the current setting alone.
func (c *Config) applyEnv(environ []string) {
	env := make(map[string]string, len(environ))
	type domainKey struct {
		key string
		n   int
	}
	var domainKeys []domainKey
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
		if n, ok := domainIndex(k); ok {
			domainKeys = append(domainKeys, domainKey{key: k, n: n})
		}
	}

	if v := env[EnvAccessToken]; v != "" {
		c.AccessToken = v
	}

	if len(domainKeys) > 0 {
		// numeric order, so DOMAIN_2 comes before DOMAIN_10
		sort.Slice(domainKeys, func(i, j int) bool {
			if domainKeys[i].n != domainKeys[j].n {
				return domainKeys[i].n < domainKeys[j].n
			}
			return domainKeys[i].key < domainKeys[j].key
		})
		var domains []string
		for _, dk := range domainKeys {
			if d := normalizeDomain(env[dk.key]); d != "" {
				domains = append(domains, d)
			}
		}
		if len(domains) > 0 {
			c.Domains = domains
		}
	}

	if v, ok := env[EnvCheckInterval]; ok {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
			c.CheckInterval = time.Duration(secs) * time.Second
		}
	}
	if v, ok := env[EnvEnableLogging]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.EnableLogging = b
		}
	}
}

// domainIndex reports the number of a DOMAIN_<digits> variable.
// Other DOMAIN_ variables such as DOMAIN_NAME are not domain entries.
func domainIndex(key string) (int, bool) {
	suffix, ok := strings.CutPrefix(key, EnvDomainPrefix)
	if !ok || suffix == "" || strings.TrimLeft(suffix, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeDomain trims whitespace and the root label dot of a fully qualified name,
// since Netlify hostnames never carry it.
func normalizeDomain(d string) string {
	return strings.TrimSuffix(strings.TrimSpace(d), ".")
}

// ValidateToken checks only the access token, for commands that manage no domains.
func (c *Config) ValidateToken() error {
	switch token := strings.TrimSpace(c.AccessToken); {
	case token == "":
		return fmt.Errorf("missing access token: set %s, use a key file, or run setup", EnvAccessToken)
	case len(token) < MinTokenLength:
		return fmt.Errorf("access token is shorter than %d characters", MinTokenLength)
	}
	return nil
}

// Validate reports every missing or malformed required setting.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ValidateToken(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Domains) == 0 {
		errs = append(errs, fmt.Errorf("no domains configured: set %s01 or list domains in the config file", EnvDomainPrefix))
	}
	for _, d := range c.Domains {
		switch {
		case strings.HasPrefix(d, ".") || strings.HasSuffix(d, ".") || strings.Contains(d, ".."):
			errs = append(errs, fmt.Errorf("domain %q has an empty label", d))
		case !strings.Contains(d, "."):
			errs = append(errs, fmt.Errorf("domain %q must have at least one dot", d))
		}
	}
	if c.CheckInterval <= 0 {
		errs = append(errs, errors.New("check interval must be positive"))
	}
	return errors.Join(errs...)
}
