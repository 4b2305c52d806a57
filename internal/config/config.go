// Package config loads the description of the network identity and the sites to certify.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "certgen.toml"

const (
	DefaultRootCAName         = "root_ca"
	DefaultRootCAValidityDays = 365 * 100
	DefaultSiteValidityDays   = 365 * 2
)

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// logical names become file names
var logicalNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Config is the full provisioning description.
type Config struct {
	Network Network          `toml:"network" yaml:"network"`
	Sites   map[string]*Site `toml:"sites" yaml:"sites"`
}

// Network carries the organization level naming fields and the CA defaults.
type Network struct {
	Name               string `toml:"name" yaml:"name"`
	Email              string `toml:"email" yaml:"email"`
	Country            string `toml:"country,omitempty" yaml:"country,omitempty"`
	Province           string `toml:"province,omitempty" yaml:"province,omitempty"`
	RootCAName         string `toml:"root_ca_name" yaml:"root_ca_name"`
	RootCAValidityDays int    `toml:"root_ca_validity_days" yaml:"root_ca_validity_days"`
}

// Site describes one leaf certificate. The logical name is the key in Config.Sites.
type Site struct {
	Name            string   `toml:"name,omitempty" yaml:"name,omitempty"`
	CrtValidityDays int      `toml:"crt_validity_days" yaml:"crt_validity_days"`
	AltNames        []string `toml:"alt_names" yaml:"alt_names"`
}

// Load reads the file at path, choosing the format by extension, applies defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read configuration file %s: %w", path, err)
	}

	cfg, err := Parse(data, Format(path))
	if err != nil {
		return nil, fmt.Errorf("configuration file %s: %w", path, err)
	}

	return cfg, nil
}

// Format returns "yaml" for .yaml and .yml files and "toml" otherwise.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// Parse decodes data in the given format, applies defaults and validates.
func Parse(data []byte, format string) (*Config, error) {
	cfg := &Config{}

	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills in unset CA and site defaults.
func (c *Config) ApplyDefaults() {
	if c.Network.RootCAName == "" {
		c.Network.RootCAName = DefaultRootCAName
	}
	if c.Network.RootCAValidityDays == 0 {
		c.Network.RootCAValidityDays = DefaultRootCAValidityDays
	}
	if c.Sites == nil {
		c.Sites = make(map[string]*Site)
	}
	for _, site := range c.Sites {
		if site != nil && site.CrtValidityDays == 0 {
			site.CrtValidityDays = DefaultSiteValidityDays
		}
	}
}

// Validate checks required fields, validity periods and logical names.
func (c *Config) Validate() error {
	var errs []error

	if c.Network.Name == "" {
		errs = append(errs, errors.New("network.name is required"))
	}
	if c.Network.Email == "" {
		errs = append(errs, errors.New("network.email is required"))
	}
	if c.Network.Country != "" && len(c.Network.Country) != 2 {
		errs = append(errs, fmt.Errorf("network.country must be a two letter code, got %q", c.Network.Country))
	}
	if !logicalNameRe.MatchString(c.Network.RootCAName) {
		errs = append(errs, fmt.Errorf("network.root_ca_name %q is not a valid file name", c.Network.RootCAName))
	}
	if c.Network.RootCAValidityDays <= 0 {
		errs = append(errs, fmt.Errorf("network.root_ca_validity_days must be positive, got %d", c.Network.RootCAValidityDays))
	}

	for _, name := range c.SiteNames() {
		site := c.Sites[name]
		switch {
		case site == nil:
			errs = append(errs, fmt.Errorf("sites.%s is empty", name))
			continue
		case !logicalNameRe.MatchString(name):
			errs = append(errs, fmt.Errorf("site name %q is not a valid file name", name))
		case name == c.Network.RootCAName:
			errs = append(errs, fmt.Errorf("site name %q collides with root_ca_name", name))
		}
		if site.CrtValidityDays <= 0 {
			errs = append(errs, fmt.Errorf("sites.%s.crt_validity_days must be positive, got %d", name, site.CrtValidityDays))
		}
		if len(site.AltNames) == 0 {
			errs = append(errs, fmt.Errorf("sites.%s.alt_names must list at least one DNS name", name))
		}
		for _, altName := range site.AltNames {
			if strings.TrimSpace(altName) == "" {
				errs = append(errs, fmt.Errorf("sites.%s.alt_names contains an empty name", name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

// SiteNames returns the logical site names in lexicographic order.
func (c *Config) SiteNames() []string {
	names := make([]string, 0, len(c.Sites))
	for name := range c.Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
