// Package yaml loads export tuning from a YAML file using gopkg.in/yaml.v3.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/goquery"
	"gopkg.in/yaml.v3"
)

// Config holds crawl tuning that is awkward to pass as flags.
// Zero values mean "use the default".
type Config struct {
	DocsPrefix   string          `yaml:"docs_prefix"`
	RatePerSec   float64         `yaml:"rate"`
	MaxRoutes    int             `yaml:"max_routes"`
	FetchTimeout time.Duration   `yaml:"fetch_timeout"`
	RetryDelays  []time.Duration `yaml:"retry_delays"`
	Include      []string        `yaml:"include"`
	Exclude      []string        `yaml:"exclude"`
	ContentFrame *FrameConfig    `yaml:"content_frame"`
	Rules        []RuleConfig    `yaml:"rules"`
}

// FrameConfig identifies the content frame element.
type FrameConfig struct {
	Tag string `yaml:"tag"`
	ID  string `yaml:"id"`
}

// RuleConfig is one reference extraction rule.
type RuleConfig struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr"`
	Mode     string `yaml:"mode"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sitexport.Errorf(sitexport.ENOTFOUND, "config file %q not found", path)
	} else if err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a config document. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, sitexport.Errorf(sitexport.EINVALID, "unable to parse config file: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and extraction rules.
func (c *Config) Validate() error {
	if c.RatePerSec < 0 {
		return sitexport.Errorf(sitexport.EINVALID, "rate must not be negative")
	}
	if c.MaxRoutes < 0 {
		return sitexport.Errorf(sitexport.EINVALID, "max_routes must not be negative")
	}
	if c.FetchTimeout < 0 {
		return sitexport.Errorf(sitexport.EINVALID, "fetch_timeout must not be negative")
	}
	for _, d := range c.RetryDelays {
		if d < 0 {
			return sitexport.Errorf(sitexport.EINVALID, "retry_delays must not be negative")
		}
	}
	if c.ContentFrame != nil && c.ContentFrame.ID == "" {
		return sitexport.Errorf(sitexport.EINVALID, "content_frame requires an id")
	}
	_, err := c.ExtractionRules()
	return err
}

// ExtractionRules converts the configured rules. Without configured rules
// it returns the default table, with frame sources read from the configured
// content frame tag.
func (c *Config) ExtractionRules() ([]goquery.ExtractionRule, error) {
	if len(c.Rules) == 0 {
		return goquery.DefaultRulesFor(c.Fragments().Tag), nil
	}
	rules := make([]goquery.ExtractionRule, 0, len(c.Rules))
	for _, rc := range c.Rules {
		mode := goquery.ExtractMode(rc.Mode)
		if mode == "" {
			mode = goquery.ModeAttr
		}
		rule := goquery.ExtractionRule{Selector: rc.Selector, Attr: rc.Attr, Mode: mode}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Fragments returns the content frame extractor described by the config.
func (c *Config) Fragments() *goquery.Fragments {
	f := goquery.NewFragments()
	if c.ContentFrame != nil {
		if c.ContentFrame.Tag != "" {
			f.Tag = c.ContentFrame.Tag
		}
		f.ID = c.ContentFrame.ID
	}
	return f
}
