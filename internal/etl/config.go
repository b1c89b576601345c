// Package etl turns raw registration rows into normalized, validated entity
// collections. Every function here is a pure function of its inputs and the
// Config value; nothing in the package touches the database.
package etl

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/noah-isme/registration-etl/pkg/config"
)

// DefaultMinAge is the minimum student age accepted by validation.
const DefaultMinAge = 16

// Config carries the lookup tables and policies used by normalization,
// validation and entity extraction.
type Config struct {
	// DepartmentAliases maps folded aliases to canonical department names.
	DepartmentAliases map[string]string
	// DepartmentHeads maps canonical department names to their head.
	DepartmentHeads map[string]string
	PhonePolicy     PhonePolicy
	MinAge          int
	Now             func() time.Time
}

// Option customises a Config.
type Option func(*Config)

// WithPhonePolicy replaces the phone number policy.
func WithPhonePolicy(p PhonePolicy) Option {
	return func(c *Config) { c.PhonePolicy = p }
}

// WithMinAge sets the minimum accepted age.
func WithMinAge(age int) Option {
	return func(c *Config) {
		if age > 0 {
			c.MinAge = age
		}
	}
}

// WithClock sets the clock used for age calculation.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.Now = now
		}
	}
}

// NewConfig builds a Config from a department directory.
func NewConfig(dir config.DepartmentDirectory, opts ...Option) Config {
	cfg := Config{
		DepartmentAliases: make(map[string]string),
		DepartmentHeads:   dir.Heads(),
		PhonePolicy:       IndianMobile,
		MinAge:            DefaultMinAge,
		Now:               time.Now,
	}
	for alias, name := range dir.Aliases() {
		cfg.DepartmentAliases[foldKey(alias)] = name
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Config) minAge() int {
	if c.MinAge <= 0 {
		return DefaultMinAge
	}
	return c.MinAge
}

// foldKey produces the case-insensitive lookup key for aliases.
func foldKey(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// PhonePolicy decides whether an optional phone number is acceptable.
type PhonePolicy interface {
	Name() string
	// Violation describes why phone is rejected, or returns "" when it is accepted.
	Violation(phone string) string
}

var nonDigit = regexp.MustCompile(`\D`)

type digitsPolicy struct {
	name    string
	pattern *regexp.Regexp
	rule    string
}

func (p digitsPolicy) Name() string { return p.name }

func (p digitsPolicy) Violation(phone string) string {
	digits := nonDigit.ReplaceAllString(phone, "")
	if p.pattern.MatchString(digits) {
		return ""
	}
	return fmt.Sprintf("Invalid phone number: %s (%s)", phone, p.rule)
}

type anyPhone struct{}

func (anyPhone) Name() string { return "none" }

func (anyPhone) Violation(string) string { return "" }

// Built-in phone policies.
var (
	// IndianMobile accepts 10 digit numbers starting with 6-9.
	IndianMobile PhonePolicy = digitsPolicy{
		name:    "in",
		pattern: regexp.MustCompile(`^[6-9]\d{9}$`),
		rule:    "must be 10 digits, starting with 6-9",
	}
	// NANP accepts North American numbers with an optional leading country code.
	NANP PhonePolicy = digitsPolicy{
		name:    "nanp",
		pattern: regexp.MustCompile(`^1?[2-9]\d{2}[2-9]\d{6}$`),
		rule:    "must be a 10 digit North American number",
	}
	// AnyPhone disables the phone check.
	AnyPhone PhonePolicy = anyPhone{}
)

// PhonePolicyByName resolves ETL_PHONE_POLICY values.
func PhonePolicyByName(name string) (PhonePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "in":
		return IndianMobile, nil
	case "nanp", "us":
		return NANP, nil
	case "none", "off":
		return AnyPhone, nil
	default:
		return nil, fmt.Errorf("unknown phone policy %q", name)
	}
}

// FromSettings builds a Config from the ETL section of the process config,
// reading the departments file when one is configured.
func FromSettings(settings config.ETLConfig) (Config, error) {
	dir, err := config.LoadDepartments(settings.DepartmentsFile)
	if err != nil {
		return Config{}, err
	}
	policy, err := PhonePolicyByName(settings.PhonePolicy)
	if err != nil {
		return Config{}, err
	}
	return NewConfig(dir, WithPhonePolicy(policy), WithMinAge(settings.MinAge)), nil
}
