// Package policy supplies per-company compliance thresholds. Thresholds are
// opaque numbers to the rule engine; a zero threshold disables its rule.
package policy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // policy zones must resolve on hosts without zoneinfo

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
	"gopkg.in/yaml.v3"
)

var ErrInvalidPolicy = errors.New("invalid compliance policy")

// Policy is the threshold set one company is evaluated against.
type Policy struct {
	TimeZone           string            `yaml:"time_zone"`
	MinRestMinutes     int64             `yaml:"min_rest_minutes"`
	MaxDailyMinutes    int64             `yaml:"max_daily_minutes"`
	MaxWeeklyMinutes   int64             `yaml:"max_weekly_minutes"`
	MaxConsecutiveDays int               `yaml:"max_consecutive_days"`
	PresenceWindows    []PresenceWindow  `yaml:"presence_windows,omitempty"`
	ReportWaived       bool              `yaml:"report_waived"`
	Severities         map[string]string `yaml:"severities,omitempty"` // rule type -> severity

	location *time.Location
}

// PresenceWindow is a weekly required-presence interval in local time,
// e.g. core hours on Monday 10:00-15:00.
type PresenceWindow struct {
	Weekday string `yaml:"weekday"` // monday..sunday
	Start   string `yaml:"start"`   // HH:MM
	End     string `yaml:"end"`     // HH:MM
}

// Default is used when no policy file is configured.
func Default() Policy {
	p := Policy{
		TimeZone:           "UTC",
		MinRestMinutes:     60,
		MaxDailyMinutes:    10 * 60,
		MaxWeeklyMinutes:   48 * 60,
		MaxConsecutiveDays: 6,
	}
	p.location = time.UTC
	return p
}

// Location returns the resolved policy time zone.
func (p Policy) Location() *time.Location {
	if p.location == nil {
		if loc, err := time.LoadLocation(p.TimeZone); err == nil {
			return loc
		}
		return time.UTC
	}
	return p.location
}

// SeverityFor returns the configured severity for a rule type, or fallback.
func (p Policy) SeverityFor(ruleType, fallback string) string {
	if s, ok := p.Severities[ruleType]; ok && s != "" {
		return s
	}
	return fallback
}

// Resolve validates p and caches its location.
func (p *Policy) Resolve() error {
	if p.TimeZone == "" {
		p.TimeZone = "UTC"
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return fmt.Errorf("%w: time_zone %q: %v", ErrInvalidPolicy, p.TimeZone, err)
	}
	p.location = loc

	if p.MinRestMinutes < 0 || p.MaxDailyMinutes < 0 || p.MaxWeeklyMinutes < 0 || p.MaxConsecutiveDays < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", ErrInvalidPolicy)
	}

	for i, w := range p.PresenceWindows {
		if _, ok := ParseWeekday(w.Weekday); !ok {
			return fmt.Errorf("%w: presence_windows[%d].weekday %q", ErrInvalidPolicy, i, w.Weekday)
		}
		start, ok := validator.IsValidClock(w.Start)
		if !ok {
			return fmt.Errorf("%w: presence_windows[%d].start %q", ErrInvalidPolicy, i, w.Start)
		}
		end, ok := validator.IsValidClock(w.End)
		if !ok {
			return fmt.Errorf("%w: presence_windows[%d].end %q", ErrInvalidPolicy, i, w.End)
		}
		if !end.After(start) {
			return fmt.Errorf("%w: presence_windows[%d] must end after it starts", ErrInvalidPolicy, i)
		}
	}
	return nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Provider resolves the policy for a company.
type Provider interface {
	PolicyFor(ctx context.Context, companyID string) (Policy, error)
}

// File is a Provider backed by a YAML document with a default policy and
// per-company overrides:
//
//	default:
//	  time_zone: Asia/Jakarta
//	  min_rest_minutes: 660
//	companies:
//	  <company-id>:
//	    max_daily_minutes: 480
//
// Override fields left out inherit the default.
type File struct {
	def       Policy
	companies map[string]Policy
}

type fileDocument struct {
	Default   yaml.Node            `yaml:"default"`
	Companies map[string]yaml.Node `yaml:"companies"`
}

// Static returns a Provider that answers p for every company.
func Static(p Policy) *File {
	if err := p.Resolve(); err != nil {
		p = Default()
	}
	return &File{def: p, companies: map[string]Policy{}}
}

// LoadFile reads a policy file. An empty path yields the Default policy.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return Static(Default()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a policy document, rejecting unknown fields.
func Parse(data []byte) (*File, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	def := Default()
	if !doc.Default.IsZero() {
		if err := decodeStrict(&doc.Default, &def); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
	}
	if err := def.Resolve(); err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}

	f := &File{def: def, companies: make(map[string]Policy, len(doc.Companies))}
	for companyID, node := range doc.Companies {
		p := def
		p.PresenceWindows = append([]PresenceWindow(nil), def.PresenceWindows...)
		p.Severities = copySeverities(def.Severities)
		if err := decodeStrict(&node, &p); err != nil {
			return nil, fmt.Errorf("companies.%s: %w", companyID, err)
		}
		if err := p.Resolve(); err != nil {
			return nil, fmt.Errorf("companies.%s: %w", companyID, err)
		}
		f.companies[companyID] = p
	}
	return f, nil
}

// decodeStrict decodes a node with unknown-field checking. yaml.Node.Decode
// does not honour KnownFields, so the node is re-encoded first.
func decodeStrict(node *yaml.Node, out *Policy) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func copySeverities(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PolicyFor implements Provider.
func (f *File) PolicyFor(_ context.Context, companyID string) (Policy, error) {
	if p, ok := f.companies[companyID]; ok {
		return p, nil
	}
	return f.def, nil
}
