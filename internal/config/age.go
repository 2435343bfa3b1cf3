package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	errEmptyAge    = errors.New("age must not be empty")
	errNegativeAge = errors.New("age cannot be negative")
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

var ageUnits = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  day,
	"w":  week,
}

// ParseAge parses an age threshold such as "7d", "5h", "1d12h" or "0s".
// It accepts everything time.ParseDuration does except a sign, plus the
// units d (24h) and w (7d). A bare "0" is allowed.
func ParseAge(s string) (time.Duration, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyAge
	}
	if s[0] == '-' {
		return 0, fmt.Errorf("%w: %q", errNegativeAge, orig)
	}
	if s[0] == '+' {
		s = s[1:]
	}
	if s == "0" {
		return 0, nil
	}

	var total float64
	for s != "" {
		i := 0
		for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("invalid age %q: expected number", orig)
		}
		num, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid age %q: %w", orig, err)
		}
		s = s[i:]

		j := 0
		for j < len(s) && s[j] != '.' && (s[j] < '0' || s[j] > '9') {
			j++
		}
		unit, ok := ageUnits[s[:j]]
		if !ok {
			if j == 0 {
				return 0, fmt.Errorf("invalid age %q: missing unit", orig)
			}
			return 0, fmt.Errorf("invalid age %q: unknown unit %q", orig, s[:j])
		}
		s = s[j:]

		total += num * float64(unit)
		if total > math.MaxInt64 {
			return 0, fmt.Errorf("invalid age %q: overflow", orig)
		}
	}
	return time.Duration(total), nil
}

// Age is a time.Duration that decodes from a ParseAge string in YAML
type Age time.Duration

func (a *Age) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: age must be a scalar like 7d or 5h", value.Line)
	}
	d, err := ParseAge(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = Age(d)
	return nil
}

func (a Age) MarshalYAML() (interface{}, error) {
	return time.Duration(a).String(), nil
}

func (a Age) Duration() time.Duration {
	return time.Duration(a)
}
