package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AlexMakesC0de/anime-watch/key"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	// ErrUnknownKey reports a key missing from Default.
	ErrUnknownKey = errors.New("unknown key")

	// ErrInvalidValue reports a value rejected for its key.
	ErrInvalidValue = errors.New("invalid value")
)

// bound is an inclusive numeric range.
type bound struct{ min, max float64 }

var numericBounds = map[string]bound{
	key.MatchAcceptThreshold:  {0, 100},
	key.MatchLengthPenaltyCap: {0, 100},
	key.ProxyRetries:          {0, 10},
}

// Closest returns the registered key nearest to k by edit distance.
func Closest(k string) string {
	return lo.MinBy(lo.Keys(Default), func(a, b string) bool {
		return levenshtein.Distance(k, a) < levenshtein.Distance(k, b)
	})
}

func invalid(k, format string, args ...any) error {
	return fmt.Errorf("%w for %s: %s", ErrInvalidValue, k, fmt.Sprintf(format, args...))
}

// Parse converts raw command-line values into the type of k's default and validates the result.
func Parse(k string, raw []string) (any, error) {
	field, ok := Default[k]
	if !ok {
		return nil, fmt.Errorf("%w %s, did you mean %s?", ErrUnknownKey, k, Closest(k))
	}
	if len(raw) == 0 {
		return nil, invalid(k, "no value given")
	}

	var (
		v   any
		err error
	)
	switch field.Value.(type) {
	case string:
		v = strings.TrimSpace(raw[0])
	case int:
		v, err = strconv.Atoi(strings.TrimSpace(raw[0]))
	case float64:
		v, err = strconv.ParseFloat(strings.TrimSpace(raw[0]), 64)
	case bool:
		v, err = strconv.ParseBool(strings.TrimSpace(raw[0]))
	case []string:
		v = lo.FilterMap(raw, func(s string, _ int) (string, bool) {
			s = strings.TrimSpace(s)
			return s, s != ""
		})
	}
	if err != nil {
		return nil, invalid(k, "expected %s, got %q", field.typeName(), raw[0])
	}

	if err := Validate(k, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks v against the rules of k. Cross-key rules read the other side from viper.
func Validate(k string, v any) error {
	field, ok := Default[k]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownKey, k)
	}

	if field.isDuration() {
		s, _ := v.(string)
		d, err := time.ParseDuration(s)
		if err != nil {
			return invalid(k, "%q is not a duration", s)
		}
		return validateDuration(k, d)
	}

	switch value := v.(type) {
	case int:
		return validateNumber(k, float64(value))
	case float64:
		return validateNumber(k, value)
	case []string:
		return validateList(k, value)
	case string:
		if k == key.LogsLevel {
			if _, err := logrus.ParseLevel(value); err != nil {
				return invalid(k, "%q is not a log level", value)
			}
		}
		if k == key.BrowserSession && value == "" {
			return invalid(k, "session name is empty")
		}
	}
	return nil
}

func validateNumber(k string, n float64) error {
	b, ok := numericBounds[k]
	if ok && (n < b.min || n > b.max) {
		return invalid(k, "%v is outside [%v, %v]", n, b.min, b.max)
	}
	return nil
}

func validateDuration(k string, d time.Duration) error {
	if d < 0 || (d == 0 && k != key.ProxyBackoff) {
		return invalid(k, "%s must be positive", d)
	}

	// the capture window must settle before the ceiling ends the session
	switch k {
	case key.ExtractorDebounce:
		if ceiling := viper.GetDuration(key.ExtractorCeiling); ceiling > 0 && d >= ceiling {
			return invalid(k, "%s is not below %s (%s)", d, key.ExtractorCeiling, ceiling)
		}
	case key.ExtractorCeiling:
		if debounce := viper.GetDuration(key.ExtractorDebounce); d <= debounce {
			return invalid(k, "%s is not above %s (%s)", d, key.ExtractorDebounce, debounce)
		}
	}
	return nil
}

func validateList(k string, items []string) error {
	switch k {
	case key.ProviderMirrors:
		if len(items) == 0 {
			return invalid(k, "at least one mirror is required")
		}
		for _, item := range items {
			u, err := url.Parse(item)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return invalid(k, "%q is not an absolute http(s) URL", item)
			}
		}
	case key.ProviderFingerprints:
		if len(items) == 0 {
			return invalid(k, "at least one fingerprint is required")
		}
	case key.BrowserBlocklist:
		for _, item := range items {
			if strings.ContainsAny(item, "/:") {
				return invalid(k, "%q must be a bare host", item)
			}
		}
	}
	return nil
}
