package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidFlag = errors.New("invalid truth value")

// ParseFlag accepts the usual spellings of a boolean: y, yes, t, true, on, 1
// and n, no, f, false, off, 0 (case insensitive). JSON booleans pass through.
func ParseFlag(v interface{}) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case float64:
		if val == 1 {
			return true, nil
		}
		if val == 0 {
			return false, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "y", "yes", "t", "true", "on", "1":
			return true, nil
		case "n", "no", "f", "false", "off", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w %v", ErrInvalidFlag, v)
}

// ParseIDList splits a comma separated list and keeps the entries made only of
// digits.
func ParseIDList(s string) []uint {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// AsUint converts a decoded JSON value to a positive integer id. Strings are
// accepted when they contain only digits.
func AsUint(v interface{}) (uint, bool) {
	switch val := v.(type) {
	case float64:
		if val < 1 || val != math.Trunc(val) || val > math.MaxUint32 {
			return 0, false
		}
		return uint(val), true
	case json.Number:
		n, err := strconv.ParseUint(val.String(), 10, 32)
		return uint(n), err == nil && n > 0
	case string:
		if val == "" || strings.TrimLeft(val, "0123456789") != "" {
			return 0, false
		}
		n, err := strconv.ParseUint(val, 10, 32)
		return uint(n), err == nil && n > 0
	}
	return 0, false
}

// AsInt accepts only JSON numbers with no fractional part.
func AsInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) || math.Abs(val) > math.MaxInt32 {
			return 0, false
		}
		return int(val), true
	case json.Number:
		n, err := strconv.Atoi(val.String())
		return n, err == nil
	}
	return 0, false
}
