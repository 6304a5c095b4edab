// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/goccy/go-json"
)

// Codec converts between an entity and its [Row] representation.
type Codec[T any] struct {
	Encode func(T) Row
	Decode func(Row, *logger.Logger) (T, error)
}

// Values read back from SQLite arrive as int64, float64, string or []byte
// depending on the column affinity and on the driver; the helpers below
// accept all of them.

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func intValue(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case bool:
		return boolInt(t), nil
	case string:
		return parseInt(t)
	case []byte:
		return parseInt(string(t))
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrCodec, v)
	}
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrCodec, s)
	}
	return int64(f), nil
}

func floatValue(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case string, []byte:
		s := strings.TrimSpace(textValue(t))
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrCodec, s)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrCodec, v)
	}
}

func boolValue(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	n, err := intValue(v)
	return n != 0, err
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// timeNanos stores t as unix nanoseconds; the zero time is stored as 0.
func timeNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func timeValue(v any) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return t.UTC(), nil
	}
	ns, err := intValue(v)
	if err != nil || ns == 0 {
		return time.Time{}, err
	}
	return time.Unix(0, ns).UTC(), nil
}

// bindValue converts a column value to its stored form before binding.
func bindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return timeNanos(t)
	}
	return v
}

// encodeStrings serializes a sequence as JSON text. A nil sequence is
// stored as "[]".
func encodeStrings(values []string) string {
	if values == nil {
		return "[]"
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeStrings parses a JSON sequence leniently: empty or malformed text
// yields an empty, non-nil slice and is logged as ErrCodec.
func decodeStrings(v any, column string, log *logger.Logger) []string {
	raw := strings.TrimSpace(textValue(v))
	if raw == "" {
		return []string{}
	}

	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Warn().
			Err(fmt.Errorf("%w: %w", ErrCodec, err)).
			Str("func", "store.decodeStrings").
			Str("column", column).
			Msg("malformed JSON column decoded as empty")
		return []string{}
	}
	if out == nil {
		return []string{}
	}
	return out
}

// uniqueStrings drops repeated values, keeping the first occurrence.
func uniqueStrings(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
