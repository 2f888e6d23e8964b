package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrModelOutput marks model output that could not be decoded into an object.
var ErrModelOutput = errors.New("model output is not a JSON object")

// Fields is the decoded JSON object produced by the intent model.
type Fields map[string]any

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// DecodeModelOutput strips markdown fences and decodes the first JSON object
// in raw. On failure it returns empty Fields together with the reason; the
// caller continues with text-only extraction.
func DecodeModelOutput(raw string) (Fields, error) {
	body := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return Fields{}, fmt.Errorf("%w: no object found", ErrModelOutput)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body[start : end+1])))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	if fields == nil {
		return Fields{}, nil
	}
	return Fields(fields), nil
}

// Origin records which source produced a value.
type Origin int

const (
	OriginNone Origin = iota
	OriginText
	OriginModel
	OriginDefault
)

func (o Origin) String() string {
	switch o {
	case OriginText:
		return "text"
	case OriginModel:
		return "model"
	case OriginDefault:
		return "default"
	default:
		return "none"
	}
}

// Rule captures a field from raw text through a named regex group.
type Rule struct {
	Pattern *regexp.Regexp
	Group   string
	// Convert rewrites the captured text, for example a percentage into a fraction.
	Convert func(string) string
}

// Field describes how one parameter is resolved: text rules first, then the
// model keys, then the default.
type Field struct {
	Name    string
	Keys    []string
	Rules   []Rule
	Numeric bool
	Upper   bool
	Default string
}

// Value is a resolved field.
type Value struct {
	Raw    string
	Origin Origin
}

// Found reports whether any source produced the value.
func (v Value) Found() bool { return v.Origin != OriginNone }

// Source bundles the two inputs of an extraction.
type Source struct {
	Text   string
	Fields Fields
}

// Resolve applies the fixed source priority to f.
func (s Source) Resolve(f Field) Value {
	if raw, ok := s.fromText(f); ok {
		return Value{Raw: s.finish(f, raw), Origin: OriginText}
	}
	if raw, ok := s.fromModel(f); ok {
		return Value{Raw: s.finish(f, raw), Origin: OriginModel}
	}
	if f.Default != "" {
		return Value{Raw: f.Default, Origin: OriginDefault}
	}
	return Value{}
}

func (s Source) finish(f Field, raw string) string {
	raw = strings.TrimSpace(raw)
	if f.Upper {
		raw = strings.ToUpper(raw)
	}
	return raw
}

func (s Source) fromText(f Field) (string, bool) {
	for _, rule := range f.Rules {
		idx := rule.Pattern.SubexpIndex(rule.Group)
		if idx < 0 {
			continue
		}
		m := rule.Pattern.FindStringSubmatch(s.Text)
		if m == nil || strings.TrimSpace(m[idx]) == "" {
			continue
		}
		value := m[idx]
		if rule.Convert != nil {
			value = rule.Convert(value)
		}
		return value, true
	}
	return "", false
}

func (s Source) fromModel(f Field) (string, bool) {
	for _, key := range f.Keys {
		raw, ok := s.Fields[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			if strings.TrimSpace(v) == "" || isNullText(v) {
				continue
			}
			return v, true
		case json.Number:
			if f.Numeric {
				return v.String(), true
			}
		case float64:
			if f.Numeric {
				return formatFloat(v), true
			}
		case int:
			if f.Numeric {
				return strconv.Itoa(v), true
			}
		case int64:
			if f.Numeric {
				return strconv.FormatInt(v, 10), true
			}
		}
	}
	return "", false
}

// isNullText catches models that spell absence out as text.
func isNullText(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "null", "none", "undefined", "n/a":
		return true
	}
	return false
}

// formatFloat prints the shortest decimal that round-trips, so 0.1 stays "0.1".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
