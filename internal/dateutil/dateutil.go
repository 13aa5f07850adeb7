// Package dateutil converts date format notations for templates: the
// YYYY-MM-DD token style used in cover keywords and the strftime style of
// the strftime/strptime template filters.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits format string length.
const MaxDateFormatLength = 50

// DefaultDateFormat is used when "auto" is specified without a format.
const DefaultDateFormat = "YYYY-MM-DD"

// dateTokens maps tokens to Go layout components, longest first.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// strftimeDirectives maps strftime directives to Go layout components.
var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'B': "January",
	'b': "Jan",
	'h': "Jan",
	'd': "02",
	'e': "_2",
	'A': "Monday",
	'a': "Mon",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'j': "002",
	'Z': "MST",
	'z': "-0700",
	'f': "000000",
	'F': "2006-01-02",
	'T': "15:04:05",
	'%': "%",
}

// ParseDateFormat converts a token format (YYYY, YY, MMMM, MMM, MM, M, DD,
// D) to a Go layout. Bracketed text is kept literally: "[Rev.] YYYY".
func ParseDateFormat(format string) (string, error) {
	if err := checkLength(format); err != nil {
		return "", err
	}

	var result strings.Builder
	result.Grow(len(format) + 10)

	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			result.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				result.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			result.WriteByte(format[i])
			i++
		}
	}

	return result.String(), nil
}

// ConvertStrftime converts a strftime format ("%d %B %Y") to a Go layout.
// Unknown directives are rejected.
func ConvertStrftime(format string) (string, error) {
	if err := checkLength(format); err != nil {
		return "", err
	}

	var result strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			result.WriteByte(format[i])
			continue
		}
		if i+1 == len(format) {
			return "", fmt.Errorf("%w: dangling %% at end of %q", ErrInvalidDateFormat, format)
		}
		i++
		layout, ok := strftimeDirectives[format[i]]
		if !ok {
			return "", fmt.Errorf("%w: unsupported directive %%%c", ErrInvalidDateFormat, format[i])
		}
		result.WriteString(layout)
	}
	return result.String(), nil
}

// Strftime formats t with a strftime format.
func Strftime(t time.Time, format string) (string, error) {
	layout, err := ConvertStrftime(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

// Strptime parses value with a strftime format.
func Strptime(value, format string) (time.Time, error) {
	layout, err := ConvertStrftime(format)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDateFormat, err)
	}
	return t, nil
}

// ResolveDate handles "auto" and "auto:FORMAT" values:
//   - "auto" is the date of t as YYYY-MM-DD
//   - "auto:FORMAT" uses a token format or a preset name (iso, european, us, long)
//   - anything else is returned unchanged
func ResolveDate(value string, t time.Time) (string, error) {
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "auto") {
		return value, nil
	}

	format := DefaultDateFormat
	if lower != "auto" {
		if !strings.HasPrefix(lower, "auto:") {
			return "", fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, value)
		}
		format = value[len("auto:"):]
		if preset, ok := DatePresets[strings.ToLower(format)]; ok {
			format = preset
		}
	}

	layout, err := ParseDateFormat(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

func checkLength(format string) error {
	if format == "" {
		return fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}
	return nil
}
