package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// timePattern matches inputs like "8:00 AM", "08:00", "8am", "14:30".
var timePattern = regexp.MustCompile(`^(\d{1,2}):?(\d{2})?\s*([AaPp][Mm])?`)

// NormalizeValue canonicalizes a raw value based on key-name heuristics.
// Phone-like keys become XXX.XXX.XXXX, boolean-like keys become "true" or
// "false", time-like keys become 24-hour HH:MM. Normalization fails open:
// input that cannot be confidently canonicalized is returned unchanged, so
// a write never fails on formatting.
func NormalizeValue(key, value string) string {
	if value == "" {
		return value
	}
	lowerKey := strings.ToLower(key)

	if strings.Contains(lowerKey, "phone") {
		return normalizePhone(value)
	}

	if strings.Contains(lowerKey, "enabled") || strings.HasPrefix(key, "is_") {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "yes", "1", "enabled", "on":
			return "true"
		case "false", "no", "0", "disabled", "off":
			return "false"
		}
		return value
	}

	if strings.Contains(lowerKey, "hours_") || strings.HasSuffix(key, "_time") {
		return normalizeTime(value)
	}

	return value
}

// normalizePhone reduces a US phone number to digits and reformats it with
// dot separators. Leading country code 1 is dropped. Anything that is not
// ten digits after stripping (extensions, international numbers) is
// returned unchanged.
func normalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return phone
	}
	return fmt.Sprintf("%s.%s.%s", d[:3], d[3:6], d[6:])
}

// normalizeTime converts 12-hour or bare-digit times to 24-hour HH:MM.
func normalizeTime(value string) string {
	m := timePattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return value
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return value
		}
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}
