package geo

import (
	"regexp"
	"strings"
)

const plusCodeAlphabet = "23456789CFGHJMPQRVWX"

var (
	unnamedRoad = regexp.MustCompile(`(?i)\bunnamed\s+road\b`)
	plusCode    = regexp.MustCompile(`(?i)^\s*((?:[` + plusCodeAlphabet + `]{4}){1,2}\+[` + plusCodeAlphabet + `]{2,3})(?:[\s,]+|$)`)
	separators  = regexp.MustCompile(`\s*,[\s,]*`)
	spaces      = regexp.MustCompile(`\s+`)
)

// CleanAddress removes "Unnamed Road" fragments and collapses the empty
// comma-separated segments they leave behind.
func CleanAddress(address string) string {
	cleaned := unnamedRoad.ReplaceAllString(address, "")
	cleaned = spaces.ReplaceAllString(cleaned, " ")
	cleaned = separators.ReplaceAllString(cleaned, ", ")
	cleaned = strings.Trim(cleaned, " ,")
	return cleaned
}

// SplitPlusCode detects a leading Plus Code (e.g. "7JWV+7X Bengaluru") and
// returns the upper-cased code and the remaining locality text.
func SplitPlusCode(address string) (code, locality string, ok bool) {
	m := plusCode.FindStringSubmatchIndex(address)
	if m == nil {
		return "", address, false
	}
	code = strings.ToUpper(address[m[2]:m[3]])
	locality = strings.Trim(address[m[1]:], " ,")
	return code, locality, true
}

// IsFullPlusCode reports whether code carries all eight leading digits and can
// be decoded without a reference locality.
func IsFullPlusCode(code string) bool {
	idx := strings.IndexByte(code, '+')
	return idx == 8
}
