package utils

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage reduces a BCP-47 tag to its lower-case base language code
// ("en-US" -> "en"). It reports false for tags that do not parse or have no known base.
func NormalizeLanguage(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}

	base, confidence := tag.Base()
	if confidence == language.No || base.String() == "und" {
		return "", false
	}

	return strings.ToLower(base.String()), true
}

// NegotiateLanguage picks the language to serve from an explicit query value, the
// Accept-Language header and the supported set, falling back to def.
func NegotiateLanguage(query, acceptLanguage string, supported []string, def string) string {
	if len(supported) == 0 {
		if normalized, ok := NormalizeLanguage(def); ok {
			return normalized
		}
		return "en"
	}

	if normalized, ok := NormalizeLanguage(query); ok && contains(supported, normalized) {
		return normalized
	}

	if strings.TrimSpace(acceptLanguage) != "" {
		tags := make([]language.Tag, 0, len(supported))
		for _, code := range supported {
			tags = append(tags, language.Make(code))
		}

		matcher := language.NewMatcher(tags)
		desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(desired) > 0 {
			_, index, confidence := matcher.Match(desired...)
			if confidence != language.No {
				return supported[index]
			}
		}
	}

	if normalized, ok := NormalizeLanguage(def); ok && contains(supported, normalized) {
		return normalized
	}
	return supported[0]
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

// MatchLanguage negotiates value, which may be a single tag or an Accept-Language
// list, against the supported set.
func MatchLanguage(value string, supported []string, def string) string {
	return NegotiateLanguage(value, value, supported, def)
}
