package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveTranslationFallbackOrder(t *testing.T) {
	items := []QuestionTranslation{
		{LanguageCode: "pt", Text: "pt"},
		{LanguageCode: "en", Text: "en"},
		{LanguageCode: "es", Text: "es"},
	}

	cases := []struct {
		name      string
		items     []QuestionTranslation
		lang      string
		fallbacks []string
		text      string
		status    ResolutionStatus
	}{
		{"requested", items, "es", []string{"pt", "en"}, "es", ResolutionFound},
		{"program default before en", items, "fr", []string{"pt", "en"}, "pt", ResolutionFellBack},
		{"en when default missing", items, "fr", []string{"de", "en"}, "en", ResolutionFellBack},
		{"first available last", items[2:], "fr", []string{"de", "en"}, "es", ResolutionFellBack},
		{"missing", nil, "fr", []string{"en"}, "", ResolutionMissing},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, resolution := ResolveTranslation(tc.items, tc.lang, tc.fallbacks...)
			require.Equal(t, tc.text, got.Text)
			require.Equal(t, tc.status, resolution.Status)
			require.Equal(t, tc.lang, resolution.Requested)
		})
	}
}
