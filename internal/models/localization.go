package models

import "time"

// Localized is implemented by every per-language child row.
type Localized interface {
	Language() string
}

// ResolutionStatus tells callers whether a translation was served in the requested language.
type ResolutionStatus string

const (
	ResolutionFound    ResolutionStatus = "found"
	ResolutionFellBack ResolutionStatus = "fell_back"
	ResolutionMissing  ResolutionStatus = "missing"
)

// Resolution describes how a localized value was picked.
type Resolution struct {
	Status    ResolutionStatus `json:"status"`
	Requested string           `json:"requested"`
	Language  string           `json:"language,omitempty"`
}

// ResolveTranslation picks the translation for lang. When it is absent the preferred
// fallbacks are tried in order, then the first available translation. The returned
// Resolution records which of these happened.
func ResolveTranslation[T Localized](items []T, lang string, fallbacks ...string) (T, Resolution) {
	var zero T
	if len(items) == 0 {
		return zero, Resolution{Status: ResolutionMissing, Requested: lang}
	}

	for _, item := range items {
		if item.Language() == lang {
			return item, Resolution{Status: ResolutionFound, Requested: lang, Language: lang}
		}
	}

	for _, fallback := range fallbacks {
		for _, item := range items {
			if item.Language() == fallback {
				return item, Resolution{Status: ResolutionFellBack, Requested: lang, Language: fallback}
			}
		}
	}

	first := items[0]
	return first, Resolution{Status: ResolutionFellBack, Requested: lang, Language: first.Language()}
}

// ContentTranslation is free-form localized copy such as the assessment disclaimer.
type ContentTranslation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ContentKey   string    `gorm:"size:128;not null;uniqueIndex:idx_content_key_lang" json:"content_key"`
	LanguageCode string    `gorm:"size:16;not null;uniqueIndex:idx_content_key_lang" json:"language_code"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Language implements Localized.
func (c ContentTranslation) Language() string { return c.LanguageCode }
