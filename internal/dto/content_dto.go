package dto

import "github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"

// UpsertContentCommand sets the copy for one (key, language) pair.
type UpsertContentCommand struct {
	Content string `json:"content" validate:"required,max=20000"`
}

// LocalizedContentResponse is a content key resolved into one language.
type LocalizedContentResponse struct {
	Key        string            `json:"key"`
	Content    string            `json:"content"`
	Resolution models.Resolution `json:"resolution"`
}
