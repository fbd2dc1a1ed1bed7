package models

import "time"

// AssessmentLink is a time-boxed credential granting a candidate access to the assessment.
type AssessmentLink struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CandidateID  uint       `gorm:"not null;index" json:"candidate_id"`
	Token        string     `gorm:"size:128;not null;uniqueIndex" json:"-"`
	ExpiresAt    time.Time  `gorm:"not null;index" json:"expires_at"`
	AttemptCount int        `gorm:"not null;default:0" json:"attempt_count"`
	RevokedAt    *time.Time `json:"revoked_at"`
	LastUsedAt   *time.Time `json:"last_used_at"`
	CreatedAt    time.Time  `json:"created_at"`
	Candidate    Candidate  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsExpired reports whether the link can no longer be used at reference.
func (l AssessmentLink) IsExpired(reference time.Time) bool {
	return !reference.Before(l.ExpiresAt)
}

// IsRevoked reports whether a later invitation superseded the link.
func (l AssessmentLink) IsRevoked() bool {
	return l.RevokedAt != nil
}
