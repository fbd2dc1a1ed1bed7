package models

import "time"

// CandidateStatus is a state of the candidate lifecycle.
type CandidateStatus string

const (
	CandidateStatusPending     CandidateStatus = "pending"
	CandidateStatusShortlisted CandidateStatus = "shortlisted"
	CandidateStatusRejected    CandidateStatus = "rejected"
	CandidateStatusInvited     CandidateStatus = "invited"
	CandidateStatusInProgress  CandidateStatus = "in_progress"
	CandidateStatusCompleted   CandidateStatus = "completed"
	CandidateStatusPassed      CandidateStatus = "passed"
	CandidateStatusFailed      CandidateStatus = "failed"
)

// FunnelOrder lists statuses in the order candidates move through them.
var FunnelOrder = []CandidateStatus{
	CandidateStatusPending,
	CandidateStatusShortlisted,
	CandidateStatusInvited,
	CandidateStatusInProgress,
	CandidateStatusCompleted,
	CandidateStatusPassed,
	CandidateStatusFailed,
	CandidateStatusRejected,
}

var candidateTransitions = map[CandidateStatus][]CandidateStatus{
	CandidateStatusPending:     {CandidateStatusShortlisted, CandidateStatusRejected, CandidateStatusInvited},
	CandidateStatusShortlisted: {CandidateStatusInvited},
	CandidateStatusInvited:     {CandidateStatusInProgress},
	CandidateStatusInProgress:  {CandidateStatusCompleted},
	CandidateStatusCompleted:   {CandidateStatusPassed, CandidateStatusFailed},
}

// Valid reports whether s is a known status.
func (s CandidateStatus) Valid() bool {
	for _, known := range FunnelOrder {
		if known == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s CandidateStatus) Terminal() bool {
	return s == CandidateStatusRejected || s == CandidateStatusPassed || s == CandidateStatusFailed
}

// CanTransitionTo reports whether next is a directed edge from s.
func (s CandidateStatus) CanTransitionTo(next CandidateStatus) bool {
	for _, allowed := range candidateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Candidate is the subject of the pipeline.
type Candidate struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ProgramID         uint            `gorm:"not null;uniqueIndex:idx_candidate_program_email" json:"program_id"`
	FullName          string          `gorm:"size:255;not null" json:"full_name"`
	Email             string          `gorm:"size:255;not null;uniqueIndex:idx_candidate_program_email" json:"email"`
	LinkedInURL       string          `gorm:"column:linkedin_url;size:512" json:"linkedin_url"`
	Country           string          `gorm:"size:128;index" json:"country"`
	City              string          `gorm:"size:128" json:"city"`
	Background        string          `gorm:"type:text" json:"background"`
	AreaOfInterest    string          `gorm:"size:128;index" json:"area_of_interest"`
	PreferredLanguage string          `gorm:"size:16;not null;default:en" json:"preferred_language"`
	AdminNotes        string          `gorm:"type:text" json:"-"`
	Status            CandidateStatus `gorm:"size:32;not null;index" json:"status"`
	FinalScore        *float64        `json:"final_score"`
	InvitedAt         *time.Time      `json:"invited_at"`
	StartedAt         *time.Time      `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
