package models

import (
	"time"

	"gorm.io/gorm"
)

// Submission is one completed run of the question set by a user.
type Submission struct {
	gorm.Model
	UserID         uint      `json:"userId" gorm:"index;not null"`
	AttemptNumber  int       `json:"attemptNumber" gorm:"default:1"`
	Score          int       `json:"score" gorm:"default:0"`
	TotalQuestions int       `json:"totalQuestions" gorm:"default:0"`
	Percentage     float64   `json:"percentage" gorm:"default:0"`
	CompletionTime *int      `json:"completionTime"` // elapsed minutes, optional
	SessionID      string    `json:"sessionId" gorm:"size:100;index"`
	SubmittedAt    time.Time `json:"submittedAt"`

	Answers []Answer `json:"answers,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
