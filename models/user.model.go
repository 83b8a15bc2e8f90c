package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a quiz participant. Participants are identified by phone number at
// the application level; the column is indexed but intentionally not unique.
type User struct {
	gorm.Model
	Name           string     `json:"name" gorm:"size:100;not null"`
	Phone          string     `json:"phone" gorm:"size:20;index;not null"`
	School         string     `json:"school" gorm:"size:200"`
	Class          string     `json:"class" gorm:"size:50"`
	Language       string     `json:"language" gorm:"size:50;not null"`
	State          string     `json:"state" gorm:"size:100"`
	District       string     `json:"district" gorm:"size:100"`
	TotalAttempts  int        `json:"totalAttempts" gorm:"default:0"`
	LastSubmission *time.Time `json:"lastSubmission"`

	Submissions []Submission `json:"submissions,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Certificate *Certificate `json:"certificate,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
