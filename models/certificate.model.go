package models

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is the one-time completion certificate issued after a user's
// second attempt. Profile and score fields are a snapshot taken at issuance
// and are never recomputed. The unique index on UserID is what guarantees
// at most one certificate per user even under concurrent issuance.
type Certificate struct {
	gorm.Model
	UserID            uint      `json:"userId" gorm:"uniqueIndex;not null"`
	CertificateNumber string    `json:"certificateNumber" gorm:"size:100;uniqueIndex;not null"`
	UserName          string    `json:"userName" gorm:"size:100;not null"`
	Phone             string    `json:"phone" gorm:"size:20;not null"`
	School            string    `json:"school" gorm:"size:200"`
	Language          string    `json:"language" gorm:"size:50;not null"`
	TotalScore        int       `json:"totalScore" gorm:"not null"`
	MaxScore          int       `json:"maxScore" gorm:"not null"`
	Percentage        float64   `json:"percentage" gorm:"not null"`
	FilePath          string    `json:"filePath" gorm:"size:500;not null"`
	FileName          string    `json:"fileName" gorm:"size:255;not null"`
	IssueDate         time.Time `json:"issueDate"`
}
