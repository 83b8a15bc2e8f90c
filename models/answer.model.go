package models

import "gorm.io/gorm"

// Answer is a single response inside a submission.
type Answer struct {
	gorm.Model
	SubmissionID uint   `json:"submissionId" gorm:"index;not null"`
	QuestionID   int    `json:"questionId" gorm:"index;not null"`
	Question     string `json:"question" gorm:"type:text"`
	Answer       string `json:"answer" gorm:"type:text"`
	IsCorrect    bool   `json:"isCorrect" gorm:"default:false"`
}
