package model

import (
	"time"
)

// Answer records one submission by a learner. The row is inserted with an
// empty feedback placeholder as soon as the evaluation is known; feedback and
// audio are patched in by a later stage of the same workflow invocation.
// The learner is referenced by guardian contact rather than surrogate key so
// report queries need no join.
// swagger:model Answer
type Answer struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID      uint      `gorm:"not null;index" json:"questionId"`
	GuardianContact string    `gorm:"size:100;index;not null" json:"guardianContact"`
	Selected        string    `gorm:"size:8;not null" json:"selected"`
	Correct         bool      `gorm:"not null" json:"correct"`
	SubmittedAt     time.Time `gorm:"index" json:"submittedAt"`
	FeedbackText    string    `gorm:"type:text" json:"feedbackText"`
	AudioRef        string    `gorm:"size:255" json:"audioRef,omitempty"`
	AudioBase64     string    `gorm:"type:longtext" json:"-"`
}

func (Answer) TableName() string {
	return "answers"
}
