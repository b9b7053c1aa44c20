package model

import (
	"time"
)

// Learner is a child enrolled in the literacy game, identified by the
// guardian's contact email. Re-registration with the same contact updates
// name and grade in place.
// swagger:model Learner
type Learner struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Grade           int       `gorm:"not null" json:"grade"`
	GuardianContact string    `gorm:"size:100;uniqueIndex;not null" json:"guardianContact"`
	WelcomeAudioRef string    `gorm:"size:255" json:"welcomeAudioRef,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (Learner) TableName() string {
	return "learners"
}
