package model

import (
	"encoding/json"
	"time"
)

// QuestionOption is one labeled alternative of a multiple-choice question.
type QuestionOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a generated multiple-choice literacy question. Rows are
// immutable after creation except for AudioRef, which is attached within the
// same transactional scope that inserted the row.
// swagger:model Question
type Question struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Text         string          `gorm:"type:text;not null" json:"text"`
	Options      json.RawMessage `gorm:"type:json" json:"options"` // JSON: []QuestionOption
	CorrectLabel string          `gorm:"size:8;not null" json:"correctLabel"`
	Grade        int             `gorm:"not null;index" json:"grade"`
	AudioRef     string          `gorm:"size:255" json:"audioRef,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (Question) TableName() string {
	return "questions"
}

// DecodeOptions unmarshals the stored options column.
func (q *Question) DecodeOptions() ([]QuestionOption, error) {
	var opts []QuestionOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// QuestionPayload is the wire/pipeline projection of a question. It is never
// persisted directly.
type QuestionPayload struct {
	ID           uint             `json:"id"`
	Text         string           `json:"question"`
	Options      []QuestionOption `json:"options"`
	CorrectLabel string           `json:"correctLabel"`
	Grade        int              `json:"grade"`
	AudioRef     string           `json:"audioRef,omitempty"`
}

// EncodeOptions marshals options for the JSON column. The payload is built by
// the pipeline from validated generator output, so marshalling cannot fail.
func (p *QuestionPayload) EncodeOptions() json.RawMessage {
	raw, _ := json.Marshal(p.Options)
	return raw
}
