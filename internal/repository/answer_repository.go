package repository

import (
	"time"

	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// Create inserts the answer row with its evaluation result and an empty
// feedback placeholder. This commit happens before feedback or audio exist;
// a later crash still leaves an auditable "answered, not yet narrated" row.
func (r *AnswerRepository) Create(answer *model.Answer) error {
	if answer.SubmittedAt.IsZero() {
		answer.SubmittedAt = time.Now().UTC()
	}
	return r.DB.Create(answer).Error
}

// AttachFeedback reloads the answer by its captured identifier in a fresh
// transactional scope and patches in the narration fields.
func (r *AnswerRepository) AttachFeedback(id uint, feedback, audioRef, audioBase64 string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var answer model.Answer
		if err := tx.First(&answer, id).Error; err != nil {
			return err
		}
		return tx.Model(&answer).Updates(map[string]interface{}{
			"feedback_text": feedback,
			"audio_ref":     audioRef,
			"audio_base64":  audioBase64,
		}).Error
	})
}

func (r *AnswerRepository) ListByContact(contact string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Where("guardian_contact = ?", contact).Find(&answers).Error
	return answers, err
}
