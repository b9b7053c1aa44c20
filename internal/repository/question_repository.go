package repository

import (
	"time"

	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// CreateWithAudio inserts a question and attaches its narration inside one
// transactional scope. gorm populates the generated ID on tx.Create before
// commit, so the attach callback can name the audio artifact after the row it
// belongs to without a second round trip. attach returns an empty reference
// when synthesis failed; that never aborts the insert.
func (r *QuestionRepository) CreateWithAudio(q *model.Question, attach func(id uint) string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if q.CreatedAt.IsZero() {
			q.CreatedAt = time.Now()
		}
		if err := tx.Create(q).Error; err != nil {
			return err
		}

		ref := attach(q.ID)
		if ref == "" {
			return nil
		}

		q.AudioRef = ref
		return tx.Model(q).Update("audio_ref", ref).Error
	})
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	err := r.DB.First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}
