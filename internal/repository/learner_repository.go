package repository

import (
	"time"

	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"gorm.io/gorm"
)

type LearnerRepository struct {
	DB *gorm.DB
}

func NewLearnerRepository(db *gorm.DB) *LearnerRepository {
	return &LearnerRepository{DB: db}
}

func (r *LearnerRepository) FindByContact(contact string) (*model.Learner, error) {
	var learner model.Learner
	err := r.DB.Where("guardian_contact = ?", contact).First(&learner).Error
	if err != nil {
		return nil, err
	}
	return &learner, nil
}

// Upsert registers a learner or, when the guardian contact is already known,
// updates name and grade in place. The row is never deleted here.
func (r *LearnerRepository) Upsert(learner *model.Learner) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Learner
		err := tx.Where("guardian_contact = ?", learner.GuardianContact).First(&existing).Error
		if err == nil {
			existing.Name = learner.Name
			existing.Grade = learner.Grade
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*learner = existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if learner.CreatedAt.IsZero() {
			learner.CreatedAt = time.Now()
		}
		return tx.Create(learner).Error
	})
}

func (r *LearnerRepository) SetWelcomeAudio(id uint, ref string) error {
	return r.DB.Model(&model.Learner{}).
		Where("id = ?", id).
		Update("welcome_audio_ref", ref).
		Error
}
