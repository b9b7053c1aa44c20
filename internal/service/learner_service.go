package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/joaopedroangelo/Estrela-do-Saber/internal/config"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LearnerRegistry is the store slice used for registration.
type LearnerRegistry interface {
	LearnerStore
	Upsert(learner *model.Learner) error
	SetWelcomeAudio(id uint, ref string) error
}

type LearnerService struct {
	learners LearnerRegistry
	history  AnswerHistory
	speech   SpeechSynthesizer
	storage  *StorageService
	grades   config.GradesConfig
}

func NewLearnerService(
	learners LearnerRegistry,
	history AnswerHistory,
	speech SpeechSynthesizer,
	storage *StorageService,
	grades config.GradesConfig,
) *LearnerService {
	return &LearnerService{
		learners: learners,
		history:  history,
		speech:   speech,
		storage:  storage,
		grades:   grades,
	}
}

// Register creates a learner or updates name and grade when the guardian
// contact is already registered. First registration also narrates a welcome
// greeting; narration failure never fails the registration.
func (s *LearnerService) Register(ctx context.Context, name string, grade int, contact string) (*model.Learner, error) {
	if grade < s.grades.Min || grade > s.grades.Max {
		return nil, util.ErrInvalidGrade
	}

	learner := &model.Learner{
		Name:            name,
		Grade:           grade,
		GuardianContact: contact,
	}
	if err := s.learners.Upsert(learner); err != nil {
		return nil, &PersistenceError{Op: "register learner", Err: err}
	}

	if learner.WelcomeAudioRef == "" {
		s.attachWelcomeAudio(ctx, learner)
	}
	return learner, nil
}

func (s *LearnerService) attachWelcomeAudio(ctx context.Context, learner *model.Learner) {
	if s.speech == nil || s.storage == nil {
		return
	}

	text := fmt.Sprintf("Olá, %s! Que bom ter você aqui. Vamos aprender brincando!", learner.Name)
	audio, err := s.speech.Synthesize(ctx, text)
	if err != nil {
		logger.Log.Warn("welcome narration failed", zap.String("learner", learner.Name), zap.Error(err))
		return
	}

	filename := fmt.Sprintf("bemvindo_%d.mp3", learner.ID)
	ref, err := s.storage.Upload(ctx, filename, bytes.NewReader(audio), int64(len(audio)), util.MimeAudioMPEG)
	if err != nil {
		logger.Log.Warn("welcome narration upload failed", zap.String("learner", learner.Name), zap.Error(err))
		return
	}

	if err := s.learners.SetWelcomeAudio(learner.ID, ref); err != nil {
		logger.Log.Warn("welcome narration not recorded", zap.Uint("learnerId", learner.ID), zap.Error(err))
		return
	}
	learner.WelcomeAudioRef = ref
}

// ListAnswers returns the raw submission history for a learner. Debug
// surface; the aggregated view lives in the report engine.
func (s *LearnerService) ListAnswers(contact string) ([]model.Answer, error) {
	if _, err := s.learners.FindByContact(contact); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLearnerNotFound
		}
		return nil, &PersistenceError{Op: "resolve learner", Err: err}
	}
	return s.history.ListByContact(contact)
}
