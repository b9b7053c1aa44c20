package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joaopedroangelo/Estrela-do-Saber/internal/config"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRegistry struct {
	stubLearners
	upserted   []*model.Learner
	welcomeSet map[uint]string
	upsertErr  error
}

func (s *stubRegistry) Upsert(learner *model.Learner) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if existing, ok := s.learners[learner.GuardianContact]; ok {
		existing.Name = learner.Name
		existing.Grade = learner.Grade
		*learner = *existing
	} else {
		learner.ID = uint(len(s.learners) + 1)
		s.learners[learner.GuardianContact] = learner
	}
	s.upserted = append(s.upserted, learner)
	return nil
}

func (s *stubRegistry) SetWelcomeAudio(id uint, ref string) error {
	s.welcomeSet[id] = ref
	return nil
}

type learnerFixture struct {
	registry *stubRegistry
	history  *stubHistory
	speech   *stubSpeech
	svc      *LearnerService
}

func newLearnerFixture(t *testing.T) *learnerFixture {
	t.Helper()
	f := &learnerFixture{
		registry: &stubRegistry{
			stubLearners: stubLearners{learners: map[string]*model.Learner{
				"maria@exemplo.com": {ID: 1, Name: "Maria", Grade: 3, GuardianContact: "maria@exemplo.com", WelcomeAudioRef: "/audios/bemvindo_1.mp3"},
			}},
			welcomeSet: map[uint]string{},
		},
		history: &stubHistory{answers: []model.Answer{
			{GuardianContact: "maria@exemplo.com", Correct: true, SubmittedAt: time.Now()},
		}},
		speech: &stubSpeech{audio: []byte("mp3-bytes")},
	}
	f.svc = NewLearnerService(f.registry, f.history, f.speech, testStorage(t), config.GradesConfig{Min: 1, Max: 5})
	return f
}

func TestRegisterLearner(t *testing.T) {
	f := newLearnerFixture(t)

	learner, err := f.svc.Register(context.Background(), "João", 2, "joao@exemplo.com")
	require.NoError(t, err)

	assert.Equal(t, "João", learner.Name)
	assert.Equal(t, 2, learner.Grade)
	require.Len(t, f.registry.upserted, 1)
	assert.Equal(t, "/audios/bemvindo_2.mp3", learner.WelcomeAudioRef)
	assert.Equal(t, learner.WelcomeAudioRef, f.registry.welcomeSet[learner.ID])
}

func TestRegisterExistingLearnerKeepsWelcomeAudio(t *testing.T) {
	f := newLearnerFixture(t)

	learner, err := f.svc.Register(context.Background(), "Maria Clara", 4, "maria@exemplo.com")
	require.NoError(t, err)

	assert.Equal(t, "Maria Clara", learner.Name)
	assert.Equal(t, 4, learner.Grade)
	assert.Empty(t, f.registry.welcomeSet, "re-registration does not narrate again")
}

func TestRegisterWelcomeNarrationFailureIgnored(t *testing.T) {
	f := newLearnerFixture(t)
	f.speech.err = errors.New("tts down")

	learner, err := f.svc.Register(context.Background(), "João", 2, "joao@exemplo.com")
	require.NoError(t, err)
	assert.Empty(t, learner.WelcomeAudioRef)
}

func TestRegisterRejectsGradeOutOfRange(t *testing.T) {
	f := newLearnerFixture(t)

	for _, grade := range []int{0, -1, 6, 12} {
		_, err := f.svc.Register(context.Background(), "João", grade, "joao@exemplo.com")
		assert.ErrorIs(t, err, util.ErrInvalidGrade, "grade %d", grade)
	}
}

func TestRegisterPersistenceFailure(t *testing.T) {
	f := newLearnerFixture(t)
	f.registry.upsertErr = errors.New("duplicate key")

	_, err := f.svc.Register(context.Background(), "João", 2, "joao@exemplo.com")
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
}

func TestListAnswers(t *testing.T) {
	f := newLearnerFixture(t)

	answers, err := f.svc.ListAnswers("maria@exemplo.com")
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestListAnswersUnknownLearner(t *testing.T) {
	f := newLearnerFixture(t)

	_, err := f.svc.ListAnswers("ninguem@exemplo.com")
	assert.ErrorIs(t, err, util.ErrLearnerNotFound)
}
