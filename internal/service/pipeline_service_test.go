package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/joaopedroangelo/Estrela-do-Saber/internal/config"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubLearners struct {
	learners map[string]*model.Learner
	err      error
}

func (s *stubLearners) FindByContact(contact string) (*model.Learner, error) {
	if s.err != nil {
		return nil, s.err
	}
	if l, ok := s.learners[contact]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubQuestions struct {
	byID      map[uint]*model.Question
	nextID    uint
	createErr error
	findErr   error
}

func (s *stubQuestions) CreateWithAudio(q *model.Question, attach func(id uint) string) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	q.ID = s.nextID
	if ref := attach(q.ID); ref != "" {
		q.AudioRef = ref
	}
	s.byID[q.ID] = q
	return nil
}

func (s *stubQuestions) FindByID(id uint) (*model.Question, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if q, ok := s.byID[id]; ok {
		return q, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubAnswers struct {
	rows      map[uint]*model.Answer
	nextID    uint
	createErr error
	attachErr error
}

func (s *stubAnswers) Create(a *model.Answer) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	a.ID = s.nextID
	row := *a
	s.rows[a.ID] = &row
	return nil
}

func (s *stubAnswers) AttachFeedback(id uint, feedback, audioRef, audioBase64 string) error {
	if s.attachErr != nil {
		return s.attachErr
	}
	row, ok := s.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.FeedbackText = feedback
	row.AudioRef = audioRef
	row.AudioBase64 = audioBase64
	return nil
}

type stubGenerator struct {
	question *GeneratedQuestion
	err      error
}

func (s *stubGenerator) GenerateQuestion(ctx context.Context, grade int) (*GeneratedQuestion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.question, nil
}

type stubFeedback struct {
	text string
	err  error
}

func (s *stubFeedback) GenerateFeedback(ctx context.Context, evaluation string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubSpeech struct {
	audio []byte
	err   error
}

func (s *stubSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

func testStorage(t *testing.T) *StorageService {
	t.Helper()
	return &StorageService{Provider: &LocalStorageProvider{
		Config: &config.StorageConfig{LocalPath: t.TempDir()},
	}}
}

type pipelineFixture struct {
	learners  *stubLearners
	questions *stubQuestions
	answers   *stubAnswers
	generator *stubGenerator
	feedback  *stubFeedback
	speech    *stubSpeech
	svc       *PipelineService
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		learners: &stubLearners{learners: map[string]*model.Learner{
			"maria@exemplo.com": {ID: 1, Name: "Maria", Grade: 3, GuardianContact: "maria@exemplo.com"},
		}},
		questions: &stubQuestions{byID: map[uint]*model.Question{}},
		answers:   &stubAnswers{rows: map[uint]*model.Answer{}},
		generator: &stubGenerator{question: &GeneratedQuestion{
			Text: "Qual palavra rima com 'PÃO'?",
			Options: []model.QuestionOption{
				{Label: "A", Text: "Mão"},
				{Label: "B", Text: "Sol"},
				{Label: "C", Text: "Lua"},
				{Label: "D", Text: "Mar"},
			},
			CorrectLabel: "A",
		}},
		feedback: &stubFeedback{text: "Muito bem, Maria!"},
		speech:   &stubSpeech{audio: []byte("mp3-bytes")},
	}
	f.svc = NewPipelineService(f.learners, f.questions, f.answers, f.generator, f.feedback, f.speech, testStorage(t))
	return f
}

func (f *pipelineFixture) seedQuestion() *model.Question {
	payload := model.QuestionPayload{
		Text:         "Quantas sílabas tem a palavra 'BOLA'?",
		Options:      []model.QuestionOption{{Label: "A", Text: "1"}, {Label: "B", Text: "2"}, {Label: "C", Text: "3"}, {Label: "D", Text: "4"}},
		CorrectLabel: "B",
		Grade:        3,
	}
	q := &model.Question{
		ID:           42,
		Text:         payload.Text,
		Options:      payload.EncodeOptions(),
		CorrectLabel: payload.CorrectLabel,
		Grade:        payload.Grade,
	}
	f.questions.byID[q.ID] = q
	return q
}

func TestCreateQuestionPersistsGeneratedContent(t *testing.T) {
	f := newPipelineFixture(t)

	payload, err := f.svc.CreateQuestion(context.Background(), "maria@exemplo.com", 0)
	require.NoError(t, err)

	assert.Equal(t, uint(1), payload.ID)
	assert.Equal(t, 3, payload.Grade, "grade defaults to the learner's")
	assert.Equal(t, "A", payload.CorrectLabel)
	assert.Len(t, payload.Options, 4)
	assert.Equal(t, "/audios/questao_1.mp3", payload.AudioRef)

	stored := f.questions.byID[1]
	require.NotNil(t, stored)
	options, err := stored.DecodeOptions()
	require.NoError(t, err)
	assert.Equal(t, payload.Options, options)
}

func TestCreateQuestionExplicitGradeWins(t *testing.T) {
	f := newPipelineFixture(t)

	payload, err := f.svc.CreateQuestion(context.Background(), "maria@exemplo.com", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, payload.Grade)
}

func TestCreateQuestionFallsBackWhenGeneratorFails(t *testing.T) {
	f := newPipelineFixture(t)
	f.generator.err = errors.New("model unavailable")

	payload, err := f.svc.CreateQuestion(context.Background(), "maria@exemplo.com", 3)
	require.NoError(t, err, "degraded generation must not abort creation")

	want := FallbackQuestion(3)
	assert.Equal(t, want.Text, payload.Text)
	assert.Equal(t, want.CorrectLabel, payload.CorrectLabel)
	assert.Len(t, payload.Options, 4)
	assert.NotZero(t, payload.ID, "fallback question is persisted like any other")
}

func TestCreateQuestionUnknownLearner(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.svc.CreateQuestion(context.Background(), "ninguem@exemplo.com", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrLearnerNotFound)

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "question_creation", perr.Workflow)
	assert.Equal(t, "resolve_learner", perr.Stage)
}

func TestCreateQuestionPersistenceFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.questions.createErr = errors.New("connection reset")

	_, err := f.svc.CreateQuestion(context.Background(), "maria@exemplo.com", 3)
	require.Error(t, err)

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestCreateQuestionNarrationFailureKeepsQuestion(t *testing.T) {
	f := newPipelineFixture(t)
	f.speech.err = errors.New("tts down")

	payload, err := f.svc.CreateQuestion(context.Background(), "maria@exemplo.com", 3)
	require.NoError(t, err)
	assert.Empty(t, payload.AudioRef)
	assert.NotZero(t, payload.ID)
}

func TestSubmitAnswerCorrect(t *testing.T) {
	f := newPipelineFixture(t)
	q := f.seedQuestion()

	// Lowercase with surrounding whitespace still matches the stored label.
	result, err := f.svc.SubmitAnswer(context.Background(), "maria@exemplo.com", q.ID, " b ")
	require.NoError(t, err)

	assert.True(t, result.Correct)
	assert.True(t, result.Saved)
	assert.Equal(t, "Muito bem, Maria!", result.Feedback)
	assert.NotEmpty(t, result.Audio)
	require.NotZero(t, result.AnswerID)

	row := f.answers.rows[result.AnswerID]
	require.NotNil(t, row)
	assert.Equal(t, q.ID, row.QuestionID)
	assert.Equal(t, "B", row.Selected)
	assert.True(t, row.Correct)
	assert.Equal(t, "Muito bem, Maria!", row.FeedbackText)
	assert.Equal(t, fmt.Sprintf("/audios/feedback_%d.mp3", result.AnswerID), row.AudioRef)
	assert.Equal(t, result.Audio, row.AudioBase64)
}

func TestSubmitAnswerIncorrect(t *testing.T) {
	f := newPipelineFixture(t)
	q := f.seedQuestion()

	result, err := f.svc.SubmitAnswer(context.Background(), "maria@exemplo.com", q.ID, "C")
	require.NoError(t, err)

	assert.False(t, result.Correct)
	assert.True(t, result.Saved)
	row := f.answers.rows[result.AnswerID]
	require.NotNil(t, row)
	assert.False(t, row.Correct)
	assert.Equal(t, "C", row.Selected)
}

func TestSubmitAnswerUnknownQuestionUsesFallback(t *testing.T) {
	f := newPipelineFixture(t)

	fallback := FallbackQuestion(3)
	result, err := f.svc.SubmitAnswer(context.Background(), "maria@exemplo.com", 999, fallback.CorrectLabel)
	require.NoError(t, err, "a missing question must not break the exercise loop")

	assert.True(t, result.Correct)
	assert.True(t, result.Saved)
	row := f.answers.rows[result.AnswerID]
	require.NotNil(t, row)
	assert.Equal(t, uint(999), row.QuestionID, "the requested id is kept on the recorded answer")
}

func TestSubmitAnswerSpeechFailureStillSucceeds(t *testing.T) {
	f := newPipelineFixture(t)
	q := f.seedQuestion()
	f.speech.err = errors.New("tts down")

	result, err := f.svc.SubmitAnswer(context.Background(), "maria@exemplo.com", q.ID, "B")
	require.NoError(t, err)

	assert.True(t, result.Saved)
	assert.Empty(t, result.Audio)
	row := f.answers.rows[result.AnswerID]
	require.NotNil(t, row)
	assert.Equal(t, "Muito bem, Maria!", row.FeedbackText, "feedback is patched even without audio")
	assert.Empty(t, row.AudioRef)
}

func TestSubmitAnswerFeedbackFailureUsesDeterministicText(t *testing.T) {
	f := newPipelineFixture(t)
	q := f.seedQuestion()
	f.feedback.err = errors.New("model unavailable")

	result, err := f.svc.SubmitAnswer(context.Background(), "maria@exemplo.com", q.ID, "B")
	require.NoError(t, err)

	want := fallbackFeedback("Maria", Evaluation{Correct: true, Expected: "B", Selected: "B"})
	assert.Equal(t, want, result.Feedback)
}

func TestSubmitAnswerPersistenceFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t)
	q := f.seedQuestion()
	f.answers.createErr = errors.New("disk full")

	_, err := f.svc.SubmitAnswer(context.Background(), "maria@exemplo.com", q.ID, "B")
	require.Error(t, err)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "persist answer", perr.Op)
}

func TestSubmitAnswerAttachFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t)
	q := f.seedQuestion()
	f.answers.attachErr = errors.New("deadlock")

	_, err := f.svc.SubmitAnswer(context.Background(), "maria@exemplo.com", q.ID, "B")
	require.Error(t, err)

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "update_answer", perr.Stage)

	// The answer row itself survived the failed patch.
	require.Len(t, f.answers.rows, 1)
}

func TestSubmitAnswerUnknownLearner(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.svc.SubmitAnswer(context.Background(), "ninguem@exemplo.com", 1, "A")
	assert.ErrorIs(t, err, util.ErrLearnerNotFound)
}
