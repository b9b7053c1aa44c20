package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/logger"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/monitoring"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LearnerStore is the slice of the persistence store the pipeline needs for
// learner resolution.
type LearnerStore interface {
	FindByContact(contact string) (*model.Learner, error)
}

// QuestionStore persists and loads questions. CreateWithAudio must make the
// generated identifier available to the attach callback before commit.
type QuestionStore interface {
	CreateWithAudio(q *model.Question, attach func(id uint) string) error
	FindByID(id uint) (*model.Question, error)
}

// AnswerStore persists answer rows and patches narration into them.
type AnswerStore interface {
	Create(a *model.Answer) error
	AttachFeedback(id uint, feedback, audioRef, audioBase64 string) error
}

// Evaluation is the outcome of comparing a submission to the stored correct
// label.
type Evaluation struct {
	Correct  bool   `json:"correct"`
	Expected string `json:"expected"`
	Selected string `json:"selected"`
}

// PipelineState is the request-scoped accumulator threaded through the stage
// sequence of one workflow invocation. It is owned exclusively by that
// invocation and discarded when the call returns; it is never persisted.
type PipelineState struct {
	InvocationID string
	Contact      string
	Grade        int
	LearnerName  string

	Question   model.QuestionPayload
	QuestionID uint

	Submitted   string
	Evaluation  Evaluation
	Feedback    string
	AudioRef    string
	AudioBase64 string
	Saved       bool
	AnswerID    uint
}

// AnswerResult is the caller-facing projection of a completed
// answer-submission invocation.
type AnswerResult struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
	Audio    string `json:"audio"`
	Saved    bool   `json:"saved"`
	AnswerID uint   `json:"answerId"`
}

// stageFunc is one step of a workflow: it reads and mutates the state and may
// call one collaborator or the store.
type stageFunc func(ctx context.Context, st *PipelineState) error

// PipelineService owns the two fixed stage sequences of the exercise loop.
// Collaborators are injected through narrow interfaces so tests can
// substitute deterministic doubles. No timeout or retry policy lives here;
// that belongs to the collaborator adapters.
type PipelineService struct {
	learners  LearnerStore
	questions QuestionStore
	answers   AnswerStore
	generator QuestionGenerator
	feedback  FeedbackGenerator
	speech    SpeechSynthesizer
	storage   *StorageService
}

func NewPipelineService(
	learners LearnerStore,
	questions QuestionStore,
	answers AnswerStore,
	generator QuestionGenerator,
	feedback FeedbackGenerator,
	speech SpeechSynthesizer,
	storage *StorageService,
) *PipelineService {
	return &PipelineService{
		learners:  learners,
		questions: questions,
		answers:   answers,
		generator: generator,
		feedback:  feedback,
		speech:    speech,
		storage:   storage,
	}
}

// runStage logs the stage boundary, executes it and classifies any failure.
// No stage swallows an error silently: degraded collaborator calls are
// handled inside the stage bodies, everything else surfaces here.
func runStage(ctx context.Context, workflow, stage string, st *PipelineState, fn stageFunc) error {
	logger.Log.Info("pipeline stage",
		zap.String("workflow", workflow),
		zap.String("stage", stage),
		zap.String("invocation", st.InvocationID),
	)

	if err := fn(ctx, st); err != nil {
		monitoring.StageFailures.WithLabelValues(workflow, stage).Inc()
		logger.Log.Error("pipeline stage failed",
			zap.String("workflow", workflow),
			zap.String("stage", stage),
			zap.String("invocation", st.InvocationID),
			zap.Error(err),
		)
		return &PipelineError{Workflow: workflow, Stage: stage, Err: err}
	}
	return nil
}

func newState(contact string, grade int) *PipelineState {
	return &PipelineState{
		InvocationID: uuid.New().String(),
		Contact:      contact,
		Grade:        grade,
	}
}

// resolveLearner looks the learner up by guardian contact. The workflow never
// fabricates a learner: absence is a definitive NotFound outcome.
func (s *PipelineService) resolveLearner(_ context.Context, st *PipelineState) error {
	learner, err := s.learners.FindByContact(st.Contact)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLearnerNotFound
		}
		return &PersistenceError{Op: "resolve learner", Err: err}
	}

	st.LearnerName = learner.Name
	if st.Grade == 0 {
		st.Grade = learner.Grade
	}
	return nil
}

// CreateQuestion runs the question-creation workflow: resolve learner,
// generate (or fall back), persist with narration attached in the same
// transactional scope, and return the payload with its identifier.
func (s *PipelineService) CreateQuestion(ctx context.Context, contact string, grade int) (*model.QuestionPayload, error) {
	st := newState(contact, grade)

	stages := []struct {
		name string
		fn   stageFunc
	}{
		{"resolve_learner", s.resolveLearner},
		{"generate_question", s.generateQuestion},
		{"persist_question", s.persistQuestion},
	}

	for _, stage := range stages {
		if err := runStage(ctx, "question_creation", stage.name, st, stage.fn); err != nil {
			return nil, err
		}
	}

	payload := st.Question
	return &payload, nil
}

func (s *PipelineService) generateQuestion(ctx context.Context, st *PipelineState) error {
	gen, err := s.generator.GenerateQuestion(ctx, st.Grade)
	if err != nil {
		// Degraded generation never aborts creation: substitute the
		// deterministic grade-tier fallback and keep going.
		monitoring.FallbackSubstitutions.WithLabelValues("question_generator").Inc()
		logger.Log.Warn("question generator degraded, using fallback",
			zap.Int("grade", st.Grade),
			zap.String("invocation", st.InvocationID),
			zap.Error(err),
		)
		fallback := FallbackQuestion(st.Grade)
		gen = &fallback
	}

	st.Question = model.QuestionPayload{
		Text:         gen.Text,
		Options:      gen.Options,
		CorrectLabel: gen.CorrectLabel,
		Grade:        st.Grade,
	}
	return nil
}

func (s *PipelineService) persistQuestion(ctx context.Context, st *PipelineState) error {
	question := &model.Question{
		Text:         st.Question.Text,
		Options:      st.Question.EncodeOptions(),
		CorrectLabel: st.Question.CorrectLabel,
		Grade:        st.Question.Grade,
	}

	err := s.questions.CreateWithAudio(question, func(id uint) string {
		return s.narrate(ctx, st, fmt.Sprintf("questao_%d.mp3", id), st.Question.Text)
	})
	if err != nil {
		return &PersistenceError{Op: "persist question", Err: err}
	}

	st.QuestionID = question.ID
	st.Question.ID = question.ID
	st.Question.AudioRef = question.AudioRef
	return nil
}

// SubmitAnswer runs the answer-submission workflow. The answer row is
// committed as soon as the evaluation is known; feedback and audio are
// patched in afterwards, so a narration failure can never erase a recorded
// answer.
func (s *PipelineService) SubmitAnswer(ctx context.Context, contact string, questionID uint, submitted string) (*AnswerResult, error) {
	st := newState(contact, 0)
	st.QuestionID = questionID
	st.Submitted = util.NormalizeAnswer(submitted)

	stages := []struct {
		name string
		fn   stageFunc
	}{
		{"resolve_learner", s.resolveLearner},
		{"fetch_question", s.fetchQuestion},
		{"evaluate_answer", s.evaluateAnswer},
		{"persist_answer", s.persistAnswer},
		{"generate_feedback", s.generateFeedback},
		{"synthesize_audio", s.synthesizeAnswerAudio},
		{"update_answer", s.updateAnswer},
	}

	for _, stage := range stages {
		if err := runStage(ctx, "answer_submission", stage.name, st, stage.fn); err != nil {
			return nil, err
		}
	}

	return &AnswerResult{
		Correct:  st.Evaluation.Correct,
		Feedback: st.Feedback,
		Audio:    st.AudioBase64,
		Saved:    st.Saved,
		AnswerID: st.AnswerID,
	}, nil
}

func (s *PipelineService) fetchQuestion(_ context.Context, st *PipelineState) error {
	question, err := s.questions.FindByID(st.QuestionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return &PersistenceError{Op: "fetch question", Err: err}
		}

		// Unknown question id: substitute the grade-tier fallback so the
		// exercise loop still completes. Logged loudly as this is a known
		// consistency gap, not normal operation.
		monitoring.FallbackSubstitutions.WithLabelValues("question_store").Inc()
		logger.Log.Warn("question not found, using fallback question for evaluation",
			zap.Uint("questionId", st.QuestionID),
			zap.String("invocation", st.InvocationID),
		)
		fallback := FallbackQuestion(st.Grade)
		st.Question = model.QuestionPayload{
			ID:           st.QuestionID,
			Text:         fallback.Text,
			Options:      fallback.Options,
			CorrectLabel: fallback.CorrectLabel,
			Grade:        st.Grade,
		}
		return nil
	}

	options, err := question.DecodeOptions()
	if err != nil {
		return fmt.Errorf("decode stored options: %w", err)
	}

	st.Question = model.QuestionPayload{
		ID:           question.ID,
		Text:         question.Text,
		Options:      options,
		CorrectLabel: question.CorrectLabel,
		Grade:        question.Grade,
		AudioRef:     question.AudioRef,
	}
	return nil
}

func (s *PipelineService) evaluateAnswer(_ context.Context, st *PipelineState) error {
	expected := util.NormalizeAnswer(st.Question.CorrectLabel)
	st.Evaluation = Evaluation{
		Correct:  st.Submitted == expected,
		Expected: st.Question.CorrectLabel,
		Selected: st.Submitted,
	}
	return nil
}

func (s *PipelineService) persistAnswer(_ context.Context, st *PipelineState) error {
	answer := &model.Answer{
		QuestionID:      st.QuestionID,
		GuardianContact: st.Contact,
		Selected:        st.Evaluation.Selected,
		Correct:         st.Evaluation.Correct,
		FeedbackText:    "",
	}
	if err := s.answers.Create(answer); err != nil {
		return &PersistenceError{Op: "persist answer", Err: err}
	}

	st.Saved = true
	st.AnswerID = answer.ID
	return nil
}

func (s *PipelineService) generateFeedback(ctx context.Context, st *PipelineState) error {
	outcome := "errou"
	if st.Evaluation.Correct {
		outcome = "acertou"
	}
	evaluation := fmt.Sprintf(
		"A criança %s %s a questão do %dº ano. Resposta esperada: %s, Resposta dada: %s",
		st.LearnerName, outcome, st.Grade, st.Evaluation.Expected, st.Evaluation.Selected,
	)

	text, err := s.feedback.GenerateFeedback(ctx, evaluation)
	if err != nil {
		monitoring.FallbackSubstitutions.WithLabelValues("feedback_generator").Inc()
		logger.Log.Warn("feedback generator degraded, using fallback text",
			zap.String("invocation", st.InvocationID),
			zap.Error(err),
		)
		text = fallbackFeedback(st.LearnerName, st.Evaluation)
	}

	st.Feedback = text
	return nil
}

// fallbackFeedback is the deterministic substitute when the feedback
// collaborator fails.
func fallbackFeedback(name string, eval Evaluation) string {
	if eval.Correct {
		return fmt.Sprintf("Muito bem, %s! Você acertou! A resposta era %s mesmo. Continue assim!", name, eval.Expected)
	}
	return fmt.Sprintf("Boa tentativa, %s! A resposta certa era %s. Vamos tentar de novo juntos!", name, eval.Expected)
}

// synthesizeAnswerAudio narrates the feedback text. Any failure here leaves
// the audio fields empty and the workflow succeeds anyway: a failed narration
// must never block the exercise loop.
func (s *PipelineService) synthesizeAnswerAudio(ctx context.Context, st *PipelineState) error {
	audio, err := s.speech.Synthesize(ctx, st.Feedback)
	if err != nil {
		monitoring.FallbackSubstitutions.WithLabelValues("speech_synthesizer").Inc()
		logger.Log.Warn("speech synthesis failed, answer returns without audio",
			zap.String("invocation", st.InvocationID),
			zap.Error(err),
		)
		return nil
	}

	filename := fmt.Sprintf("feedback_%d.mp3", st.AnswerID)
	ref, err := s.storage.Upload(ctx, filename, bytes.NewReader(audio), int64(len(audio)), util.MimeAudioMPEG)
	if err != nil {
		logger.Log.Warn("audio upload failed, answer returns without audio",
			zap.String("invocation", st.InvocationID),
			zap.Error(err),
		)
		return nil
	}

	st.AudioRef = ref
	st.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
	s.probeNarration(filename)
	return nil
}

func (s *PipelineService) updateAnswer(_ context.Context, st *PipelineState) error {
	if err := s.answers.AttachFeedback(st.AnswerID, st.Feedback, st.AudioRef, st.AudioBase64); err != nil {
		return &PersistenceError{Op: "update answer", Err: err}
	}
	return nil
}

// narrate synthesizes and stores a narration artifact, returning its storage
// reference or "" on any failure. Used for question audio inside the
// question-persistence transaction.
func (s *PipelineService) narrate(ctx context.Context, st *PipelineState, filename, text string) string {
	audio, err := s.speech.Synthesize(ctx, text)
	if err != nil {
		monitoring.FallbackSubstitutions.WithLabelValues("speech_synthesizer").Inc()
		logger.Log.Warn("question narration failed, continuing without audio",
			zap.String("invocation", st.InvocationID),
			zap.Error(err),
		)
		return ""
	}

	ref, err := s.storage.Upload(ctx, filename, bytes.NewReader(audio), int64(len(audio)), util.MimeAudioMPEG)
	if err != nil {
		logger.Log.Warn("question narration upload failed, continuing without audio",
			zap.String("invocation", st.InvocationID),
			zap.Error(err),
		)
		return ""
	}

	s.probeNarration(filename)
	return ref
}

// probeNarration records narration duration when the artifact is reachable on
// local disk. Purely observational.
func (s *PipelineService) probeNarration(filename string) {
	path := s.storage.LocalPath(filename)
	if path == "" {
		return
	}
	info, err := util.ProbeAudio(path)
	if err != nil {
		logger.Log.Debug("narration probe failed", zap.String("file", filename), zap.Error(err))
		return
	}
	monitoring.NarrationDuration.Observe(info.Duration)
	logger.Log.Debug("narration artifact",
		zap.String("file", filename),
		zap.Float64("seconds", info.Duration),
		zap.Int64("bytes", info.Size),
	)
}
