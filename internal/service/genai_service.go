package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/joaopedroangelo/Estrela-do-Saber/internal/config"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
	"github.com/santhosh-tekuri/jsonschema/v6"
	openai "github.com/sashabaranov/go-openai"
)

// GeneratedQuestion is what the question-generation collaborator hands back
// after validation: four labeled options and a correct label guaranteed to be
// among them.
type GeneratedQuestion struct {
	Text         string
	Options      []model.QuestionOption
	CorrectLabel string
}

// QuestionGenerator produces a grade-appropriate multiple-choice question.
// Failures are surfaced as errors; the pipeline substitutes the fallback.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, grade int) (*GeneratedQuestion, error)
}

// FeedbackGenerator turns an evaluation summary into encouraging free text.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, evaluation string) (string, error)
}

// SpeechSynthesizer renders text into audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// GenAIService implements all three generative collaborators over one
// OpenAI-compatible endpoint. No retries are performed here; resilience, if
// wanted, belongs to this adapter layer and not to the pipeline.
type GenAIService struct {
	client *openai.Client
	cfg    config.GenAIConfig
}

func NewGenAIService(cfg config.GenAIConfig) *GenAIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &GenAIService{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

var optionLabels = []string{"A", "B", "C", "D"}

// gradeFocus adapts prompt content to the school grade, mirroring the
// literacy curriculum tiers.
func gradeFocus(grade int) (focus, complexity string) {
	switch {
	case grade <= 2:
		return "reconhecimento de letras, sílabas simples, palavras básicas do cotidiano",
			"muito simples, com palavras de 2-4 letras"
	case grade <= 4:
		return "formação de palavras, rimas, separação silábica, interpretação de frases curtas",
			"simples, com palavras familiares de até 6 letras"
	default:
		return "interpretação de textos curtos, sinônimos, antônimos, classificação de palavras",
			"moderado, com vocabulário mais amplo"
	}
}

func questionSystemPrompt(grade int) string {
	focus, complexity := gradeFocus(grade)
	return fmt.Sprintf(`Você é um especialista em educação infantil e alfabetização.
Crie uma questão de múltipla escolha para crianças do %dº ano do ensino fundamental.

FOCO: %s
COMPLEXIDADE: %s

REGRAS OBRIGATÓRIAS:
1. Use linguagem adequada para a idade (simples, clara, amigável)
2. Crie exatamente 4 opções de resposta
3. As opções devem ser rotuladas como A, B, C, D
4. Apenas UMA opção deve estar correta
5. As outras 3 opções devem ser plausíveis mas incorretas
6. Use contextos lúdicos e divertidos (animais, brinquedos, natureza)

RESPONDA APENAS EM JSON no formato EXATO:
{"question": "texto da pergunta aqui", "options": ["opção A", "opção B", "opção C", "opção D"], "answer": "A"}`,
		grade, focus, complexity)
}

// rawQuestion is the generator's wire contract: four option texts and the
// correct label.
type rawQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

var (
	questionSchemaOnce sync.Once
	questionSchema     *jsonschema.Schema
	questionSchemaErr  error
)

// compiledQuestionSchema compiles the generator output schema once.
func compiledQuestionSchema() (*jsonschema.Schema, error) {
	questionSchemaOnce.Do(func() {
		def := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{"type": "string", "minLength": 1},
				"options": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string", "minLength": 1},
					"minItems": 4,
					"maxItems": 4,
				},
				"answer": map[string]any{"type": "string", "minLength": 1},
			},
			"required":             []any{"question", "options", "answer"},
			"additionalProperties": false,
		}

		defBytes, err := json.Marshal(def)
		if err != nil {
			questionSchemaErr = err
			return
		}
		var parsed any
		if err := json.Unmarshal(defBytes, &parsed); err != nil {
			questionSchemaErr = err
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://question.json", parsed); err != nil {
			questionSchemaErr = err
			return
		}
		questionSchema, questionSchemaErr = c.Compile("schema://question.json")
	})
	return questionSchema, questionSchemaErr
}

// ParseGeneratedQuestion validates raw generator JSON and lifts it into
// labeled options. The answer must be an option label, or exactly one option
// text, otherwise the content is rejected.
func ParseGeneratedQuestion(raw []byte) (*GeneratedQuestion, error) {
	schema, err := compiledQuestionSchema()
	if err != nil {
		return nil, fmt.Errorf("compile question schema: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("generator returned invalid JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("generator output failed schema validation: %w", err)
	}

	var rq rawQuestion
	if err := json.Unmarshal(raw, &rq); err != nil {
		return nil, err
	}

	options := make([]model.QuestionOption, len(rq.Options))
	for i, text := range rq.Options {
		options[i] = model.QuestionOption{Label: optionLabels[i], Text: strings.TrimSpace(text)}
	}

	answer := util.NormalizeAnswer(rq.Answer)
	correct := ""
	for _, opt := range options {
		if answer == opt.Label {
			correct = opt.Label
			break
		}
	}
	if correct == "" {
		// Some generations answer with the option text instead of its label.
		for _, opt := range options {
			if answer == util.NormalizeAnswer(opt.Text) {
				correct = opt.Label
				break
			}
		}
	}
	if correct == "" {
		return nil, fmt.Errorf("correct answer %q is not among the options", rq.Answer)
	}

	return &GeneratedQuestion{
		Text:         strings.TrimSpace(rq.Question),
		Options:      options,
		CorrectLabel: correct,
	}, nil
}

func (s *GenAIService) GenerateQuestion(ctx context.Context, grade int) (*GeneratedQuestion, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: questionSystemPrompt(grade)},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Gere uma questão de alfabetização para o %dº ano.", grade)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("question generator returned no choices")
	}

	return ParseGeneratedQuestion([]byte(resp.Choices[0].Message.Content))
}

const feedbackSystemPrompt = `Você é um assistente pedagógico animado e divertido para crianças em fase de alfabetização.
Transforme a avaliação recebida em uma mensagem positiva e encorajadora que será NARRADA EM ÁUDIO para a criança.

DIRETRIZES:
1. Frases curtas e simples, com no máximo 5-6 palavras cada
2. Linguagem sonora e animada, como se estivesse brincando com a criança
3. Chame a criança pelo nome sempre que possível
4. Diga qual era a resposta correta e se a criança acertou, sempre de forma positiva
5. Termine com uma mensagem de incentivo alegre
6. NUNCA use emojis, termos técnicos ou comparações com outras crianças`

func (s *GenAIService) GenerateFeedback(ctx context.Context, evaluation string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.ChatModel,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: feedbackSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Aqui está a avaliação do professor:\n" + evaluation},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("feedback generator returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("feedback generator returned empty text")
	}
	return text, nil
}

func (s *GenAIService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(s.cfg.TTSModel),
		Input: text,
		Voice: openai.SpeechVoice(s.cfg.TTSVoice),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	return io.ReadAll(resp)
}
