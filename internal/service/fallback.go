package service

import "github.com/joaopedroangelo/Estrela-do-Saber/internal/model"

// fallbackCatalogue holds one deterministic question per grade tier, used
// whenever the question-generation collaborator fails or returns malformed
// content. Grades without an entry reuse the grade-2 question, mirroring the
// catalogue's original coverage.
var fallbackCatalogue = map[int]GeneratedQuestion{
	1: {
		Text: "Qual é a primeira letra da palavra 'CASA'?",
		Options: []model.QuestionOption{
			{Label: "A", Text: "C"},
			{Label: "B", Text: "A"},
			{Label: "C", Text: "S"},
			{Label: "D", Text: "H"},
		},
		CorrectLabel: "A",
	},
	2: {
		Text: "Quantas sílabas tem a palavra 'GATO'?",
		Options: []model.QuestionOption{
			{Label: "A", Text: "1"},
			{Label: "B", Text: "2"},
			{Label: "C", Text: "3"},
			{Label: "D", Text: "4"},
		},
		CorrectLabel: "B",
	},
	3: {
		Text: "Qual palavra rima com 'FLOR'?",
		Options: []model.QuestionOption{
			{Label: "A", Text: "Amor"},
			{Label: "B", Text: "Casa"},
			{Label: "C", Text: "Livro"},
			{Label: "D", Text: "Carro"},
		},
		CorrectLabel: "A",
	},
}

// FallbackQuestion returns the deterministic substitute question for a grade.
// The result always satisfies the question invariant: four distinct labels
// with the correct label among them.
func FallbackQuestion(grade int) GeneratedQuestion {
	if q, ok := fallbackCatalogue[grade]; ok {
		return q
	}
	return fallbackCatalogue[2]
}
