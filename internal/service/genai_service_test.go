package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeneratedQuestionValid(t *testing.T) {
	raw := []byte(`{"question":"Qual é a primeira letra de 'BOLA'?","options":["B","O","L","A"],"answer":"A"}`)

	q, err := ParseGeneratedQuestion(raw)
	require.NoError(t, err)

	assert.Equal(t, "Qual é a primeira letra de 'BOLA'?", q.Text)
	require.Len(t, q.Options, 4)
	assert.Equal(t, "A", q.Options[0].Label)
	assert.Equal(t, "B", q.Options[0].Text)
	assert.Equal(t, "D", q.Options[3].Label)
	assert.Equal(t, "A", q.CorrectLabel)
}

func TestParseGeneratedQuestionAnswerByOptionText(t *testing.T) {
	// Some generations answer with the option content instead of its label.
	raw := []byte(`{"question":"Qual animal mia?","options":["Cachorro","Gato","Pato","Vaca"],"answer":"gato"}`)

	q, err := ParseGeneratedQuestion(raw)
	require.NoError(t, err)
	assert.Equal(t, "B", q.CorrectLabel)
}

func TestParseGeneratedQuestionAnswerNotAmongOptions(t *testing.T) {
	raw := []byte(`{"question":"Qual animal mia?","options":["Cachorro","Gato","Pato","Vaca"],"answer":"Cavalo"}`)

	_, err := ParseGeneratedQuestion(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not among the options")
}

func TestParseGeneratedQuestionMalformedJSON(t *testing.T) {
	_, err := ParseGeneratedQuestion([]byte(`{"question": "incomplete`))
	assert.Error(t, err)
}

func TestParseGeneratedQuestionSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"three options":  `{"question":"q?","options":["a","b","c"],"answer":"A"}`,
		"five options":   `{"question":"q?","options":["a","b","c","d","e"],"answer":"A"}`,
		"empty question": `{"question":"","options":["a","b","c","d"],"answer":"A"}`,
		"missing answer": `{"question":"q?","options":["a","b","c","d"]}`,
		"extra field":    `{"question":"q?","options":["a","b","c","d"],"answer":"A","hint":"x"}`,
		"numeric option": `{"question":"q?","options":["a","b","c",4],"answer":"A"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGeneratedQuestion([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestFallbackQuestionInvariants(t *testing.T) {
	for grade := 1; grade <= 6; grade++ {
		q := FallbackQuestion(grade)

		require.Len(t, q.Options, 4, "grade %d", grade)
		seen := map[string]bool{}
		correctAmongOptions := false
		for _, opt := range q.Options {
			assert.False(t, seen[opt.Label], "grade %d has duplicate label %s", grade, opt.Label)
			seen[opt.Label] = true
			if opt.Label == q.CorrectLabel {
				correctAmongOptions = true
			}
		}
		assert.True(t, correctAmongOptions, "grade %d correct label missing from options", grade)
		assert.NotEmpty(t, q.Text)
	}
}

func TestFallbackQuestionUnknownGradeReusesCatalogue(t *testing.T) {
	assert.Equal(t, FallbackQuestion(2), FallbackQuestion(6))
	assert.Equal(t, FallbackQuestion(2), FallbackQuestion(0))
}

func TestGradeFocusTiers(t *testing.T) {
	focusEarly, _ := gradeFocus(1)
	focusMid, _ := gradeFocus(3)
	focusLate, _ := gradeFocus(5)

	assert.Contains(t, focusEarly, "sílabas simples")
	assert.Contains(t, focusMid, "rimas")
	assert.Contains(t, focusLate, "sinônimos")
	assert.NotEqual(t, focusEarly, focusMid)
	assert.NotEqual(t, focusMid, focusLate)
}
