// Exercises the full question and answer flow against a running server,
// the way the game client would: register a learner, play two rounds
// (one correct, one incorrect), then fetch the history and the report.
//
// Usage: go run scripts/mock_game.go [-base http://localhost:8080]

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

const guardianContact = "maria.teste@exemplo.com"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type questionPayload struct {
	ID           uint   `json:"id"`
	Text         string `json:"question"`
	Options      []struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	} `json:"options"`
	CorrectLabel string `json:"correctLabel"`
	Grade        int    `json:"grade"`
}

type answerResult struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
	Audio    string `json:"audio"`
	Saved    bool   `json:"saved"`
	AnswerID uint   `json:"answerId"`
}

func call(method, url string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, url, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %d %s", method, url, resp.StatusCode, env.Message)
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func playRound(base string, correct bool) (*answerResult, error) {
	var question questionPayload
	err := call(http.MethodPost, base+"/api/questions", map[string]interface{}{
		"grade":           3,
		"guardianContact": guardianContact,
	}, &question)
	if err != nil {
		return nil, fmt.Errorf("requesting question: %w", err)
	}
	log.Printf("Question %d: %s", question.ID, question.Text)
	for _, opt := range question.Options {
		log.Printf("  %s) %s", opt.Label, opt.Text)
	}

	selected := question.CorrectLabel
	if !correct {
		selected = "B"
		if question.CorrectLabel == "B" {
			selected = "C"
		}
	}

	var result answerResult
	err = call(http.MethodPost, base+"/api/answers", map[string]interface{}{
		"questionId":      question.ID,
		"answer":          selected,
		"guardianContact": guardianContact,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("submitting answer: %w", err)
	}
	log.Printf("Answered %s: correct=%v saved=%v audio=%v", selected, result.Correct, result.Saved, result.Audio != "")
	log.Printf("Feedback: %s", result.Feedback)
	return &result, nil
}

func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	flag.Parse()

	if err := call(http.MethodGet, *base+"/api/health", nil, nil); err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	log.Println("Health check OK")

	err := call(http.MethodPost, *base+"/api/register", map[string]interface{}{
		"name":            "Maria",
		"grade":           3,
		"guardianContact": guardianContact,
	}, nil)
	if err != nil {
		log.Fatalf("Registration failed: %v", err)
	}
	log.Println("Learner registered")

	if _, err := playRound(*base, true); err != nil {
		log.Fatalf("Correct round failed: %v", err)
	}
	time.Sleep(time.Second)
	if _, err := playRound(*base, false); err != nil {
		log.Fatalf("Incorrect round failed: %v", err)
	}

	var history struct {
		Total   int               `json:"total"`
		Answers []json.RawMessage `json:"answers"`
	}
	if err := call(http.MethodGet, *base+"/api/answers/"+guardianContact, nil, &history); err != nil {
		log.Fatalf("History fetch failed: %v", err)
	}
	log.Printf("History holds %d answers", history.Total)

	var report map[string]interface{}
	if err := call(http.MethodGet, *base+"/api/reports/"+guardianContact+"?fresh=1", nil, &report); err != nil {
		log.Fatalf("Report fetch failed: %v", err)
	}
	pretty, _ := json.MarshalIndent(report, "", "  ")
	log.Printf("Report:\n%s", pretty)
}
