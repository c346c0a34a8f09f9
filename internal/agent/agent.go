// Package agent generates visa interview questions with an LLM and falls back to a fixed bank.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"interviewapi/internal/config"
	"interviewapi/internal/model"
)

const (
	batchSize        = 5
	expectedDuration = 30
)

type bankQuestion struct {
	text, category, difficulty string
}

var fallbackBank = []bankQuestion{
	{"What is the purpose of your visit?", "purpose", "easy"},
	{"How long do you plan to stay?", "travel", "easy"},
	{"Do you have family or friends in the destination country?", "ties", "medium"},
	{"What is your current occupation?", "background", "easy"},
	{"How will you finance your trip?", "financial", "medium"},
	{"Have you traveled internationally before?", "travel", "easy"},
	{"What ties do you have to your home country?", "ties", "medium"},
}

// Profile is the applicant context questions are tailored to.
type Profile struct {
	VisaType       string
	Purpose        string
	Country        string
	Occupation     string
	EducationLevel string
}

// ProfileFromOnboarding maps questionnaire answers to a Profile. o may be nil.
func ProfileFromOnboarding(o *model.OnboardingResponse) Profile {
	if o == nil {
		return Profile{}
	}
	p := Profile{VisaType: o.VisaType, Purpose: o.TravelPurpose, Country: o.DestinationCountry}
	if o.EmploymentStatus != nil {
		p.Occupation = *o.EmploymentStatus
	}
	if o.EducationLevel != nil {
		p.EducationLevel = *o.EducationLevel
	}
	return p
}

// Context renders the profile as a single prompt line.
func (p Profile) Context() string {
	var parts []string
	if p.VisaType != "" {
		parts = append(parts, "Visa Type: "+p.VisaType)
	}
	if p.Purpose != "" {
		parts = append(parts, "Purpose: "+p.Purpose)
	}
	if p.Country != "" {
		parts = append(parts, "Country: "+p.Country)
	}
	if p.Occupation != "" {
		parts = append(parts, "Occupation: "+p.Occupation)
	}
	if len(parts) == 0 {
		return "General visa interview"
	}
	return strings.Join(parts, " | ")
}

// FallbackQuestions cycles through the built-in bank, numbering from start.
func FallbackQuestions(count, start int) []model.GeneratedQuestion {
	out := make([]model.GeneratedQuestion, 0, count)
	for i := 0; i < count; i++ {
		b := fallbackBank[i%len(fallbackBank)]
		out = append(out, model.GeneratedQuestion{
			ID:               start + i,
			Text:             b.text,
			Category:         b.category,
			Difficulty:       b.difficulty,
			ExpectedDuration: expectedDuration,
		})
	}
	return out
}

// Agent generates question sets through the Groq chat completions API.
type Agent struct {
	apiKey  string
	apiURL  string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New creates an agent. Without an API key every call returns fallback questions.
func New(cfg config.AIConfig, log zerolog.Logger) *Agent {
	return &Agent{
		apiKey: cfg.GroqAPIKey,
		apiURL: cfg.GroqAPIURL,
		model:  cfg.GroqModel,
		http: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     log,
	}
}

// GenerateQuestions returns count questions for the profile, generated in batches of five.
// Any API failure switches the whole set to the fallback bank.
func (a *Agent) GenerateQuestions(ctx context.Context, p Profile, count int) []model.GeneratedQuestion {
	if a.apiKey == "" {
		a.log.Warn().Str("event", "question_generation_fallback").Msg("groq api key not set, using fallback questions")
		return FallbackQuestions(count, 1)
	}

	prompt := p.Context()
	out := make([]model.GeneratedQuestion, 0, count)
	for i := 0; i < count; i += batchSize {
		n := min(batchSize, count-i)
		batch, err := a.generateBatch(ctx, prompt, n, i+1)
		if err != nil {
			a.log.Error().Err(err).Str("event", "question_generation_fallback").Msg("question generation failed")
			return FallbackQuestions(count, 1)
		}
		out = append(out, batch...)
	}
	return out
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type batchPayload struct {
	Questions []struct {
		Text       string `json:"text"`
		Category   string `json:"category"`
		Difficulty string `json:"difficulty"`
	} `json:"questions"`
}

func (a *Agent) generateBatch(ctx context.Context, profile string, count, start int) ([]model.GeneratedQuestion, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a consular officer conducting a visa interview. " +
				`Reply with JSON: {"questions":[{"text":"...","category":"...","difficulty":"easy|medium|hard"}]}.`},
			{Role: "user", Content: fmt.Sprintf("Applicant: %s. Write %d distinct interview questions.", profile, count)},
		},
		Temperature:    0.7,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("groq status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New("completion has no choices")
	}
	var bp batchPayload
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &bp); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(bp.Questions) < count {
		return nil, fmt.Errorf("got %d questions, want %d", len(bp.Questions), count)
	}

	out := make([]model.GeneratedQuestion, 0, count)
	for i, q := range bp.Questions[:count] {
		diff := q.Difficulty
		if diff == "" {
			diff = "medium"
		}
		out = append(out, model.GeneratedQuestion{
			ID:               start + i,
			Text:             q.Text,
			Category:         q.Category,
			Difficulty:       diff,
			ExpectedDuration: expectedDuration,
		})
	}
	return out, nil
}
