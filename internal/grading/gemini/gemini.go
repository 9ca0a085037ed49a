// Package gemini implements grading.RubricGrader against the Google Gemini
// API. The model is asked for a JSON object scoring the submission per
// rubric category; the reply is schema-validated before it becomes a
// grading.AIReview.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/stepwise-learn/stepwise/internal/grading"
)

const defaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Grader struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func New(ctx context.Context, cfg Config) (*Grader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &Grader{client: client, model: model, timeout: timeout}, nil
}

func (g *Grader) GradeSubmission(ctx context.Context, sub grading.Submission, rubric grading.Rubric) (grading.AIReview, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	parts := []*genai.Part{{Text: buildPrompt(sub, rubric)}}
	if len(sub.Image) > 0 {
		mime := sub.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: sub.Image}})
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"breakdown": {
					Type:        genai.TypeObject,
					Description: "per-category percentage scores, 0-100",
				},
				"feedback": {Type: genai.TypeString},
			},
			Required: []string{"breakdown", "feedback"},
		},
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return grading.AIReview{}, fmt.Errorf("gemini grade call: %w", err)
	}
	return parseReview(json.RawMessage(result.Text()))
}

func buildPrompt(sub grading.Submission, rubric grading.Rubric) string {
	cats := make([]string, 0, len(rubric))
	for c := range rubric {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var b strings.Builder
	b.WriteString("You are grading one student answer against a rubric.\n")
	b.WriteString("Score each rubric category from 0 to 100 and return JSON ")
	b.WriteString(`{"breakdown": {<category>: <score>, ...}, "feedback": <string>}.` + "\n")
	b.WriteString("Use the category names exactly as given. If the submitted ")
	b.WriteString("content is unreadable or unrelated to the question, set ")
	b.WriteString(`feedback to "validation failed".` + "\n\n")
	b.WriteString("Rubric categories (name: weight):\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s: %g\n", c, rubric[c])
	}
	if sub.QuestionText != "" {
		b.WriteString("\nQuestion:\n" + sub.QuestionText + "\n")
	}
	if sub.Response != "" {
		b.WriteString("\nStudent answer:\n" + sub.Response + "\n")
	}
	if len(sub.Image) > 0 {
		b.WriteString("\nThe student's written work is attached as an image.\n")
	}
	return b.String()
}
