package gemini

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/stepwise-learn/stepwise/internal/grading"
)

// reviewSchema guards against the model drifting off the requested shape:
// breakdown values must be numbers and feedback a string. Category names
// stay free-form; reconciling them is the rubric normalizer's job.
const reviewSchema = `{
	"type": "object",
	"required": ["breakdown", "feedback"],
	"properties": {
		"breakdown": {
			"type": "object",
			"additionalProperties": {"type": "number", "minimum": 0, "maximum": 100}
		},
		"feedback": {"type": "string"}
	}
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(reviewSchema), &def); err != nil {
			compileErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://ai-review.json", def); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = c.Compile("schema://ai-review.json")
	})
	return compiledSchema, compileErr
}

// parseReview validates and unmarshals the model's raw JSON reply.
func parseReview(raw json.RawMessage) (grading.AIReview, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return grading.AIReview{}, fmt.Errorf("grader returned invalid JSON: %w", err)
	}
	schema, err := compiled()
	if err != nil {
		return grading.AIReview{}, fmt.Errorf("compile review schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return grading.AIReview{}, fmt.Errorf("review failed schema validation: %w", err)
	}
	var review grading.AIReview
	if err := json.Unmarshal(raw, &review); err != nil {
		return grading.AIReview{}, err
	}
	if review.Breakdown == nil {
		review.Breakdown = grading.Breakdown{}
	}
	return review, nil
}
