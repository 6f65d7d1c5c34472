package preview

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// Submitter receives a validated submission.
type Submitter interface {
	Submit(ctx context.Context, values map[string]any) error
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, values map[string]any) error

func (f SubmitterFunc) Submit(ctx context.Context, values map[string]any) error {
	return f(ctx, values)
}

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is the toast shown after a submit.
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// Outcome is the result of a submit.
type Outcome struct {
	OK           bool           `json:"ok"`
	Values       map[string]any `json:"values,omitempty"`
	Errors       *schema.Errors `json:"errors,omitempty"`
	Notification Notification   `json:"notification"`
}

// Submit validates the state against the schema of fields. Valid input is
// passed to sub and announced with a success notification. Invalid input is
// recorded on the state and sub is not called.
func Submit(ctx context.Context, fields []field.Field, state *State, sub Submitter) Outcome {
	s := schema.Synthesize(fields)
	input := state.Values()

	if errs := s.Validate(input); errs != nil {
		state.Errors = errs
		return Outcome{
			Errors: errs,
			Notification: Notification{
				Level:   LevelError,
				Title:   "Please fix the highlighted fields",
				Message: errs.Error(),
			},
		}
	}
	state.Errors = nil

	values := make(map[string]any, len(s.Rules))
	for _, r := range s.Rules {
		if v, ok := input[r.Field]; ok && v != nil {
			values[r.Field] = v
		}
	}

	if sub != nil {
		if err := sub.Submit(ctx, values); err != nil {
			return Outcome{
				Values: values,
				Notification: Notification{
					Level:   LevelError,
					Title:   "Submission failed",
					Message: err.Error(),
				},
			}
		}
	}

	return Outcome{
		OK:     true,
		Values: values,
		Notification: Notification{
			Level:   LevelSuccess,
			Title:   "Form submitted successfully!",
			Message: summary(values),
		},
	}
}

// summary renders the submitted values for the success toast. Values that
// have no JSON form fall back to their Go formatting.
func summary(values map[string]any) string {
	body, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Sprint(values)
	}
	return string(body)
}
