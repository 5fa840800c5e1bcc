package checklist

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError lists every problem found in a set of answers.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid answers: " + strings.Join(e.Problems, "; ")
}

// ErrEmptyGoal is returned when a goal is blank.
var ErrEmptyGoal = errors.New("goal must not be empty")

// NormalizeGoal trims the goal and rejects blank input.
func NormalizeGoal(goal string) (string, error) {
	goal = strings.Join(strings.Fields(goal), " ")
	if goal == "" {
		return "", ErrEmptyGoal
	}
	return goal, nil
}

// ValidateAnswers checks answers against questions: required questions must
// be answered, single questions take one value, and choice questions only
// accept listed options. Answers to unknown questions are rejected.
func ValidateAnswers(questions []Question, answers Answers) error {
	var problems []string
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
		values := nonEmpty(answers[q.ID])
		if len(values) == 0 {
			if q.Required {
				problems = append(problems, fmt.Sprintf("%s: answer required", q.ID))
			}
			continue
		}
		switch q.Type {
		case QuestionSingle:
			if len(values) > 1 {
				problems = append(problems, fmt.Sprintf("%s: expects one answer, got %d", q.ID, len(values)))
			}
			problems = append(problems, checkOptions(q, values)...)
		case QuestionMultiple:
			problems = append(problems, checkOptions(q, values)...)
		}
	}
	var unknown []string
	for id := range answers {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		problems = append(problems, fmt.Sprintf("%s: no such question", id))
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ParseAnswer splits an `id=value` flag. Multiple values are separated by
// commas.
func ParseAnswer(raw string) (string, []string, error) {
	id, value, ok := strings.Cut(raw, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", nil, fmt.Errorf("answer %q must look like id=value", raw)
	}
	return id, nonEmpty(strings.Split(value, ",")), nil
}

func checkOptions(q Question, values []string) []string {
	if len(q.Options) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		allowed[opt] = struct{}{}
	}
	var problems []string
	for _, v := range values {
		if _, ok := allowed[v]; !ok {
			problems = append(problems, fmt.Sprintf("%s: %q is not one of %s", q.ID, v, strings.Join(q.Options, ", ")))
		}
	}
	return problems
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
