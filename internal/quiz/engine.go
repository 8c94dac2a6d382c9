// Package quiz implements the level-test questionnaire engine: an ordered,
// fixed sequence of questions driven step by step, with a deterministic
// proficiency classification computed from the scored answers.
//
// The engine is a stateless set of pure functions over a session value owned
// by the caller. Operations return updated session copies and never mutate
// their input, so many sessions can run concurrently with no synchronization.
package quiz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coachlingua/leadengine/internal/model"
)

// Engine holds an ordered questionnaire definition.
type Engine struct {
	questions []model.QuestionDefinition
	byID      map[string]int
}

// New builds an engine over the given questions. It fails on duplicate
// question ids or duplicate option values within a question.
func New(questions []model.QuestionDefinition) (*Engine, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("questionnaire has no questions")
	}
	byID := make(map[string]int, len(questions))
	for i, q := range questions {
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		byID[q.ID] = i

		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if seen[opt.Value] {
				return nil, fmt.Errorf("question %q: duplicate option value %q", q.ID, opt.Value)
			}
			seen[opt.Value] = true
		}
		if q.Scored && q.Kind != model.KindSingle {
			return nil, fmt.Errorf("question %q: only single-select questions can be scored", q.ID)
		}
	}
	return &Engine{questions: questions, byID: byID}, nil
}

// Default returns the engine for the fixed level-test questionnaire.
// The catalog is validated at startup; a broken catalog is a programming
// defect and fails loud.
func Default() *Engine {
	e, err := New(LevelTestQuestions())
	if err != nil {
		panic(fmt.Sprintf("quiz: invalid level-test catalog: %v", err))
	}
	return e
}

// NewSession creates a fresh session at step 0 with the given id.
func (e *Engine) NewSession(id string) model.Session {
	return model.Session{ID: id, Step: 0, Answers: map[string]model.Answer{}}
}

// Len returns the number of questions.
func (e *Engine) Len() int {
	return len(e.questions)
}

// Questions returns the ordered question definitions.
func (e *Engine) Questions() []model.QuestionDefinition {
	return e.questions
}

// Question returns a question definition by id.
func (e *Engine) Question(id string) (model.QuestionDefinition, bool) {
	idx, ok := e.byID[id]
	if !ok {
		return model.QuestionDefinition{}, false
	}
	return e.questions[idx], true
}

// CurrentQuestion returns the question at the session's step index.
func (e *Engine) CurrentQuestion(s model.Session) (model.QuestionDefinition, error) {
	if s.Step < 0 || s.Step >= len(e.questions) {
		return model.QuestionDefinition{}, &OutOfRangeError{Index: s.Step, Len: len(e.questions)}
	}
	return e.questions[s.Step], nil
}

// RecordAnswer validates and stores an answer, returning an updated session
// copy. The step pointer does not move. Any known question id is accepted,
// not only the current step's, so a respondent can retreat, edit, and return
// without losing answers.
func (e *Engine) RecordAnswer(s model.Session, questionID string, a model.Answer) (model.Session, error) {
	idx, ok := e.byID[questionID]
	if !ok {
		return s, &InvalidAnswerError{QuestionID: questionID, Reason: "unknown question"}
	}
	q := e.questions[idx]

	norm, err := validateAnswer(q, a)
	if err != nil {
		return s, err
	}

	answers := make(map[string]model.Answer, len(s.Answers)+1)
	for k, v := range s.Answers {
		answers[k] = v
	}
	answers[questionID] = norm
	s.Answers = answers
	return s, nil
}

// validateAnswer checks an answer against the question's kind and returns the
// normalized value to store.
func validateAnswer(q model.QuestionDefinition, a model.Answer) (model.Answer, error) {
	switch q.Kind {
	case model.KindSingle:
		sa, ok := a.(model.SingleAnswer)
		if !ok {
			return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: "expected a single selected value"}
		}
		if sa.Value == "" {
			if q.Required {
				return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: "a selection is required"}
			}
			return sa, nil
		}
		if !hasOption(q, sa.Value) {
			return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: fmt.Sprintf("unknown option %q", sa.Value)}
		}
		return sa, nil

	case model.KindMulti:
		ma, ok := a.(model.MultiAnswer)
		if !ok {
			return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: "expected a set of selected values"}
		}
		if len(ma.Values) == 0 && q.Required {
			return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: "at least one selection is required"}
		}
		// Set semantics: drop duplicates, keep catalog order stable.
		seen := make(map[string]bool, len(ma.Values))
		var values []string
		for _, v := range ma.Values {
			if !hasOption(q, v) {
				return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: fmt.Sprintf("unknown option %q", v)}
			}
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
		return model.MultiAnswer{Values: values}, nil

	case model.KindForm:
		fa, ok := a.(model.FormAnswer)
		if !ok {
			return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: "expected form fields"}
		}
		fields := make(map[string]string, len(q.Fields))
		for _, f := range q.Fields {
			v := strings.TrimSpace(fa.Fields[f.Name])
			if f.Required && v == "" {
				return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: fmt.Sprintf("field %q is required", f.Name)}
			}
			fields[f.Name] = v
		}
		for name := range fa.Fields {
			if !hasField(q, name) {
				return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: fmt.Sprintf("unknown field %q", name)}
			}
		}
		return model.FormAnswer{Fields: fields}, nil
	}
	return nil, &InvalidAnswerError{QuestionID: q.ID, Reason: fmt.Sprintf("unknown question kind %q", q.Kind)}
}

func hasOption(q model.QuestionDefinition, value string) bool {
	for _, opt := range q.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func hasField(q model.QuestionDefinition, name string) bool {
	for _, f := range q.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// CanAdvance reports whether the current question's answer satisfies its
// required-shape constraint. Recorded answers are already validated, so this
// reduces to presence (optional questions never block).
func (e *Engine) CanAdvance(s model.Session) bool {
	q, err := e.CurrentQuestion(s)
	if err != nil {
		return false
	}
	if !q.Required {
		return true
	}
	_, ok := s.Answers[q.ID]
	return ok
}

// Advance moves the session to the next step. It fails with StepLockedError
// when the current answer is missing and is a no-op at the last step.
func (e *Engine) Advance(s model.Session) (model.Session, error) {
	if !e.CanAdvance(s) {
		q, _ := e.CurrentQuestion(s)
		return s, &StepLockedError{Step: s.Step, QuestionID: q.ID}
	}
	if s.Step < len(e.questions)-1 {
		s.Step++
	}
	return s, nil
}

// Retreat moves the session one step back, floored at 0. Answers are kept so
// the respondent can edit and return.
func (e *Engine) Retreat(s model.Session) model.Session {
	if s.Step > 0 {
		s.Step--
	}
	return s
}

// IsLastStep reports whether the session is at the final question.
func (e *Engine) IsLastStep(s model.Session) bool {
	return s.Step == len(e.questions)-1
}

// ProgressPercent returns the display progress, 100 exactly at the last step.
func (e *Engine) ProgressPercent(s model.Session) int {
	return (s.Step + 1) * 100 / len(e.questions)
}

// ComputeResult classifies the session from its scored answers. Scored
// questions without an answer contribute nothing: the average covers only the
// answered subset, and zero answered scored questions yields average 0 and
// the lowest band. The Complete flag tells a partial result apart from a full
// one. ComputeResult never fails and never mutates the session.
func (e *Engine) ComputeResult(s model.Session) model.ScoreResult {
	var sum, count, scored int
	for _, q := range e.questions {
		if !q.Scored {
			continue
		}
		scored++
		sa, ok := s.Answers[q.ID].(model.SingleAnswer)
		if !ok {
			continue
		}
		for _, opt := range q.Options {
			if opt.Value == sa.Value {
				sum += opt.Weight
				count++
				break
			}
		}
	}

	avg := 0.0
	if count > 0 {
		avg = float64(sum) / float64(count)
	}

	band := bandFor(avg)
	return model.ScoreResult{
		LevelBand:      band,
		AverageScore:   avg,
		AnsweredScored: count,
		Complete:       count == scored,
		Recommendation: Recommend(band),
	}
}

// bandFor maps an average score to a level band by ascending threshold,
// first match wins. Thresholds are inclusive, so a boundary value falls in
// the lower band (exactly 2.0 is A1-A2, exactly 3.5 is B1).
func bandFor(avg float64) model.LevelBand {
	switch {
	case avg <= 2.0:
		return model.BandA1A2
	case avg <= 3.5:
		return model.BandB1
	case avg <= 4.5:
		return model.BandB2
	default:
		return model.BandC1C2
	}
}

// Summary renders the pipe-delimited lead message the contact backend expects:
// "Level Test Results: <band> | Sector: ... | Goals: ... | Urgency: ...".
// Values are the machine-readable option values.
func (e *Engine) Summary(s model.Session, res model.ScoreResult) string {
	return fmt.Sprintf("Level Test Results: %s | Sector: %s | Goals: %s | Urgency: %s",
		res.LevelBand,
		e.singleValue(s, QSector),
		e.multiValues(s, QGoals),
		e.singleValue(s, QUrgency),
	)
}

func (e *Engine) singleValue(s model.Session, questionID string) string {
	if sa, ok := s.Answers[questionID].(model.SingleAnswer); ok {
		return sa.Value
	}
	return ""
}

func (e *Engine) multiValues(s model.Session, questionID string) string {
	ma, ok := s.Answers[questionID].(model.MultiAnswer)
	if !ok {
		return ""
	}
	values := append([]string(nil), ma.Values...)
	sort.Strings(values)
	return strings.Join(values, ", ")
}

// ContactFields returns the contact form fields recorded in the session,
// used to build the submitted lead.
func (e *Engine) ContactFields(s model.Session) map[string]string {
	fa, ok := s.Answers[QContact].(model.FormAnswer)
	if !ok {
		return nil
	}
	fields := make(map[string]string, len(fa.Fields))
	for k, v := range fa.Fields {
		fields[k] = v
	}
	return fields
}
