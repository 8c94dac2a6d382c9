package quiz

import "fmt"

// InvalidAnswerError reports a malformed or empty answer for a required
// question. It is recovered locally by re-prompting, never surfaced as a 5xx.
type InvalidAnswerError struct {
	QuestionID string
	Reason     string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer for question %q: %s", e.QuestionID, e.Reason)
}

// StepLockedError reports an attempt to advance past a step whose required
// answer is missing. The caller keeps the respondent on the same step.
type StepLockedError struct {
	Step       int
	QuestionID string
}

func (e *StepLockedError) Error() string {
	return fmt.Sprintf("step %d (%s) requires an answer before advancing", e.Step, e.QuestionID)
}

// OutOfRangeError reports a session step index outside the questionnaire.
// It signals a programming defect and should be unreachable through normal use.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("step index %d out of range (questionnaire has %d questions)", e.Index, e.Len)
}
