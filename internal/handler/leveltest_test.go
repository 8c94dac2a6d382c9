package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/coachlingua/leadengine/internal/model"
)

type stateResponse struct {
	SessionID       string       `json:"session_id"`
	Step            int          `json:"step"`
	TotalSteps      int          `json:"total_steps"`
	ProgressPercent int          `json:"progress_percent"`
	IsLastStep      bool         `json:"is_last_step"`
	CanAdvance      bool         `json:"can_advance"`
	Question        questionView `json:"question"`
}

func startLevelTest(t *testing.T, srv http.Handler, lang string) stateResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/level-test/start", map[string]any{"language": lang})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	var state stateResponse
	decodeBody(t, rec, &state)
	if state.SessionID == "" {
		t.Fatal("start returned no session id")
	}
	return state
}

func answerAndAdvance(t *testing.T, srv http.Handler, sessionID string, answer map[string]any) stateResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/level-test/"+sessionID+"/answer", answer)
	if rec.Code != http.StatusOK {
		t.Fatalf("answer %v status = %d: %s", answer["question_id"], rec.Code, rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/level-test/"+sessionID+"/advance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance after %v status = %d: %s", answer["question_id"], rec.Code, rec.Body.String())
	}
	var state stateResponse
	decodeBody(t, rec, &state)
	return state
}

func TestLevelTestFullFlow(t *testing.T) {
	srv, st := newTestServer(t)

	state := startLevelTest(t, srv, "en")
	if state.TotalSteps != 7 {
		t.Fatalf("total steps = %d, want 7", state.TotalSteps)
	}
	if state.Question.ID != "sector" {
		t.Fatalf("first question = %q, want sector", state.Question.ID)
	}
	if state.Question.Label != "Which sector do you work in?" {
		t.Errorf("label = %q, want the English sector label", state.Question.Label)
	}
	if state.CanAdvance {
		t.Error("can_advance before answering")
	}

	id := state.SessionID
	state = answerAndAdvance(t, srv, id, map[string]any{"question_id": "sector", "value": "technology"})
	state = answerAndAdvance(t, srv, id, map[string]any{"question_id": "self_level", "value": "conversational"})
	state = answerAndAdvance(t, srv, id, map[string]any{"question_id": "listening", "value": "conversational"})
	state = answerAndAdvance(t, srv, id, map[string]any{"question_id": "speaking", "value": "elementary"})
	state = answerAndAdvance(t, srv, id, map[string]any{"question_id": "goals", "values": []string{"career", "meetings"}})
	state = answerAndAdvance(t, srv, id, map[string]any{"question_id": "urgency", "value": "asap"})
	if !state.IsLastStep {
		t.Fatal("expected to be on the contact step")
	}
	if state.Question.Kind != "form" {
		t.Fatalf("last question kind = %q, want form", state.Question.Kind)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/level-test/"+id+"/answer", map[string]any{
		"question_id": "contact",
		"fields": map[string]string{
			"name":  "Maria Esposito",
			"email": "maria@example.com",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("contact answer status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/level-test/"+id+"/result?submit=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d: %s", rec.Code, rec.Body.String())
	}
	var result levelTestResultResponse
	decodeBody(t, rec, &result)

	// Weights 4, 4, 3 average to 3.67 -> B2.
	if result.Result.LevelBand != model.BandB2 {
		t.Errorf("band = %q, want %q", result.Result.LevelBand, model.BandB2)
	}
	if !result.Complete {
		t.Error("result not complete with all scored questions answered")
	}
	if !strings.HasPrefix(result.Summary, "Level Test Results: B2") {
		t.Errorf("summary = %q", result.Summary)
	}
	if result.Submitted == nil || !*result.Submitted {
		t.Fatal("expected submitted=true")
	}

	leads, err := st.ListLeads()
	if err != nil {
		t.Fatalf("list leads: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(leads))
	}
	if leads[0].Type != model.LeadTypeLevelTest {
		t.Errorf("lead type = %q, want %q", leads[0].Type, model.LeadTypeLevelTest)
	}
	if leads[0].Name != "Maria Esposito" || leads[0].Email != "maria@example.com" {
		t.Errorf("lead contact = %q / %q", leads[0].Name, leads[0].Email)
	}
	if !strings.Contains(leads[0].Message, "Sector: technology") {
		t.Errorf("lead message = %q, want the pipe summary", leads[0].Message)
	}
}

func TestLevelTestPartialResult(t *testing.T) {
	srv, _ := newTestServer(t)

	state := startLevelTest(t, srv, "it")
	id := state.SessionID
	answerAndAdvance(t, srv, id, map[string]any{"question_id": "sector", "value": "finance"})
	answerAndAdvance(t, srv, id, map[string]any{"question_id": "self_level", "value": "basic"})

	rec := doJSON(t, srv, http.MethodGet, "/api/level-test/"+id+"/result", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d: %s", rec.Code, rec.Body.String())
	}
	var result levelTestResultResponse
	decodeBody(t, rec, &result)
	if result.Complete {
		t.Error("partial result reported as complete")
	}
	if result.Result.AnsweredScored != 1 {
		t.Errorf("answered scored = %d, want 1", result.Result.AnsweredScored)
	}
	if result.Result.LevelBand != model.BandA1A2 {
		t.Errorf("band = %q, want %q", result.Result.LevelBand, model.BandA1A2)
	}
	if result.Submitted != nil {
		t.Error("submitted flag present without submit=true")
	}
}

func TestLevelTestSubmitWithoutContact(t *testing.T) {
	srv, st := newTestServer(t)

	state := startLevelTest(t, srv, "en")
	id := state.SessionID
	answerAndAdvance(t, srv, id, map[string]any{"question_id": "sector", "value": "finance"})
	answerAndAdvance(t, srv, id, map[string]any{"question_id": "self_level", "value": "fluent"})

	rec := doJSON(t, srv, http.MethodGet, "/api/level-test/"+id+"/result?submit=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d: %s", rec.Code, rec.Body.String())
	}
	var result levelTestResultResponse
	decodeBody(t, rec, &result)
	if result.Submitted == nil || *result.Submitted {
		t.Fatal("expected submitted=false without a contact answer")
	}
	if result.Notice == "" {
		t.Error("expected a notice explaining the skipped submission")
	}
	if result.Result.LevelBand == "" {
		t.Error("result should still be returned")
	}

	leads, err := st.ListLeads()
	if err != nil {
		t.Fatalf("list leads: %v", err)
	}
	if len(leads) != 0 {
		t.Errorf("got %d leads, want none persisted", len(leads))
	}
}

func TestLevelTestInvalidAnswer(t *testing.T) {
	srv, _ := newTestServer(t)
	state := startLevelTest(t, srv, "en")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"unknown option", map[string]any{"question_id": "sector", "value": "astrology"}},
		{"empty single", map[string]any{"question_id": "sector", "value": ""}},
		{"unknown question", map[string]any{"question_id": "favorite_color", "value": "blue"}},
		{"missing required field", map[string]any{"question_id": "contact", "fields": map[string]string{"name": "Maria"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/level-test/"+state.SessionID+"/answer", tc.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLevelTestAdvanceLocked(t *testing.T) {
	srv, _ := newTestServer(t)
	state := startLevelTest(t, srv, "en")

	rec := doJSON(t, srv, http.MethodPost, "/api/level-test/"+state.SessionID+"/advance", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestLevelTestRetreat(t *testing.T) {
	srv, _ := newTestServer(t)
	state := startLevelTest(t, srv, "en")
	id := state.SessionID

	state = answerAndAdvance(t, srv, id, map[string]any{"question_id": "sector", "value": "education"})
	if state.Step != 1 {
		t.Fatalf("step = %d, want 1", state.Step)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/level-test/"+id+"/retreat", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("retreat status = %d: %s", rec.Code, rec.Body.String())
	}
	var back stateResponse
	decodeBody(t, rec, &back)
	if back.Step != 0 {
		t.Errorf("step after retreat = %d, want 0", back.Step)
	}
	// The earlier answer survives, so advancing is immediately allowed again.
	if !back.CanAdvance {
		t.Error("answer lost after retreat")
	}

	// Retreating at the first step stays at the first step.
	rec = doJSON(t, srv, http.MethodPost, "/api/level-test/"+id+"/retreat", nil)
	decodeBody(t, rec, &back)
	if back.Step != 0 {
		t.Errorf("step = %d, want 0", back.Step)
	}
}

func TestLevelTestUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/level-test/nope"},
		{http.MethodPost, "/api/level-test/nope/answer"},
		{http.MethodPost, "/api/level-test/nope/advance"},
		{http.MethodPost, "/api/level-test/nope/retreat"},
		{http.MethodGet, "/api/level-test/nope/result"},
	}
	for _, p := range paths {
		rec := doJSON(t, srv, p.method, p.path, map[string]any{"question_id": "sector", "value": "technology"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", p.method, p.path, rec.Code)
		}
	}
}

func TestLevelTestItalianLabels(t *testing.T) {
	srv, _ := newTestServer(t)
	state := startLevelTest(t, srv, "it")
	if state.Question.Label == "Which sector do you work in?" || state.Question.Label == "Question.Sector" {
		t.Errorf("label = %q, want the Italian sector label", state.Question.Label)
	}
	if len(state.Question.Options) != 7 {
		t.Errorf("got %d sector options, want 7", len(state.Question.Options))
	}
}
