package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coachlingua/leadengine/internal/i18n"
	"github.com/coachlingua/leadengine/internal/model"
	"github.com/coachlingua/leadengine/internal/quiz"
)

// sessionRegistry keeps live level-test sessions in memory. The questionnaire
// engine itself is stateless; the registry owns the session values between
// requests and drops them after idle expiry.
type sessionRegistry struct {
	mu      sync.Mutex
	idle    time.Duration
	entries map[string]*levelTestEntry
}

type levelTestEntry struct {
	sess      model.Session
	lang      string
	updatedAt time.Time
}

func newSessionRegistry(idle time.Duration) *sessionRegistry {
	return &sessionRegistry{idle: idle, entries: map[string]*levelTestEntry{}}
}

func (r *sessionRegistry) put(id string, sess model.Session, lang string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &levelTestEntry{sess: sess, lang: lang, updatedAt: time.Now()}
}

// get returns a snapshot of the entry, or false if it is unknown or expired.
func (r *sessionRegistry) get(id string) (model.Session, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return model.Session{}, "", false
	}
	if time.Since(e.updatedAt) > r.idle {
		delete(r.entries, id)
		return model.Session{}, "", false
	}
	return e.sess, e.lang, true
}

func (r *sessionRegistry) update(id string, sess model.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.sess = sess
		e.updatedAt = time.Now()
	}
}

func (r *sessionRegistry) prune() {
	cutoff := time.Now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.updatedAt.Before(cutoff) {
			delete(r.entries, id)
		}
	}
}

type optionView struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Weight int    `json:"weight,omitempty"`
}

type fieldView struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

type questionView struct {
	ID      string       `json:"id"`
	Kind    string       `json:"kind"`
	Label   string       `json:"label"`
	Options []optionView `json:"options,omitempty"`
	Fields  []fieldView  `json:"fields,omitempty"`
}

type levelTestState struct {
	SessionID       string       `json:"session_id"`
	Step            int          `json:"step"`
	TotalSteps      int          `json:"total_steps"`
	ProgressPercent int          `json:"progress_percent"`
	IsLastStep      bool         `json:"is_last_step"`
	CanAdvance      bool         `json:"can_advance"`
	Question        questionView `json:"question"`
}

func (h *Handler) questionViewFor(r *http.Request, lang string, q model.QuestionDefinition) questionView {
	ctx := i18n.WithLang(r.Context(), lang)
	view := questionView{
		ID:    q.ID,
		Kind:  string(q.Kind),
		Label: i18n.T(ctx, q.LabelKey),
	}
	for _, o := range q.Options {
		view.Options = append(view.Options, optionView{
			Value:  o.Value,
			Label:  i18n.T(ctx, o.LabelKey),
			Weight: o.Weight,
		})
	}
	for _, f := range q.Fields {
		view.Fields = append(view.Fields, fieldView{
			Name:     f.Name,
			Label:    i18n.T(ctx, f.LabelKey),
			Required: f.Required,
		})
	}
	return view
}

func (h *Handler) levelTestStateFor(r *http.Request, lang string, sess model.Session) levelTestState {
	q, err := h.quiz.CurrentQuestion(sess)
	if err != nil {
		// Step is always kept in range by the engine; reaching here is a
		// registry bug, not a client error.
		slog.Error("level-test step out of range", "session", sess.ID, "step", sess.Step)
	}
	return levelTestState{
		SessionID:       sess.ID,
		Step:            sess.Step,
		TotalSteps:      h.quiz.Len(),
		ProgressPercent: h.quiz.ProgressPercent(sess),
		IsLastStep:      h.quiz.IsLastStep(sess),
		CanAdvance:      h.quiz.CanAdvance(sess),
		Question:        h.questionViewFor(r, lang, q),
	}
}

type levelTestStartRequest struct {
	Language string `json:"language" validate:"omitempty,oneof=it en"`
}

func (h *Handler) handleLevelTestStart(w http.ResponseWriter, r *http.Request) {
	var req levelTestStartRequest
	// The body is optional; an empty or absent one means the default language.
	if r.Body != nil && r.ContentLength != 0 {
		if err := h.decodeValid(r, &req); err != nil {
			slog.Debug("level-test start rejected", "error", err)
			writeNotice(r.Context(), w, http.StatusBadRequest, "InvalidPayload")
			return
		}
	}
	lang := h.normalizeLang(req.Language)

	h.sessions.prune()
	id := uuid.NewString()
	sess := h.quiz.NewSession(id)
	h.sessions.put(id, sess, lang)
	slog.Info("level-test started", "session", id, "language", lang)
	writeJSON(w, http.StatusCreated, h.levelTestStateFor(r, lang, sess))
}

func (h *Handler) handleLevelTestState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, lang, ok := h.sessions.get(id)
	if !ok {
		writeNotice(r.Context(), w, http.StatusNotFound, "SessionNotFound")
		return
	}
	writeJSON(w, http.StatusOK, h.levelTestStateFor(r, lang, sess))
}

type levelTestAnswerRequest struct {
	QuestionID string            `json:"question_id" validate:"required"`
	Value      string            `json:"value"`
	Values     []string          `json:"values"`
	Fields     map[string]string `json:"fields"`
}

func (h *Handler) handleLevelTestAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, lang, ok := h.sessions.get(id)
	if !ok {
		writeNotice(r.Context(), w, http.StatusNotFound, "SessionNotFound")
		return
	}

	var req levelTestAnswerRequest
	if err := h.decodeValid(r, &req); err != nil {
		slog.Debug("level-test answer rejected", "error", err)
		writeNotice(r.Context(), w, http.StatusBadRequest, "InvalidPayload")
		return
	}

	q, known := h.quiz.Question(req.QuestionID)
	if !known {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "unknown question: " + req.QuestionID,
		})
		return
	}
	var answer model.Answer
	switch q.Kind {
	case model.KindSingle:
		answer = model.SingleAnswer{Value: req.Value}
	case model.KindMulti:
		answer = model.MultiAnswer{Values: req.Values}
	case model.KindForm:
		answer = model.FormAnswer{Fields: req.Fields}
	}

	updated, err := h.quiz.RecordAnswer(sess, req.QuestionID, answer)
	if err != nil {
		var invalid *quiz.InvalidAnswerError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": invalid.Error()})
			return
		}
		slog.Error("record answer", "session", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.sessions.update(id, updated)
	writeJSON(w, http.StatusOK, h.levelTestStateFor(r, lang, updated))
}

func (h *Handler) handleLevelTestAdvance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, lang, ok := h.sessions.get(id)
	if !ok {
		writeNotice(r.Context(), w, http.StatusNotFound, "SessionNotFound")
		return
	}

	updated, err := h.quiz.Advance(sess)
	if err != nil {
		var locked *quiz.StepLockedError
		if errors.As(err, &locked) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": locked.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.sessions.update(id, updated)
	writeJSON(w, http.StatusOK, h.levelTestStateFor(r, lang, updated))
}

func (h *Handler) handleLevelTestRetreat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, lang, ok := h.sessions.get(id)
	if !ok {
		writeNotice(r.Context(), w, http.StatusNotFound, "SessionNotFound")
		return
	}

	updated := h.quiz.Retreat(sess)
	h.sessions.update(id, updated)
	writeJSON(w, http.StatusOK, h.levelTestStateFor(r, lang, updated))
}

type levelTestResultResponse struct {
	SessionID string            `json:"session_id"`
	Result    model.ScoreResult `json:"result"`
	Summary   string            `json:"summary"`
	Complete  bool              `json:"complete"`
	Submitted *bool             `json:"submitted,omitempty"`
	Notice    string            `json:"notice,omitempty"`
}

func (h *Handler) handleLevelTestResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, lang, ok := h.sessions.get(id)
	if !ok {
		writeNotice(r.Context(), w, http.StatusNotFound, "SessionNotFound")
		return
	}
	ctx := i18n.WithLang(r.Context(), lang)

	result := h.quiz.ComputeResult(sess)
	resp := levelTestResultResponse{
		SessionID: id,
		Result:    result,
		Summary:   h.quiz.Summary(sess, result),
		Complete:  result.Complete,
	}

	if r.URL.Query().Get("submit") == "true" {
		submitted := false
		if contact := h.quiz.ContactFields(sess); contact == nil {
			// No contact step answered; there is no lead to persist.
			resp.Notice = i18n.T(ctx, "InvalidPayload")
		} else {
			lead := model.Lead{
				Name:     contact["name"],
				Email:    contact["email"],
				Phone:    contact["phone"],
				Message:  resp.Summary,
				Type:     model.LeadTypeLevelTest,
				Language: lang,
			}
			if _, err := h.store.InsertLead(lead); err != nil {
				// The respondent still gets their result.
				slog.Error("submit level-test lead", "session", id, "error", err)
				resp.Notice = i18n.T(ctx, "SubmitFailed")
			} else {
				submitted = true
			}
		}
		resp.Submitted = &submitted
	}

	writeJSON(w, http.StatusOK, resp)
}
