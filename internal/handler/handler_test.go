package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coachlingua/leadengine/internal/cache"
	"github.com/coachlingua/leadengine/internal/dialogue"
	"github.com/coachlingua/leadengine/internal/i18n"
	"github.com/coachlingua/leadengine/internal/model"
	"github.com/coachlingua/leadengine/internal/quiz"
	"github.com/coachlingua/leadengine/internal/store"
)

func newTestServer(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	if err := i18n.Init("it"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	de := dialogue.NewEngine(dialogue.NewScriptBackend())
	h, err := New(st, quiz.Default(), de, cache.Disabled{}, Config{
		DefaultLang: "it",
		ChatEnabled: true,
		SessionIdle: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("create handler: %v", err)
	}

	r := chi.NewRouter()
	r.Use(i18n.Middleware("it"))
	h.Routes(r)
	return r, st
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestContactLeadPersisted(t *testing.T) {
	srv, st := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/contact", map[string]any{
		"name":     "Laura Bianchi",
		"email":    "laura@example.com",
		"message":  "I'd like more information.",
		"language": "en",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	decodeBody(t, rec, &resp)
	if resp["message"] != "Thank you! We'll be in touch shortly." {
		t.Errorf("message = %q, want the English confirmation", resp["message"])
	}

	leads, err := st.ListLeads()
	if err != nil {
		t.Fatalf("list leads: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(leads))
	}
	if leads[0].Type != model.LeadTypeContact {
		t.Errorf("lead type = %q, want %q", leads[0].Type, model.LeadTypeContact)
	}
	if leads[0].Language != "en" {
		t.Errorf("lead language = %q, want en", leads[0].Language)
	}
}

func TestContactTypeDiscriminates(t *testing.T) {
	srv, st := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/contact", map[string]any{
		"name":     "Marco Rossi",
		"email":    "marco@example.com",
		"discount": "SUMMER20",
		"type":     "discount",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	leads, err := st.ListLeads()
	if err != nil {
		t.Fatalf("list leads: %v", err)
	}
	if leads[0].Type != model.LeadTypeDiscount {
		t.Errorf("lead type = %q, want %q", leads[0].Type, model.LeadTypeDiscount)
	}
	if leads[0].Discount != "SUMMER20" {
		t.Errorf("discount = %q, want SUMMER20", leads[0].Discount)
	}
}

func TestContactAcceptsLevelTestLead(t *testing.T) {
	srv, st := newTestServer(t)

	// A frontend running the quiz client-side submits the result through the
	// generic contact endpoint, with the pipe summary as the message.
	rec := doJSON(t, srv, http.MethodPost, "/api/contact", map[string]any{
		"name":     "Maria Esposito",
		"email":    "maria@example.com",
		"message":  "Level Test Results: B1 | Sector: finance | Goals: career | Urgency: asap",
		"type":     "level-test",
		"language": "it",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
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
	if !strings.HasPrefix(leads[0].Message, "Level Test Results: B1") {
		t.Errorf("lead message = %q, want the pipe summary", leads[0].Message)
	}
}

func TestContactValidation(t *testing.T) {
	srv, st := newTestServer(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing email", map[string]any{"name": "Laura"}},
		{"bad email", map[string]any{"name": "Laura", "email": "not-an-email"}},
		{"bad type", map[string]any{"name": "Laura", "email": "l@example.com", "type": "newsletter"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/contact", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp map[string]string
			decodeBody(t, rec, &resp)
			if resp["error"] == "" {
				t.Error("expected a localized error message")
			}
		})
	}

	leads, err := st.ListLeads()
	if err != nil {
		t.Fatalf("list leads: %v", err)
	}
	if len(leads) != 0 {
		t.Errorf("got %d leads, want none persisted", len(leads))
	}
}

func TestBookingPersisted(t *testing.T) {
	srv, st := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/booking", map[string]any{
		"name":           "Giulia Verdi",
		"email":          "giulia@example.com",
		"phone":          "+39 333 1234567",
		"sector":         "finance",
		"english_level":  "B1",
		"age":            "25-34",
		"preferred_day":  "wednesday",
		"preferred_time": "evening",
		"language":       "it",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	bookings, err := st.ListBookings()
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("got %d bookings, want 1", len(bookings))
	}
	if bookings[0].PreferredDay != "wednesday" || bookings[0].Sector != "finance" {
		t.Errorf("booking fields not persisted: %+v", bookings[0])
	}
}

func TestCorporateQuotePersisted(t *testing.T) {
	srv, st := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/corporate-quote", map[string]any{
		"company_name": "Acme SpA",
		"contact_name": "Paolo Neri",
		"email":        "paolo@acme.example",
		"team_size":    "11-25",
		"objectives":   "Negotiation skills for the sales team",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	quotes, err := st.ListCorporateQuotes()
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	if quotes[0].CompanyName != "Acme SpA" {
		t.Errorf("company = %q, want Acme SpA", quotes[0].CompanyName)
	}
}

func TestChatOpeningAndFirstTurn(t *testing.T) {
	srv, _ := newTestServer(t)

	// An empty message opens the conversation with the scripted greeting.
	rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]any{
		"message":  "",
		"language": "en",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var opening chatResponse
	decodeBody(t, rec, &opening)
	if opening.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if !strings.Contains(opening.Message, "What's your name?") {
		t.Errorf("opening = %q, want the English greeting", opening.Message)
	}

	// The first real message is the name; the script asks for the email next.
	rec = doJSON(t, srv, http.MethodPost, "/api/chat", map[string]any{
		"session_id": opening.SessionID,
		"message":    "Maria",
		"language":   "en",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var turn chatResponse
	decodeBody(t, rec, &turn)
	if turn.SessionID != opening.SessionID {
		t.Errorf("session id changed: %q -> %q", opening.SessionID, turn.SessionID)
	}
	if !strings.Contains(turn.Message, "Maria") {
		t.Errorf("reply = %q, want it to address Maria", turn.Message)
	}
	if turn.IsComplete {
		t.Error("conversation complete after one turn")
	}
}

func TestChatCompletesWithCollectedData(t *testing.T) {
	srv, _ := newTestServer(t)

	sessionID := ""
	answers := []string{"Maria", "maria@example.com", "B1", "Job interviews", "As soon as possible"}
	var last chatResponse
	for _, msg := range answers {
		rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]any{
			"session_id": sessionID,
			"message":    msg,
			"language":   "en",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d for %q: %s", rec.Code, msg, rec.Body.String())
		}
		decodeBody(t, rec, &last)
		sessionID = last.SessionID
	}

	if !last.IsComplete {
		t.Fatal("conversation not complete after all slots filled")
	}
	if last.Collected == nil {
		t.Fatal("expected collected data on the final turn")
	}
	if last.Collected.Name != "Maria" || last.Collected.Email != "maria@example.com" {
		t.Errorf("collected = %+v", last.Collected)
	}
}

func TestChatTranscriptPersistedInTurnOrder(t *testing.T) {
	srv, st := newTestServer(t)

	sessionID := ""
	messages := []string{"Maria", "maria@example.com"}
	for _, msg := range messages {
		rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]any{
			"session_id": sessionID,
			"message":    msg,
			"language":   "en",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d for %q: %s", rec.Code, msg, rec.Body.String())
		}
		var resp chatResponse
		decodeBody(t, rec, &resp)
		sessionID = resp.SessionID
	}

	// The turn is persisted before the response is written, so by now the
	// stored transcript holds both turns in order.
	stored, err := st.GetChatMessages(sessionID)
	if err != nil {
		t.Fatalf("get chat messages: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("got %d stored messages, want 4", len(stored))
	}
	wantRoles := []model.ChatRole{model.RoleUser, model.RoleAssistant, model.RoleUser, model.RoleAssistant}
	for i, m := range stored {
		if m.Role != wantRoles[i] {
			t.Errorf("message %d role = %q, want %q", i, m.Role, wantRoles[i])
		}
	}
	if stored[0].Content != "Maria" || stored[2].Content != "maria@example.com" {
		t.Errorf("user turns out of order: %q, %q", stored[0].Content, stored[2].Content)
	}
}

func TestChatDisabled(t *testing.T) {
	if err := i18n.Init("it"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	h, err := New(st, quiz.Default(), dialogue.NewEngine(dialogue.NewScriptBackend()), nil, Config{
		DefaultLang: "it",
		ChatEnabled: false,
	})
	if err != nil {
		t.Fatalf("create handler: %v", err)
	}
	r := chi.NewRouter()
	h.Routes(r)

	rec := doJSON(t, r, http.MethodPost, "/api/chat", map[string]any{"message": "ciao"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestTestimonialsByLanguage(t *testing.T) {
	srv, st := newTestServer(t)
	if err := st.SeedContent(); err != nil {
		t.Fatalf("seed content: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/testimonials?language=en", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Testimonials []model.Testimonial `json:"testimonials"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Testimonials) == 0 {
		t.Fatal("expected seeded English testimonials")
	}
	for _, tm := range resp.Testimonials {
		if tm.Language != "en" {
			t.Errorf("testimonial %d language = %q, want en", tm.ID, tm.Language)
		}
	}
}

func TestClientsFeaturedFilter(t *testing.T) {
	srv, st := newTestServer(t)
	if err := st.SeedContent(); err != nil {
		t.Fatalf("seed content: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/clients?featured=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Clients []model.Client `json:"clients"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Clients) == 0 {
		t.Fatal("expected featured clients")
	}
	for _, c := range resp.Clients {
		if !c.Featured {
			t.Errorf("client %q not featured", c.Name)
		}
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/clients", nil)
	var all struct {
		Clients []model.Client `json:"clients"`
	}
	decodeBody(t, rec, &all)
	if len(all.Clients) <= len(resp.Clients) {
		t.Errorf("unfiltered list (%d) should exceed featured list (%d)", len(all.Clients), len(resp.Clients))
	}
}
