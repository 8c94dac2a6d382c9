// Package handler exposes the JSON API: lead capture forms, the chatbot
// endpoint, published content, and the level-test session API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/coachlingua/leadengine/internal/cache"
	"github.com/coachlingua/leadengine/internal/dialogue"
	"github.com/coachlingua/leadengine/internal/i18n"
	"github.com/coachlingua/leadengine/internal/model"
	"github.com/coachlingua/leadengine/internal/quiz"
	"github.com/coachlingua/leadengine/internal/store"
)

// Config holds handler-level settings.
type Config struct {
	DefaultLang string
	ChatEnabled bool
	// SessionIdle is how long an untouched level-test session survives.
	SessionIdle time.Duration
	// CacheTTL bounds how stale cached content responses may be.
	CacheTTL time.Duration
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	quiz     *quiz.Engine
	chat     *dialogue.Engine
	cache    cache.ContentCache
	validate *validator.Validate
	config   Config
	sessions *sessionRegistry
}

// New creates a new Handler.
func New(s *store.Store, qe *quiz.Engine, de *dialogue.Engine, cc cache.ContentCache, cfg Config) (*Handler, error) {
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = "it"
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = 30 * time.Minute
	}
	if cc == nil {
		cc = cache.Disabled{}
	}
	return &Handler{
		store:    s,
		quiz:     qe,
		chat:     de,
		cache:    cc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		config:   cfg,
		sessions: newSessionRegistry(cfg.SessionIdle),
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/contact", h.handleContact)
		r.Post("/booking", h.handleBooking)
		r.Post("/corporate-quote", h.handleCorporateQuote)
		r.Post("/chat", h.handleChat)
		r.Get("/testimonials", h.handleTestimonials)
		r.Get("/clients", h.handleClients)
		r.Route("/level-test", func(r chi.Router) {
			r.Post("/start", h.handleLevelTestStart)
			r.Get("/{sessionID}", h.handleLevelTestState)
			r.Post("/{sessionID}/answer", h.handleLevelTestAnswer)
			r.Post("/{sessionID}/advance", h.handleLevelTestAdvance)
			r.Post("/{sessionID}/retreat", h.handleLevelTestRetreat)
			r.Get("/{sessionID}/result", h.handleLevelTestResult)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeNotice sends a localized error body looked up by message key.
func writeNotice(ctx context.Context, w http.ResponseWriter, status int, msgKey string) {
	writeJSON(w, status, map[string]string{"error": i18n.T(ctx, msgKey)})
}

// normalizeLang maps any client-supplied language to a supported one.
func (h *Handler) normalizeLang(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "it":
		return "it"
	case "en":
		return "en"
	default:
		return h.config.DefaultLang
	}
}

// langCtx returns a request context localized to the payload's language,
// falling back to whatever the language middleware already picked.
func (h *Handler) langCtx(r *http.Request, lang string) context.Context {
	if strings.TrimSpace(lang) == "" {
		return r.Context()
	}
	return i18n.WithLang(r.Context(), h.normalizeLang(lang))
}

// decodeValid decodes the JSON body into v and runs struct validation.
func (h *Handler) decodeValid(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := h.validate.Struct(v); err != nil {
		return fmt.Errorf("validate body: %w", err)
	}
	return nil
}

type contactRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
	Discount string `json:"discount"`
	Type     string `json:"type" validate:"omitempty,oneof=contact video level-test discount"`
	Language string `json:"language" validate:"omitempty,oneof=it en"`
}

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := h.decodeValid(r, &req); err != nil {
		slog.Debug("contact rejected", "error", err)
		writeNotice(r.Context(), w, http.StatusBadRequest, "InvalidPayload")
		return
	}
	ctx := h.langCtx(r, req.Language)

	leadType := model.LeadType(req.Type)
	if req.Type == "" {
		leadType = model.LeadTypeContact
	}
	lead := model.Lead{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Message:  req.Message,
		Discount: req.Discount,
		Type:     leadType,
		Language: h.normalizeLang(req.Language),
	}
	id, err := h.store.InsertLead(lead)
	if err != nil {
		slog.Error("insert lead", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("lead captured", "id", id, "type", leadType)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": i18n.T(ctx, "LeadReceived"),
	})
}

type bookingRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	Sector        string `json:"sector"`
	EnglishLevel  string `json:"english_level"`
	Age           string `json:"age"`
	PreferredDay  string `json:"preferred_day"`
	PreferredTime string `json:"preferred_time"`
	Message       string `json:"message"`
	Language      string `json:"language" validate:"omitempty,oneof=it en"`
}

func (h *Handler) handleBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := h.decodeValid(r, &req); err != nil {
		slog.Debug("booking rejected", "error", err)
		writeNotice(r.Context(), w, http.StatusBadRequest, "InvalidPayload")
		return
	}
	ctx := h.langCtx(r, req.Language)

	booking := model.Booking{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Sector:        req.Sector,
		EnglishLevel:  req.EnglishLevel,
		Age:           req.Age,
		PreferredDay:  req.PreferredDay,
		PreferredTime: req.PreferredTime,
		Message:       req.Message,
		Language:      h.normalizeLang(req.Language),
	}
	id, err := h.store.InsertBooking(booking)
	if err != nil {
		slog.Error("insert booking", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("booking captured", "id", id)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": i18n.T(ctx, "BookingReceived"),
	})
}

type quoteRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	ContactName string `json:"contact_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Sector      string `json:"sector"`
	TeamSize    string `json:"team_size"`
	Objectives  string `json:"objectives"`
	Message     string `json:"message"`
	Language    string `json:"language" validate:"omitempty,oneof=it en"`
}

func (h *Handler) handleCorporateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := h.decodeValid(r, &req); err != nil {
		slog.Debug("corporate quote rejected", "error", err)
		writeNotice(r.Context(), w, http.StatusBadRequest, "InvalidPayload")
		return
	}
	ctx := h.langCtx(r, req.Language)

	quote := model.CorporateQuote{
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Sector:      req.Sector,
		TeamSize:    req.TeamSize,
		Objectives:  req.Objectives,
		Message:     req.Message,
		Language:    h.normalizeLang(req.Language),
	}
	id, err := h.store.InsertCorporateQuote(quote)
	if err != nil {
		slog.Error("insert corporate quote", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("corporate quote captured", "id", id, "company", req.CompanyName)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": i18n.T(ctx, "QuoteReceived"),
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Language  string `json:"language" validate:"omitempty,oneof=it en"`
}

type chatResponse struct {
	SessionID  string               `json:"session_id"`
	Message    string               `json:"message"`
	IsComplete bool                 `json:"is_complete"`
	Collected  *model.CollectedData `json:"collected_data,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if !h.config.ChatEnabled {
		writeNotice(r.Context(), w, http.StatusServiceUnavailable, "ChatUnavailable")
		return
	}
	var req chatRequest
	if err := h.decodeValid(r, &req); err != nil {
		slog.Debug("chat rejected", "error", err)
		writeNotice(r.Context(), w, http.StatusBadRequest, "InvalidPayload")
		return
	}
	lang := h.normalizeLang(req.Language)
	ctx := i18n.WithLang(r.Context(), lang)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		if err := h.store.CreateChatSession(sessionID, lang); err != nil {
			slog.Error("create chat session", "session", sessionID, "error", err)
		}
	}

	// An empty message opens (or reopens) the conversation.
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusOK, chatResponse{
			SessionID: sessionID,
			Message:   h.chat.Opening(ctx),
		})
		return
	}

	turn, err := h.chat.Submit(ctx, sessionID, lang, req.Message)
	switch {
	case errors.Is(err, dialogue.ErrTurnInFlight):
		writeNotice(ctx, w, http.StatusConflict, "ChatBusy")
		return
	case err != nil:
		slog.Error("chat backend", "session", sessionID, "error", err)
		writeNotice(ctx, w, http.StatusBadGateway, "ChatUnavailable")
		return
	}

	// Persisting before responding keeps the stored transcript in turn order;
	// a store failure is logged and never fails the turn.
	h.persistChatTurn(sessionID, lang, req.Message, turn)

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:  sessionID,
		Message:    turn.Reply,
		IsComplete: turn.IsComplete,
		Collected:  turn.Collected,
	})
}

func (h *Handler) persistChatTurn(sessionID, lang, message string, turn dialogue.Turn) {
	if err := h.store.CreateChatSession(sessionID, lang); err != nil {
		slog.Error("persist chat session", "session", sessionID, "error", err)
	}
	now := time.Now()
	if _, err := h.store.AppendChatMessage(model.ChatMessage{
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   message,
		CreatedAt: now,
	}); err != nil {
		slog.Error("persist chat message", "session", sessionID, "error", err)
	}
	if _, err := h.store.AppendChatMessage(model.ChatMessage{
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   turn.Reply,
		CreatedAt: now,
	}); err != nil {
		slog.Error("persist chat message", "session", sessionID, "error", err)
	}
	if turn.IsComplete {
		if err := h.store.SetChatOutcome(sessionID, true, turn.Collected); err != nil {
			slog.Error("persist chat outcome", "session", sessionID, "error", err)
		}
	}
}

func (h *Handler) handleTestimonials(w http.ResponseWriter, r *http.Request) {
	lang := h.normalizeLang(r.URL.Query().Get("language"))
	key := "testimonials:" + lang
	if body, err := h.cache.Get(r.Context(), key); err == nil {
		writeCached(w, body)
		return
	}

	list, err := h.store.ListTestimonials(lang)
	if err != nil {
		slog.Error("list testimonials", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeAndCache(w, r, key, map[string]any{"testimonials": list})
}

func (h *Handler) handleClients(w http.ResponseWriter, r *http.Request) {
	featured := r.URL.Query().Get("featured") == "true"
	key := fmt.Sprintf("clients:featured=%t", featured)
	if body, err := h.cache.Get(r.Context(), key); err == nil {
		writeCached(w, body)
		return
	}

	list, err := h.store.ListClients(featured)
	if err != nil {
		slog.Error("list clients", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeAndCache(w, r, key, map[string]any{"clients": list})
}

func writeCached(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("write cached response", "error", err)
	}
}

func (h *Handler) writeAndCache(w http.ResponseWriter, r *http.Request, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.cache.Set(r.Context(), key, body); err != nil {
		slog.Debug("cache set", "key", key, "error", err)
	}
	writeCached(w, body)
}
