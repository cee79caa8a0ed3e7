package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	aiservice "github.com/harshal-star/fragrance-chatbot/internal/service/ai"
	chatservice "github.com/harshal-star/fragrance-chatbot/internal/service/chat"
	"github.com/harshal-star/fragrance-chatbot/pkg/utils"
)

// Handler serves the chat endpoint and session inspection routes.
type Handler struct {
	chatSvc *chatservice.Service
	aiSvc   *aiservice.Service
}

// New creates the chat handler.
func New(chatSvc *chatservice.Service, aiSvc *aiservice.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		aiSvc:   aiSvc,
	}
}

// RegisterRoutes registers the session inspection routes under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
}

// ChatRequest is the wire shape of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the wire shape of a stylist reply.
type ChatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// HandleChat runs one full conversation turn: ensure the session exists,
// record the user message, forward the conversation upstream and record the
// reply.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var payload ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()

	session, created, err := h.chatSvc.EnsureSession(ctx, payload.SessionID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if created {
		log.Info().Str("session", session.ID).Msg("created new session")
	}

	session, err = h.chatSvc.RecordUserMessage(ctx, session.ID, payload.Message)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	transcript, err := h.chatSvc.Transcript(ctx, session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := h.aiSvc.Reply(ctx, session, transcript, payload.Message)
	if err != nil {
		log.Error().Err(err).Str("session", session.ID).Msg("upstream completion failed")
		utils.RespondError(w, http.StatusBadGateway, "failed to generate reply")
		return
	}

	if err := h.chatSvc.RecordAssistantMessage(ctx, session.ID, reply); err != nil {
		log.Error().Err(err).Str("session", session.ID).Msg("failed to record assistant message")
	}

	utils.RespondJSON(w, http.StatusOK, ChatResponse{
		Message:   reply,
		SessionID: session.ID,
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	// An empty or missing body is fine; the store generates an identifier.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	session, created, err := h.chatSvc.EnsureSession(r.Context(), payload.SessionID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.RespondJSON(w, status, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	transcript, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, transcript)
}
