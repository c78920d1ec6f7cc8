// Package handlers holds the HTTP handlers for the GearHive API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gearhive/gearhive/cmd/gearhive-api/middleware"
	"github.com/gearhive/gearhive/internal/assistant"
	"github.com/gearhive/gearhive/internal/observability"
	"github.com/gearhive/gearhive/internal/storage"
	"github.com/gearhive/gearhive/internal/websearch"
)

// ChatHandler serves the conversational parts-assistant endpoint.
type ChatHandler struct {
	orchestrator *assistant.Orchestrator
	logger       *observability.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(orchestrator *assistant.Orchestrator, logger *observability.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		logger:       logger.WithComponent("chat_handler"),
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response            string                   `json:"response"`
	Parts               []storage.Part           `json:"parts"`
	KnowledgeBase       []storage.KnowledgeEntry `json:"knowledgeBase"`
	WebResults          []websearch.Result       `json:"webResults"`
	Installation        *string                  `json:"installation"`
	Tips                *string                  `json:"tips"`
	ConversationContext assistant.Preferences    `json:"conversationContext"`
	Sources             assistant.Sources        `json:"sources"`
	AIPowered           bool                     `json:"aiPowered"`
	WebSearchEnabled    bool                     `json:"webSearchEnabled"`
}

// HandleChat handles POST /api/v1/chat.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.orchestrator.Chat(r.Context(), userID, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Chat turn failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toChatResponse(reply))
}

func toChatResponse(reply *assistant.Reply) chatResponse {
	prefs := reply.Context
	prefs.Experience = prefs.ExperienceLevel()

	resp := chatResponse{
		Response:            reply.Message,
		Parts:               reply.Parts,
		KnowledgeBase:       reply.Knowledge,
		WebResults:          reply.WebResults,
		ConversationContext: prefs,
		Sources:             reply.Sources,
		AIPowered:           reply.AIPowered,
		WebSearchEnabled:    reply.WebSearchEnabled,
	}

	// The pools serialize as empty arrays, not null.
	if resp.Parts == nil {
		resp.Parts = []storage.Part{}
	}
	if resp.KnowledgeBase == nil {
		resp.KnowledgeBase = []storage.KnowledgeEntry{}
	}
	if resp.WebResults == nil {
		resp.WebResults = []websearch.Result{}
	}

	if reply.Installation != "" {
		resp.Installation = &reply.Installation
	}
	if reply.Tips != "" {
		resp.Tips = &reply.Tips
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
