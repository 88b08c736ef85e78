package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/fairytale-engine/internal/bot"
	"github.com/jwebster45206/fairytale-engine/internal/middleware"
)

const maxCommandBody = 64 << 10

// CommandHandler accepts chat commands and returns the bot's reply
type CommandHandler struct {
	router *bot.Router
	logger *slog.Logger
}

func NewCommandHandler(router *bot.Router, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		router: router,
		logger: logger,
	}
}

func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for commands endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req bot.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'user_id' and 'text' fields.")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_id cannot be empty.")
		return
	}

	h.logger.Info("Command received",
		"user_id", req.UserID,
		"chat_id", req.ChatID,
		"request_id", middleware.RequestID(r.Context()))

	reply := h.router.Handle(r.Context(), req)
	if reply.Messages == nil {
		reply.Messages = []string{}
	}
	writeJSON(w, h.logger, http.StatusOK, reply)
}
