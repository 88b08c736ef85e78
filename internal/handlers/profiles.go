package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/fairytale-engine/internal/engine"
	"github.com/jwebster45206/fairytale-engine/internal/storage"
	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

const profilesPrefix = "/v1/profiles/"

// ProfileView is the read-only JSON shape of a user profile.
type ProfileView struct {
	ID           string               `json:"id"`
	State        profile.State        `json:"state"`
	Params       profile.StoryParams  `json:"params"`
	Settings     profile.TierSettings `json:"settings"`
	UsageCount   int                  `json:"usage_count"`
	StageCursor  int                  `json:"stage_cursor"`
	TotalStages  int                  `json:"total_stages"`
	CurrentStory []string             `json:"current_story"`
	ArchiveCount int                  `json:"archive_count"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func newProfileView(p *profile.UserProfile) ProfileView {
	return ProfileView{
		ID:           p.ID,
		State:        p.State(),
		Params:       p.Params,
		Settings:     p.Settings,
		UsageCount:   p.UsageCount,
		StageCursor:  p.StageCursor,
		TotalStages:  p.TotalStages(),
		CurrentStory: p.CurrentStory,
		ArchiveCount: len(p.Archive),
		UpdatedAt:    p.UpdatedAt,
	}
}

// ProfileHandler serves GET /v1/profiles/{user_id}. It only reads: unknown
// users get a 404 and no profile is created.
type ProfileHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewProfileHandler(e *engine.Engine, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		engine: e,
		logger: logger,
	}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, profilesPrefix), "/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, h.logger, http.StatusBadRequest, "A single user id is required.")
		return
	}

	p, err := h.engine.Lookup(r.Context(), userID)
	if errors.Is(err, storage.ErrProfileNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Profile not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error loading profile", "user_id", userID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load profile.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newProfileView(p))
}
