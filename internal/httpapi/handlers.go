package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ceritaku/internal/catalog"
	"ceritaku/internal/model"
	"ceritaku/internal/progress"
	"ceritaku/internal/service"
)

const maxBodyBytes = 1 << 20

const (
	msgBadBody  = "Format permintaan tidak valid"
	msgInternal = "Terjadi kesalahan pada server. Coba lagi ya!"
)

type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("http")}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"interests":       catalog.Interests(),
		"readingLevels":   model.ReadingLevels,
		"storyReadPoints": progress.StoryReadPoints,
		"questionPoints":  progress.QuestionPoints,
	})
}

func (h *Handler) getProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Profile())
}

func (h *Handler) putProfile(w http.ResponseWriter, r *http.Request) {
	var req model.Profile
	if !h.decode(w, r, "putProfile", &req) {
		return
	}
	profile, err := h.svc.UpdateProfile(r.Context(), req)
	if err != nil {
		h.fail(w, "putProfile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) getHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Home())
}

func (h *Handler) getProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Progress())
}

func (h *Handler) listStories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stories": h.svc.Stories()})
}

func (h *Handler) generateStory(w http.ResponseWriter, r *http.Request) {
	var req service.GenerateStoryRequest
	if !h.decode(w, r, "generateStory", &req) {
		return
	}
	story, err := h.svc.GenerateStory(r.Context(), req)
	if err != nil {
		h.fail(w, "generateStory", err, zap.String("interest", req.Interest), zap.String("custom_topic", req.CustomTopic))
		return
	}
	writeJSON(w, http.StatusCreated, story)
}

func (h *Handler) getStory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	story, err := h.svc.Story(id)
	if err != nil {
		h.fail(w, "getStory", err, zap.String("story_id", id))
		return
	}
	writeJSON(w, http.StatusOK, story)
}

func (h *Handler) readStory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.svc.ReadStory(r.Context(), id)
	if err != nil {
		h.fail(w, "readStory", err, zap.String("story_id", id))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"qAndAs": h.svc.QAndAs()})
}

func (h *Handler) askQuestion(w http.ResponseWriter, r *http.Request) {
	var req service.AskRequest
	if !h.decode(w, r, "askQuestion", &req) {
		return
	}
	entry, err := h.svc.AskQuestion(r.Context(), req)
	if err != nil {
		h.fail(w, "askQuestion", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) getRewards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Rewards())
}

// unlockReward answers 200 for every outcome; the status field says what happened.
func (h *Handler) unlockReward(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.svc.UnlockReward(r.Context(), id)
	if err != nil {
		h.fail(w, "unlockReward", err, zap.String("reward_id", id))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) exportState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Export())
}

func (h *Handler) restoreState(w http.ResponseWriter, r *http.Request) {
	var req model.State
	if !h.decode(w, r, "restoreState", &req) {
		return
	}
	state, err := h.svc.Restore(r.Context(), req)
	if err != nil {
		h.fail(w, "restoreState", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Info(op+" decode error", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgBadBody)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, service.ErrTopicRequired),
		errors.Is(err, service.ErrQuestionRequired),
		errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, service.ErrInvalidState):
		h.logger.Info(op+" bad request", fields...)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStoryNotFound):
		h.logger.Info(op+" not found", fields...)
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrContentGenerate):
		h.logger.Warn(op+" unavailable", fields...)
		writeError(w, http.StatusServiceUnavailable, service.ErrContentGenerate.Error())
	default:
		h.logger.Error(op+" internal error", fields...)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
