package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/auth"
	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/services"
)

// ActivityListResponse for activity feed endpoints.
type ActivityListResponse struct {
	Activities []*models.ActivityLog `json:"activities"`
	Total      int                   `json:"total"`
}

// ActivityHandler serves the activity feed.
type ActivityHandler struct {
	activityService   services.ActivityService
	assessmentService services.AssessmentService
	logger            *zap.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(
	activityService services.ActivityService,
	assessmentService services.AssessmentService,
	logger *zap.Logger,
) *ActivityHandler {
	return &ActivityHandler{
		activityService:   activityService,
		assessmentService: assessmentService,
		logger:            logger,
	}
}

// RegisterRoutes registers the activity handler's routes on the given mux.
func (h *ActivityHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/activity", authMiddleware.RequireAuth(h.MyFeed))
	mux.HandleFunc("GET /api/assessments/{aid}/activity", authMiddleware.RequireAuth(h.AssessmentFeed))
}

// MyFeed handles GET /api/activity
// Returns the caller's own activity feed, newest first.
func (h *ActivityHandler) MyFeed(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetUser(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	activities, err := h.activityService.GetForUser(r.Context(), actor.ID, limit)
	if err != nil {
		h.logger.Error("Failed to load activity feed",
			zap.String("user_id", actor.ID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "list_activity_failed")
		return
	}

	response := ActivityListResponse{Activities: activities, Total: len(activities)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AssessmentFeed handles GET /api/assessments/{aid}/activity
// Visibility follows assessment read access: admins and both owners.
func (h *ActivityHandler) AssessmentFeed(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetUser(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	// Read access to the assessment gates access to its history.
	if _, err := h.assessmentService.Get(r.Context(), actor, publicID); err != nil {
		writeServiceError(w, h.logger, err, "list_activity_failed")
		return
	}

	activities, err := h.activityService.GetForAssessment(r.Context(), publicID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_activity_failed")
		return
	}

	response := ActivityListResponse{Activities: activities, Total: len(activities)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
