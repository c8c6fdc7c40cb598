package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/auth"
	"github.com/greda-gbc/assessment-engine/pkg/jsonutil"
	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// CreateAssessmentRequest for POST /api/assessments
type CreateAssessmentRequest struct {
	ClientID     string          `json:"client_id"`
	BuildingName string          `json:"building_name"`
	BuildingInfo models.JSONBMap `json:"building_info,omitempty"`
}

// UpsertSectionRequest for PUT /api/assessments/{aid}/sections/{sectionType}.
// Variables tolerate numeric strings since mobile clients serialize form
// fields inconsistently.
type UpsertSectionRequest struct {
	Variables    map[string]jsonutil.FlexibleInt `json:"variables,omitempty"`
	LocationData models.LocationMap              `json:"location_data,omitempty"`
	IsCompleted  bool                            `json:"is_completed"`
}

// AddMediaRequest for POST /api/assessments/{aid}/media
type AddMediaRequest struct {
	SectionType string `json:"section_type"`
	FieldName   string `json:"field_name"`
	MediaType   string `json:"media_type"`
	StoragePath string `json:"storage_path"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

// ReasonRequest carries an optional free-text reason for lock, edit-request,
// and denial endpoints.
type ReasonRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AssessmentListResponse for GET /api/assessments
type AssessmentListResponse struct {
	Assessments []*models.Assessment `json:"assessments"`
	Total       int                  `json:"total"`
}

// ============================================================================
// Handler
// ============================================================================

// AssessmentsHandler handles assessment lifecycle HTTP requests.
type AssessmentsHandler struct {
	assessmentService services.AssessmentService
	logger            *zap.Logger
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(assessmentService services.AssessmentService, logger *zap.Logger) *AssessmentsHandler {
	return &AssessmentsHandler{
		assessmentService: assessmentService,
		logger:            logger,
	}
}

// RegisterRoutes registers the assessment handler's routes on the given mux.
func (h *AssessmentsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/assessments"

	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET "+base+"/{aid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT "+base+"/{aid}/sections/{sectionType}", authMiddleware.RequireAuth(h.UpsertSection))
	mux.HandleFunc("POST "+base+"/{aid}/media", authMiddleware.RequireAuth(h.AddMedia))
	mux.HandleFunc("POST "+base+"/{aid}/complete", authMiddleware.RequireAuth(h.Complete))
	mux.HandleFunc("POST "+base+"/{aid}/lock", authMiddleware.RequireAuth(h.Lock))
	mux.HandleFunc("POST "+base+"/{aid}/unlock", authMiddleware.RequireAuth(h.Unlock))
	mux.HandleFunc("POST "+base+"/{aid}/edit-requests", authMiddleware.RequireAuth(h.RequestEdit))
	mux.HandleFunc("POST "+base+"/{aid}/edit-requests/approve", authMiddleware.RequireAuth(h.ApproveEdit))
	mux.HandleFunc("POST "+base+"/{aid}/edit-requests/deny", authMiddleware.RequireAuth(h.DenyEdit))
	mux.HandleFunc("DELETE "+base+"/{aid}", authMiddleware.RequireAuth(h.Archive))
}

// Create handles POST /api/assessments
func (h *AssessmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	clientID, err := parseClientID(req.ClientID)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_client_id", "Invalid client ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	assessment, err := h.assessmentService.Create(r.Context(), actor, clientID, req.BuildingName, req.BuildingInfo)
	if err != nil {
		h.logger.Error("Failed to create assessment",
			zap.String("actor_id", actor.ID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_assessment_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: assessment}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/assessments
func (h *AssessmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	assessments, err := h.assessmentService.ListForActor(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to list assessments",
			zap.String("actor_id", actor.ID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "list_assessments_failed")
		return
	}

	response := AssessmentListResponse{
		Assessments: assessments,
		Total:       len(assessments),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/assessments/{aid}
func (h *AssessmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.assessmentService.Get(r.Context(), actor, publicID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_assessment_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpsertSection handles PUT /api/assessments/{aid}/sections/{sectionType}
func (h *AssessmentsHandler) UpsertSection(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpsertSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	section, err := h.assessmentService.UpsertSection(r.Context(), actor, publicID, &services.UpsertSectionRequest{
		SectionType:  r.PathValue("sectionType"),
		Variables:    jsonutil.IntMap(req.Variables),
		LocationData: req.LocationData,
		IsCompleted:  req.IsCompleted,
	})
	if err != nil {
		h.logger.Error("Failed to save section",
			zap.String("assessment_id", publicID.String()),
			zap.String("section_type", r.PathValue("sectionType")),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "save_section_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: section}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddMedia handles POST /api/assessments/{aid}/media
func (h *AssessmentsHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	var req AddMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	media, err := h.assessmentService.AddMedia(r.Context(), actor, publicID, &services.AddMediaRequest{
		SectionType: req.SectionType,
		FieldName:   req.FieldName,
		MediaType:   req.MediaType,
		StoragePath: req.StoragePath,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "add_media_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: media}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Complete handles POST /api/assessments/{aid}/complete
func (h *AssessmentsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	assessment, err := h.assessmentService.Complete(r.Context(), actor, publicID)
	if err != nil {
		h.logger.Error("Failed to complete assessment",
			zap.String("assessment_id", publicID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "complete_assessment_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: assessment}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// currentUser pulls the authenticated account from context. A missing account
// means the route was registered without auth middleware.
func (h *AssessmentsHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	actor, ok := auth.GetUser(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return actor, true
}

// Lock handles POST /api/assessments/{aid}/lock
func (h *AssessmentsHandler) Lock(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	reason := decodeReason(r)
	assessment, err := h.assessmentService.Lock(r.Context(), actor, publicID, reason)
	if err != nil {
		writeServiceError(w, h.logger, err, "lock_assessment_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: assessment}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Unlock handles POST /api/assessments/{aid}/unlock
func (h *AssessmentsHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	assessment, err := h.assessmentService.Unlock(r.Context(), actor, publicID)
	if err != nil {
		writeServiceError(w, h.logger, err, "unlock_assessment_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: assessment}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RequestEdit handles POST /api/assessments/{aid}/edit-requests
func (h *AssessmentsHandler) RequestEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	reason := decodeReason(r)
	if err := h.assessmentService.RequestEdit(r.Context(), actor, publicID, reason); err != nil {
		writeServiceError(w, h.logger, err, "request_edit_failed")
		return
	}

	if err := WriteJSON(w, http.StatusAccepted, ApiResponse{Success: true, Message: "Edit request submitted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ApproveEdit handles POST /api/assessments/{aid}/edit-requests/approve
func (h *AssessmentsHandler) ApproveEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	assessment, err := h.assessmentService.ApproveEdit(r.Context(), actor, publicID)
	if err != nil {
		writeServiceError(w, h.logger, err, "approve_edit_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: assessment}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DenyEdit handles POST /api/assessments/{aid}/edit-requests/deny
func (h *AssessmentsHandler) DenyEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	reason := decodeReason(r)
	if err := h.assessmentService.DenyEdit(r.Context(), actor, publicID, reason); err != nil {
		writeServiceError(w, h.logger, err, "deny_edit_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Edit request denied"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Archive handles DELETE /api/assessments/{aid}
func (h *AssessmentsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	publicID, ok := ParseAssessmentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.assessmentService.Archive(r.Context(), actor, publicID); err != nil {
		writeServiceError(w, h.logger, err, "archive_assessment_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Assessment archived"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeReason reads an optional ReasonRequest body. An empty or malformed
// body yields an empty reason rather than an error.
func decodeReason(r *http.Request) string {
	var req ReasonRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req.Reason
}
