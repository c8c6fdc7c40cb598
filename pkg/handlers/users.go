package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/auth"
	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// CreateUserRequest for POST /api/users
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// InviteUserRequest for POST /api/invitations
type InviteUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AcceptInvitationRequest for POST /api/invitations/accept
type AcceptInvitationRequest struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// UpdateSubscriptionRequest for PUT /api/users/{uid}/subscription
type UpdateSubscriptionRequest struct {
	Tier   string `json:"tier"`
	Status string `json:"status"`
}

// UserListResponse for GET /api/users
type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int            `json:"total"`
}

// ============================================================================
// Handler
// ============================================================================

// UsersHandler handles account management HTTP requests.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
// Invitation acceptance is public; everything else requires authentication.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/users", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/users", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/users/me", authMiddleware.RequireAuth(h.Me))
	mux.HandleFunc("POST /api/users/{uid}/suspend", authMiddleware.RequireAuth(h.Suspend))
	mux.HandleFunc("POST /api/users/{uid}/reactivate", authMiddleware.RequireAuth(h.Reactivate))
	mux.HandleFunc("PUT /api/users/{uid}/subscription", authMiddleware.RequireAuth(h.UpdateSubscription))
	mux.HandleFunc("POST /api/invitations", authMiddleware.RequireAuth(h.Invite))
	mux.HandleFunc("POST /api/invitations/accept", h.AcceptInvitation)
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.Create(r.Context(), actor, req.Email, req.Name, req.Role)
	if err != nil {
		h.logger.Error("Failed to create user",
			zap.String("actor_id", actor.ID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.userService.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_users_failed")
		return
	}

	response := UserListResponse{Users: users, Total: len(users)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Me handles GET /api/users/me
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: actor}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Suspend handles POST /api/users/{uid}/suspend
func (h *UsersHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.userService.Suspend(r.Context(), actor, userID); err != nil {
		writeServiceError(w, h.logger, err, "suspend_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Account suspended"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reactivate handles POST /api/users/{uid}/reactivate
func (h *UsersHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.userService.Reactivate(r.Context(), actor, userID); err != nil {
		writeServiceError(w, h.logger, err, "reactivate_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Account reactivated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateSubscription handles PUT /api/users/{uid}/subscription
func (h *UsersHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.userService.UpdateSubscription(r.Context(), actor, userID, req.Tier, req.Status); err != nil {
		writeServiceError(w, h.logger, err, "update_subscription_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Subscription updated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Invite handles POST /api/invitations
func (h *UsersHandler) Invite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req InviteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	invitation, err := h.userService.Invite(r.Context(), actor, req.Email, req.Role)
	if err != nil {
		h.logger.Error("Failed to create invitation",
			zap.String("actor_id", actor.ID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_invitation_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: invitation}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AcceptInvitation handles POST /api/invitations/accept
func (h *UsersHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req AcceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.AcceptInvitation(r.Context(), req.Token, req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err, "accept_invitation_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// currentUser pulls the authenticated account from context.
func (h *UsersHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	actor, ok := auth.GetUser(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return actor, true
}
