package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/greda-gbc/assessment-engine/pkg/auth"
	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/services"
)

// Mocks shared by the handler tests. Each call records its input and returns
// the configured result or error.

type mockAssessmentService struct {
	err error

	assessment *models.Assessment
	detail     *services.AssessmentDetail
	section    *models.AssessmentSection
	media      *models.AssessmentMedia
	list       []*models.Assessment

	gotSectionType string
	gotVariables   models.VariableMap
	gotReason      string
	gotPublicID    uuid.UUID
}

var _ services.AssessmentService = (*mockAssessmentService)(nil)

func (m *mockAssessmentService) Create(ctx context.Context, actor *models.User, clientID uuid.UUID, buildingName string, buildingInfo models.JSONBMap) (*models.Assessment, error) {
	return m.assessment, m.err
}

func (m *mockAssessmentService) Get(ctx context.Context, actor *models.User, publicID uuid.UUID) (*services.AssessmentDetail, error) {
	m.gotPublicID = publicID
	return m.detail, m.err
}

func (m *mockAssessmentService) ListForActor(ctx context.Context, actor *models.User) ([]*models.Assessment, error) {
	return m.list, m.err
}

func (m *mockAssessmentService) UpsertSection(ctx context.Context, actor *models.User, publicID uuid.UUID, req *services.UpsertSectionRequest) (*models.AssessmentSection, error) {
	m.gotPublicID = publicID
	m.gotSectionType = req.SectionType
	m.gotVariables = req.Variables
	return m.section, m.err
}

func (m *mockAssessmentService) AddMedia(ctx context.Context, actor *models.User, publicID uuid.UUID, req *services.AddMediaRequest) (*models.AssessmentMedia, error) {
	return m.media, m.err
}

func (m *mockAssessmentService) Complete(ctx context.Context, actor *models.User, publicID uuid.UUID) (*models.Assessment, error) {
	m.gotPublicID = publicID
	return m.assessment, m.err
}

func (m *mockAssessmentService) Lock(ctx context.Context, actor *models.User, publicID uuid.UUID, reason string) (*models.Assessment, error) {
	m.gotReason = reason
	return m.assessment, m.err
}

func (m *mockAssessmentService) Unlock(ctx context.Context, actor *models.User, publicID uuid.UUID) (*models.Assessment, error) {
	return m.assessment, m.err
}

func (m *mockAssessmentService) RequestEdit(ctx context.Context, actor *models.User, publicID uuid.UUID, reason string) error {
	m.gotReason = reason
	return m.err
}

func (m *mockAssessmentService) ApproveEdit(ctx context.Context, actor *models.User, publicID uuid.UUID) (*models.Assessment, error) {
	return m.assessment, m.err
}

func (m *mockAssessmentService) DenyEdit(ctx context.Context, actor *models.User, publicID uuid.UUID, reason string) error {
	m.gotReason = reason
	return m.err
}

func (m *mockAssessmentService) Archive(ctx context.Context, actor *models.User, publicID uuid.UUID) error {
	return m.err
}

type mockUserService struct {
	err        error
	user       *models.User
	invitation *models.Invitation
	users      []*models.User
}

var _ services.UserService = (*mockUserService)(nil)

func (m *mockUserService) Create(ctx context.Context, actor *models.User, email, name, role string) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) Invite(ctx context.Context, actor *models.User, email, role string) (*models.Invitation, error) {
	return m.invitation, m.err
}

func (m *mockUserService) AcceptInvitation(ctx context.Context, token, name string) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) Suspend(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	return m.err
}

func (m *mockUserService) Reactivate(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	return m.err
}

func (m *mockUserService) UpdateSubscription(ctx context.Context, actor *models.User, userID uuid.UUID, tier, status string) error {
	return m.err
}

func (m *mockUserService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) List(ctx context.Context, actor *models.User) ([]*models.User, error) {
	return m.users, m.err
}

type mockActivityService struct {
	err     error
	entries []*models.ActivityLog
}

var _ services.ActivityService = (*mockActivityService)(nil)

func (m *mockActivityService) Record(ctx context.Context, entry *models.ActivityLog) *models.ActivityLog {
	return entry
}

func (m *mockActivityService) RecordPair(ctx context.Context, actor, counterpart *models.ActivityLog) {}

func (m *mockActivityService) GetForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error) {
	return m.entries, m.err
}

func (m *mockActivityService) GetForAssessment(ctx context.Context, assessmentPublicID uuid.UUID) ([]*models.ActivityLog, error) {
	return m.entries, m.err
}

// withUser injects an authenticated account into the request context, the way
// the auth middleware would.
func withUser(r *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(r.Context(), auth.UserKey, user)
	return r.WithContext(ctx)
}
