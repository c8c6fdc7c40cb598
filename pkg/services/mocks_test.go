package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/greda-gbc/assessment-engine/pkg/apperrors"
	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/repositories"
)

// In-memory mocks shared by the service tests.

type mockAssessmentRepo struct {
	assessments map[uuid.UUID]*models.Assessment
	sections    map[int64]map[string]*models.AssessmentSection
	nextID      int64

	createErr  error
	getErr     error
	upsertErr  error
	sectionErr error
}

func newMockAssessmentRepo() *mockAssessmentRepo {
	return &mockAssessmentRepo{
		assessments: make(map[uuid.UUID]*models.Assessment),
		sections:    make(map[int64]map[string]*models.AssessmentSection),
	}
}

var _ repositories.AssessmentRepository = (*mockAssessmentRepo)(nil)

func (m *mockAssessmentRepo) Create(ctx context.Context, a *models.Assessment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	a.ID = m.nextID
	a.PublicID = uuid.New()
	a.Version = 1
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	m.assessments[a.PublicID] = &stored
	return nil
}

func (m *mockAssessmentRepo) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Assessment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	stored, ok := m.assessments[publicID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *stored
	return &cp, nil
}

func (m *mockAssessmentRepo) GetSections(ctx context.Context, assessmentID int64) ([]*models.AssessmentSection, error) {
	if m.sectionErr != nil {
		return nil, m.sectionErr
	}
	byType := m.sections[assessmentID]
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	var out []*models.AssessmentSection
	for _, t := range types {
		cp := *byType[t]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockAssessmentRepo) ListByAssessor(ctx context.Context, userID uuid.UUID) ([]*models.Assessment, error) {
	var out []*models.Assessment
	for _, a := range m.assessments {
		if a.UserID == userID && a.ArchivedAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAssessmentRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Assessment, error) {
	var out []*models.Assessment
	for _, a := range m.assessments {
		if a.ClientID == clientID && a.ArchivedAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAssessmentRepo) ListAll(ctx context.Context) ([]*models.Assessment, error) {
	var out []*models.Assessment
	for _, a := range m.assessments {
		if a.ArchivedAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAssessmentRepo) UpsertSectionWithAggregates(ctx context.Context, a *models.Assessment, section *models.AssessmentSection) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	stored := m.assessments[a.PublicID]
	if stored == nil {
		return apperrors.ErrNotFound
	}
	if stored.Version != a.Version {
		return apperrors.ErrConflict
	}

	byType := m.sections[a.ID]
	if byType == nil {
		byType = make(map[string]*models.AssessmentSection)
		m.sections[a.ID] = byType
	}
	if existing, ok := byType[section.SectionType]; ok {
		section.ID = existing.ID
		section.CreatedAt = existing.CreatedAt
	} else {
		m.nextID++
		section.ID = m.nextID
		section.CreatedAt = time.Now()
	}
	section.UpdatedAt = time.Now()
	cp := *section
	byType[section.SectionType] = &cp

	stored.OverallScore = a.OverallScore
	stored.MaxPossibleScore = a.MaxPossibleScore
	stored.CompletedSections = a.CompletedSections
	stored.Version++
	stored.UpdatedAt = time.Now()
	a.Version = stored.Version
	a.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *mockAssessmentRepo) Complete(ctx context.Context, a *models.Assessment, conductedAt time.Time) error {
	stored := m.assessments[a.PublicID]
	if stored == nil {
		return apperrors.ErrNotFound
	}
	stored.Status = models.AssessmentStatusCompleted
	if stored.ConductedAt == nil {
		t := conductedAt
		stored.ConductedAt = &t
	}
	stored.Version++
	stored.UpdatedAt = time.Now()

	a.Status = stored.Status
	a.ConductedAt = stored.ConductedAt
	a.Version = stored.Version
	return nil
}

func (m *mockAssessmentRepo) SetLock(ctx context.Context, a *models.Assessment, locked bool, lockedBy *uuid.UUID) error {
	stored := m.assessments[a.PublicID]
	if stored == nil {
		return apperrors.ErrNotFound
	}
	stored.IsLocked = locked
	stored.LockedBy = lockedBy
	if locked {
		now := time.Now()
		stored.LockedAt = &now
	} else {
		stored.LockedAt = nil
	}
	stored.Version++

	a.IsLocked = stored.IsLocked
	a.LockedAt = stored.LockedAt
	a.LockedBy = stored.LockedBy
	a.Version = stored.Version
	return nil
}

func (m *mockAssessmentRepo) Archive(ctx context.Context, assessmentID int64, archivedAt time.Time) error {
	for _, a := range m.assessments {
		if a.ID == assessmentID {
			if a.ArchivedAt != nil {
				return apperrors.ErrNotFound
			}
			t := archivedAt
			a.ArchivedAt = &t
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// stored returns the authoritative copy of an assessment for assertions.
func (m *mockAssessmentRepo) stored(publicID uuid.UUID) *models.Assessment {
	return m.assessments[publicID]
}

type mockActivityRepo struct {
	entries   []*models.ActivityLog
	createErr error
}

var _ repositories.ActivityRepository = (*mockActivityRepo)(nil)

func (m *mockActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockActivityRepo) ListByTargetUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error) {
	var out []*models.ActivityLog
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.entries[i]
		if e.TargetUserID != nil && *e.TargetUserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockActivityRepo) ListByAssessment(ctx context.Context, assessmentPublicID uuid.UUID) ([]*models.ActivityLog, error) {
	var out []*models.ActivityLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.AssessmentID != nil && *e.AssessmentID == assessmentPublicID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockActivityRepo) byType(activityType string) []*models.ActivityLog {
	var out []*models.ActivityLog
	for _, e := range m.entries {
		if e.ActivityType == activityType {
			out = append(out, e)
		}
	}
	return out
}

type mockUserRepo struct {
	users        map[uuid.UUID]*models.User
	createErr    error
	statusCalls  map[uuid.UUID]string
	subscription map[uuid.UUID][2]string
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{
		users:        make(map[uuid.UUID]*models.User),
		statusCalls:  make(map[uuid.UUID]string),
		subscription: make(map[uuid.UUID][2]string),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

var _ repositories.UserRepository = (*mockUserRepo)(nil)

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	var out []*models.User
	for _, u := range m.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockUserRepo) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Status = status
	m.statusCalls[userID] = status
	return nil
}

func (m *mockUserRepo) UpdateSubscription(ctx context.Context, userID uuid.UUID, tier, status string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.SubscriptionTier = tier
	u.SubscriptionStatus = status
	m.subscription[userID] = [2]string{tier, status}
	return nil
}

type mockMediaRepo struct {
	media       []*models.AssessmentMedia
	createErr   error
	deleted     int64
	deleteErr   error
	gotCutoff   time.Time
	listErr     error
	listResults []*models.AssessmentMedia
}

var _ repositories.MediaRepository = (*mockMediaRepo)(nil)

func (m *mockMediaRepo) Create(ctx context.Context, media *models.AssessmentMedia) error {
	if m.createErr != nil {
		return m.createErr
	}
	media.ID = uuid.New()
	media.CreatedAt = time.Now()
	cp := *media
	m.media = append(m.media, &cp)
	return nil
}

func (m *mockMediaRepo) ListByAssessment(ctx context.Context, assessmentID int64) ([]*models.AssessmentMedia, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.listResults != nil {
		return m.listResults, nil
	}
	var out []*models.AssessmentMedia
	for _, md := range m.media {
		if md.AssessmentID == assessmentID {
			out = append(out, md)
		}
	}
	return out, nil
}

func (m *mockMediaRepo) DeleteOrphanedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.gotCutoff = cutoff
	return m.deleted, m.deleteErr
}

type mockInvitationRepo struct {
	invitations map[string]*models.Invitation
	createErr   error
	deleted     int64
	deleteErr   error
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{invitations: make(map[string]*models.Invitation)}
}

var _ repositories.InvitationRepository = (*mockInvitationRepo)(nil)

func (m *mockInvitationRepo) Create(ctx context.Context, inv *models.Invitation) error {
	if m.createErr != nil {
		return m.createErr
	}
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	cp := *inv
	m.invitations[inv.Token] = &cp
	return nil
}

func (m *mockInvitationRepo) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv, ok := m.invitations[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *mockInvitationRepo) MarkAccepted(ctx context.Context, token string, acceptedAt time.Time) error {
	inv, ok := m.invitations[token]
	if !ok || inv.AcceptedAt != nil {
		return apperrors.ErrConflict
	}
	t := acceptedAt
	inv.AcceptedAt = &t
	return nil
}

func (m *mockInvitationRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.deleted, m.deleteErr
}

// failNotifier always fails delivery; recording must still succeed.
type failNotifier struct {
	attempts int
}

func (n *failNotifier) Deliver(ctx context.Context, entry *models.ActivityLog) error {
	n.attempts++
	return context.DeadlineExceeded
}
