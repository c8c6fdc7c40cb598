package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/greda-gbc/assessment-engine/pkg/apperrors"
	"github.com/greda-gbc/assessment-engine/pkg/catalog"
	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/repositories"
	"github.com/greda-gbc/assessment-engine/pkg/testhelpers"
)

// createTestUser inserts a user with a unique email for this test run.
func createTestUser(t *testing.T, repo repositories.UserRepository, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:  fmt.Sprintf("%s-%s@example.com", role, uuid.New().String()[:8]),
		Name:   "Test " + role,
		Role:   role,
		Status: models.UserStatusActive,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestAssessment(t *testing.T, repo repositories.AssessmentRepository, assessor, client *models.User) *models.Assessment {
	t.Helper()
	a := &models.Assessment{
		UserID:        assessor.ID,
		ClientID:      client.ID,
		BuildingName:  "Integration Tower",
		Status:        models.AssessmentStatusDraft,
		TotalSections: catalog.TotalSections,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("failed to create test assessment: %v", err)
	}
	return a
}

func TestUserRepository_Integration(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := repositories.NewUserRepository(db.DB)
	ctx := context.Background()

	user := createTestUser(t, repo, models.RoleClient)
	if user.ID == uuid.Nil {
		t.Fatal("expected generated user ID")
	}

	got, err := repo.GetByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != user.ID {
		t.Error("GetByEmail returned the wrong account")
	}

	if err := repo.UpdateSubscription(ctx, user.ID, models.SubscriptionPremium, models.SubscriptionActive); err != nil {
		t.Fatalf("UpdateSubscription failed: %v", err)
	}
	got, err = repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SubscriptionTier != models.SubscriptionPremium {
		t.Errorf("expected premium tier, got %q", got.SubscriptionTier)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown ID, got %v", err)
	}
}

func TestAssessmentRepository_CreateDefaults(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	userRepo := repositories.NewUserRepository(db.DB)
	repo := repositories.NewAssessmentRepository(db.DB)

	assessor := createTestUser(t, userRepo, models.RoleAssessor)
	client := createTestUser(t, userRepo, models.RoleClient)
	a := createTestAssessment(t, repo, assessor, client)

	if a.PublicID == uuid.Nil {
		t.Error("expected generated public ID")
	}
	if a.Version != 1 {
		t.Errorf("expected initial version 1, got %d", a.Version)
	}
}

func TestAssessmentRepository_UpsertSectionWithAggregates(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	userRepo := repositories.NewUserRepository(db.DB)
	repo := repositories.NewAssessmentRepository(db.DB)
	ctx := context.Background()

	assessor := createTestUser(t, userRepo, models.RoleAssessor)
	client := createTestUser(t, userRepo, models.RoleClient)
	a := createTestAssessment(t, repo, assessor, client)

	section := &models.AssessmentSection{
		AssessmentID: a.ID,
		SectionType:  catalog.SectionEnergyEfficiency,
		Score:        12,
		MaxScore:     34,
		IsCompleted:  true,
		Variables:    models.VariableMap{"solar-panels": 5, "hvac-efficiency": 4, "energy-metering": 3},
	}
	a.OverallScore = 12
	a.MaxPossibleScore = 34
	a.CompletedSections = 1

	if err := repo.UpsertSectionWithAggregates(ctx, a, section); err != nil {
		t.Fatalf("UpsertSectionWithAggregates failed: %v", err)
	}
	if a.Version != 2 {
		t.Errorf("expected version bump to 2, got %d", a.Version)
	}
	firstSectionID := section.ID

	// Re-save the same section with new values; same row, aggregates follow.
	section.Score = 8
	section.Variables = models.VariableMap{"solar-panels": 8}
	a.OverallScore = 8
	if err := repo.UpsertSectionWithAggregates(ctx, a, section); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if section.ID != firstSectionID {
		t.Errorf("expected the same section row, got %d and %d", firstSectionID, section.ID)
	}

	stored, err := repo.GetByPublicID(ctx, a.PublicID)
	if err != nil {
		t.Fatalf("GetByPublicID failed: %v", err)
	}
	if stored.OverallScore != 8 || stored.CompletedSections != 1 {
		t.Errorf("aggregates not persisted: score=%d completed=%d", stored.OverallScore, stored.CompletedSections)
	}

	sections, err := repo.GetSections(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetSections failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected 1 section row, got %d", len(sections))
	}
	if sections[0].Variables["solar-panels"] != 8 {
		t.Errorf("expected variables round-trip, got %v", sections[0].Variables)
	}
}

func TestAssessmentRepository_StaleVersionConflict(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	userRepo := repositories.NewUserRepository(db.DB)
	repo := repositories.NewAssessmentRepository(db.DB)
	ctx := context.Background()

	assessor := createTestUser(t, userRepo, models.RoleAssessor)
	client := createTestUser(t, userRepo, models.RoleClient)
	a := createTestAssessment(t, repo, assessor, client)

	stale := *a

	section := &models.AssessmentSection{
		AssessmentID: a.ID,
		SectionType:  catalog.SectionInnovation,
		Score:        3,
		MaxScore:     10,
		Variables:    models.VariableMap{"performance-monitoring": 3},
	}
	if err := repo.UpsertSectionWithAggregates(ctx, a, section); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// The stale copy still carries version 1.
	staleSection := &models.AssessmentSection{
		AssessmentID: stale.ID,
		SectionType:  catalog.SectionInnovation,
		Score:        5,
		MaxScore:     10,
		Variables:    models.VariableMap{"innovative-technologies": 5},
	}
	err := repo.UpsertSectionWithAggregates(ctx, &stale, staleSection)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale version, got %v", err)
	}

	// The conflicting write must not have replaced the section.
	sections, _ := repo.GetSections(ctx, a.ID)
	if len(sections) != 1 || sections[0].Score != 3 {
		t.Errorf("conflicting write leaked: %+v", sections)
	}
}

func TestAssessmentRepository_CompleteIdempotent(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	userRepo := repositories.NewUserRepository(db.DB)
	repo := repositories.NewAssessmentRepository(db.DB)
	ctx := context.Background()

	assessor := createTestUser(t, userRepo, models.RoleAssessor)
	client := createTestUser(t, userRepo, models.RoleClient)
	a := createTestAssessment(t, repo, assessor, client)

	if err := repo.Complete(ctx, a, time.Now()); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if a.ConductedAt == nil {
		t.Fatal("expected conducted_at to be set")
	}
	first := *a.ConductedAt

	if err := repo.Complete(ctx, a, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}
	if !a.ConductedAt.Equal(first) {
		t.Error("conducted_at must not change on re-completion")
	}
}

func TestAssessmentRepository_LockAndArchive(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	userRepo := repositories.NewUserRepository(db.DB)
	repo := repositories.NewAssessmentRepository(db.DB)
	ctx := context.Background()

	admin := createTestUser(t, userRepo, models.RoleAdmin)
	assessor := createTestUser(t, userRepo, models.RoleAssessor)
	client := createTestUser(t, userRepo, models.RoleClient)
	a := createTestAssessment(t, repo, assessor, client)

	if err := repo.SetLock(ctx, a, true, &admin.ID); err != nil {
		t.Fatalf("SetLock failed: %v", err)
	}
	if !a.IsLocked || a.LockedAt == nil || a.LockedBy == nil || *a.LockedBy != admin.ID {
		t.Errorf("lock fields not set: %+v", a)
	}

	if err := repo.SetLock(ctx, a, false, nil); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if a.IsLocked || a.LockedAt != nil || a.LockedBy != nil {
		t.Errorf("lock fields not cleared: %+v", a)
	}

	if err := repo.Archive(ctx, a.ID, time.Now()); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	listed, err := repo.ListByAssessor(ctx, assessor.ID)
	if err != nil {
		t.Fatalf("ListByAssessor failed: %v", err)
	}
	for _, item := range listed {
		if item.ID == a.ID {
			t.Error("archived assessment must not appear in listings")
		}
	}

	if err := repo.Archive(ctx, a.ID, time.Now()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double archive, got %v", err)
	}
}

func TestActivityRepository_NewestFirst(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	userRepo := repositories.NewUserRepository(db.DB)
	assessmentRepo := repositories.NewAssessmentRepository(db.DB)
	repo := repositories.NewActivityRepository(db.DB)
	ctx := context.Background()

	assessor := createTestUser(t, userRepo, models.RoleAssessor)
	client := createTestUser(t, userRepo, models.RoleClient)
	a := createTestAssessment(t, assessmentRepo, assessor, client)

	types := []string{
		models.ActivityAssessmentCreated,
		models.ActivityAssessmentCompleted,
		models.ActivityAssessmentLocked,
	}
	for _, activityType := range types {
		entry := &models.ActivityLog{
			ActorID:      assessor.ID,
			TargetUserID: &client.ID,
			AssessmentID: &a.PublicID,
			ActivityType: activityType,
			Title:        activityType,
			Priority:     models.PriorityLow,
		}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create(%s) failed: %v", activityType, err)
		}
	}

	entries, err := repo.ListByAssessment(ctx, a.PublicID)
	if err != nil {
		t.Fatalf("ListByAssessment failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ActivityType != models.ActivityAssessmentLocked {
		t.Errorf("expected newest entry first, got %q", entries[0].ActivityType)
	}

	byUser, err := repo.ListByTargetUser(ctx, client.ID, 2)
	if err != nil {
		t.Fatalf("ListByTargetUser failed: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("expected the limit to apply, got %d entries", len(byUser))
	}
}

func TestInvitationRepository_AcceptOnce(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	userRepo := repositories.NewUserRepository(db.DB)
	repo := repositories.NewInvitationRepository(db.DB)
	ctx := context.Background()

	admin := createTestUser(t, userRepo, models.RoleAdmin)
	inv := &models.Invitation{
		Email:     fmt.Sprintf("invitee-%s@example.com", uuid.New().String()[:8]),
		Role:      models.RoleAssessor,
		Token:     uuid.New().String(),
		InvitedBy: admin.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByToken(ctx, inv.Token)
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if got.Email != inv.Email {
		t.Error("GetByToken returned the wrong invitation")
	}

	if err := repo.MarkAccepted(ctx, inv.Token, time.Now()); err != nil {
		t.Fatalf("MarkAccepted failed: %v", err)
	}
	if err := repo.MarkAccepted(ctx, inv.Token, time.Now()); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict on second accept, got %v", err)
	}
}

func TestMediaRepository_Integration(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	userRepo := repositories.NewUserRepository(db.DB)
	assessmentRepo := repositories.NewAssessmentRepository(db.DB)
	repo := repositories.NewMediaRepository(db.DB)
	ctx := context.Background()

	assessor := createTestUser(t, userRepo, models.RoleAssessor)
	client := createTestUser(t, userRepo, models.RoleClient)
	a := createTestAssessment(t, assessmentRepo, assessor, client)

	media := &models.AssessmentMedia{
		AssessmentID: a.ID,
		SectionType:  catalog.SectionEnergyEfficiency,
		FieldName:    "solar-panels",
		MediaType:    models.MediaTypeImage,
		StoragePath:  "assessments/test/solar.jpg",
		ContentType:  "image/jpeg",
		SizeBytes:    1024,
	}
	if err := repo.Create(ctx, media); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if media.ID == uuid.Nil {
		t.Error("expected generated media ID")
	}

	listed, err := repo.ListByAssessment(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListByAssessment failed: %v", err)
	}
	if len(listed) != 1 || listed[0].FieldName != "solar-panels" {
		t.Errorf("unexpected media list: %+v", listed)
	}
}
