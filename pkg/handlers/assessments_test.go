package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/apperrors"
	"github.com/greda-gbc/assessment-engine/pkg/catalog"
	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/scoring"
	"github.com/greda-gbc/assessment-engine/pkg/services"
)

func testAssessor() *models.User {
	return &models.User{ID: uuid.New(), Name: "Kofi", Role: models.RoleAssessor, Status: models.UserStatusActive}
}

func TestCreateAssessment_Handler(t *testing.T) {
	svc := &mockAssessmentService{
		assessment: &models.Assessment{PublicID: uuid.New(), BuildingName: "Accra Tower"},
	}
	h := NewAssessmentsHandler(svc, zap.NewNop())

	body, _ := json.Marshal(CreateAssessmentRequest{
		ClientID:     uuid.New().String(),
		BuildingName: "Accra Tower",
	})
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/assessments", bytes.NewReader(body)), testAssessor())
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ApiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success envelope")
	}
}

func TestCreateAssessment_InvalidClientID(t *testing.T) {
	h := NewAssessmentsHandler(&mockAssessmentService{}, zap.NewNop())

	body, _ := json.Marshal(CreateAssessmentRequest{ClientID: "not-a-uuid", BuildingName: "X"})
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/assessments", bytes.NewReader(body)), testAssessor())
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestCreateAssessment_Unauthenticated(t *testing.T) {
	h := NewAssessmentsHandler(&mockAssessmentService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/assessments", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestGetAssessment_Handler(t *testing.T) {
	publicID := uuid.New()
	svc := &mockAssessmentService{
		detail: &services.AssessmentDetail{
			Assessment: &models.Assessment{PublicID: publicID, OverallScore: 82},
			Rating:     scoring.RatingTier(82),
		},
	}
	h := NewAssessmentsHandler(svc, zap.NewNop())

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/assessments/"+publicID.String(), nil), testAssessor())
	req.SetPathValue("aid", publicID.String())
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.gotPublicID != publicID {
		t.Error("expected the path ID to reach the service")
	}
}

func TestGetAssessment_InvalidID(t *testing.T) {
	h := NewAssessmentsHandler(&mockAssessmentService{}, zap.NewNop())

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/assessments/abc", nil), testAssessor())
	req.SetPathValue("aid", "abc")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestUpsertSection_Handler(t *testing.T) {
	publicID := uuid.New()
	svc := &mockAssessmentService{
		section: &models.AssessmentSection{SectionType: catalog.SectionEnergyEfficiency, Score: 12},
	}
	h := NewAssessmentsHandler(svc, zap.NewNop())

	// Numeric string exercises tolerant variable decoding.
	body := []byte(`{"variables":{"solar-panels":5,"lighting-systems":"4"},"is_completed":true}`)
	req := withUser(httptest.NewRequest(http.MethodPut,
		"/api/assessments/"+publicID.String()+"/sections/"+catalog.SectionEnergyEfficiency,
		bytes.NewReader(body)), testAssessor())
	req.SetPathValue("aid", publicID.String())
	req.SetPathValue("sectionType", catalog.SectionEnergyEfficiency)
	rec := httptest.NewRecorder()

	h.UpsertSection(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotSectionType != catalog.SectionEnergyEfficiency {
		t.Errorf("expected section type from path, got %q", svc.gotSectionType)
	}
	if svc.gotVariables["solar-panels"] != 5 || svc.gotVariables["lighting-systems"] != 4 {
		t.Errorf("expected decoded variables, got %v", svc.gotVariables)
	}
}

func TestErrorMapping(t *testing.T) {
	publicID := uuid.New()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"locked", apperrors.ErrAssessmentLocked, http.StatusLocked, "assessment_locked"},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"forbidden", apperrors.ErrPermissionDenied, http.StatusForbidden, "forbidden"},
		{"validation", apperrors.NewValidationError("variables", "value out of range"), http.StatusBadRequest, "validation_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAssessmentsHandler(&mockAssessmentService{err: tc.err}, zap.NewNop())

			body, _ := json.Marshal(UpsertSectionRequest{})
			req := withUser(httptest.NewRequest(http.MethodPut,
				"/api/assessments/"+publicID.String()+"/sections/innovation",
				bytes.NewReader(body)), testAssessor())
			req.SetPathValue("aid", publicID.String())
			req.SetPathValue("sectionType", "innovation")
			rec := httptest.NewRecorder()

			h.UpsertSection(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}

			var response map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if response["error"] != tc.wantCode {
				t.Errorf("expected error code %q, got %q", tc.wantCode, response["error"])
			}
		})
	}
}

func TestLock_PassesReason(t *testing.T) {
	publicID := uuid.New()
	svc := &mockAssessmentService{assessment: &models.Assessment{PublicID: publicID, IsLocked: true}}
	h := NewAssessmentsHandler(svc, zap.NewNop())

	body, _ := json.Marshal(ReasonRequest{Reason: "annual audit"})
	req := withUser(httptest.NewRequest(http.MethodPost,
		"/api/assessments/"+publicID.String()+"/lock", bytes.NewReader(body)), testAssessor())
	req.SetPathValue("aid", publicID.String())
	rec := httptest.NewRecorder()

	h.Lock(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.gotReason != "annual audit" {
		t.Errorf("expected reason to reach the service, got %q", svc.gotReason)
	}
}

func TestRequestEdit_Accepted(t *testing.T) {
	publicID := uuid.New()
	h := NewAssessmentsHandler(&mockAssessmentService{}, zap.NewNop())

	req := withUser(httptest.NewRequest(http.MethodPost,
		"/api/assessments/"+publicID.String()+"/edit-requests", nil), testAssessor())
	req.SetPathValue("aid", publicID.String())
	rec := httptest.NewRecorder()

	h.RequestEdit(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", rec.Code)
	}
}
