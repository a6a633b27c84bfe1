package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"knowledgehub/internal/audit"
	auditmemory "knowledgehub/internal/audit/store/memory"
	"knowledgehub/internal/document/service"
	docmemory "knowledgehub/internal/document/store/memory"
	"knowledgehub/internal/duplicate"
	"knowledgehub/internal/lifecycle"
	"knowledgehub/internal/rbac"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/testutil"
)

var testReviewerRoles = []id.Role{
	id.RoleSeniorConsultant,
	id.RoleProjectManager,
	id.RoleKnowledgeChampion,
	id.RoleGovernanceCouncil,
	id.RoleITInfrastructure,
	id.RoleAdmin,
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	authz := rbac.New(testReviewerRoles)
	svc := service.New(
		docmemory.NewInMemoryStore(),
		duplicate.New(0.8),
		authz,
		lifecycle.New(authz),
		WithTestLogger(),
		service.WithAuditPublisher(audit.NewPublisher(auditmemory.NewInMemoryStore())),
	)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// WithTestLogger silences service logging in handler tests.
func WithTestLogger() service.Option {
	return service.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func uploadDocument(t *testing.T, router http.Handler, actor id.UserID, title string) *UploadResponse {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/documents/upload", map[string]any{
		"title":    title,
		"file_url": "s3://docs/" + title,
	})
	rr := testutil.DoRequest(router, testutil.WithActor(req, actor, id.RoleConsultant))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[UploadResponse](t, rr)
}

func TestUploadCreatesDocument(t *testing.T) {
	router := newRouter(t)
	owner := id.NewUserID()

	resp := uploadDocument(t, router, owner, "Onboarding Checklist")
	require.Equal(t, "Onboarding Checklist", resp.Document.Title)
	require.Equal(t, "pending", string(resp.Document.Status))
	require.Len(t, resp.Document.Versions, 1)
}

func TestUploadValidation(t *testing.T) {
	router := newRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/documents/upload", map[string]any{
		"title": "no artifact",
	})
	rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleConsultant))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestUploadDuplicateWarningRoundTrip(t *testing.T) {
	router := newRouter(t)
	owner := id.NewUserID()
	uploadDocument(t, router, owner, "Client Playbook")

	dup := testutil.NewJSONRequest(t, http.MethodPost, "/documents/upload", map[string]any{
		"title":    "Client Playbook",
		"file_url": "s3://docs/playbook-v2",
	})
	rr := testutil.DoRequest(router, testutil.WithActor(dup, owner, id.RoleConsultant))
	testutil.AssertStatus(t, rr, http.StatusConflict)

	warning := testutil.UnmarshalResponse[DuplicateWarningResponse](t, rr)
	require.Equal(t, "duplicate_warning", warning.Error)
	require.Len(t, warning.Duplicates, 1)
	require.Equal(t, 100, warning.Duplicates[0].SimilarityPercent)

	confirm := testutil.NewJSONRequest(t, http.MethodPost, "/documents/upload", map[string]any{
		"title":             "Client Playbook",
		"file_url":          "s3://docs/playbook-v2",
		"confirm_duplicate": true,
	})
	rr = testutil.DoRequest(router, testutil.WithActor(confirm, owner, id.RoleConsultant))
	testutil.AssertStatus(t, rr, http.StatusOK)

	appended := testutil.UnmarshalResponse[UploadResponse](t, rr)
	require.True(t, appended.AppendedToExisting)
	require.Len(t, appended.Document.Versions, 2)
}

func TestChangeStatusForbiddenForNonReviewer(t *testing.T) {
	router := newRouter(t)
	owner := id.NewUserID()
	doc := uploadDocument(t, router, owner, "Pending Doc")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/documents/"+doc.Document.ID.String()+"/status", map[string]any{
		"status": "approved",
	})
	rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleConsultant))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
}

func TestChangeStatusApprovedByReviewer(t *testing.T) {
	router := newRouter(t)
	owner := id.NewUserID()
	doc := uploadDocument(t, router, owner, "Pending Doc")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/documents/"+doc.Document.ID.String()+"/status", map[string]any{
		"status": "approved",
	})
	rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleSeniorConsultant))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "status", "approved")
}

func TestRejectWithoutReasonIs422(t *testing.T) {
	router := newRouter(t)
	doc := uploadDocument(t, router, id.NewUserID(), "Pending Doc")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/documents/"+doc.Document.ID.String()+"/status", map[string]any{
		"status": "rejected",
	})
	rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleSeniorConsultant))
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "invalid_transition")
}

func TestRateAndLike(t *testing.T) {
	router := newRouter(t)
	doc := uploadDocument(t, router, id.NewUserID(), "Rated Doc")
	docPath := "/documents/" + doc.Document.ID.String()

	rate := testutil.NewJSONRequest(t, http.MethodPost, docPath+"/rate", map[string]any{"stars": 4})
	rr := testutil.DoRequest(router, testutil.WithActor(rate, id.NewUserID(), id.RoleNewHire))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "average_rating", 4.0)

	like := testutil.NewRequest(t, http.MethodPost, docPath+"/like")
	rr = testutil.DoRequest(router, testutil.WithActor(like, id.NewUserID(), id.RoleNewHire))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "liked", true)
}

func TestRateValidation(t *testing.T) {
	router := newRouter(t)
	doc := uploadDocument(t, router, id.NewUserID(), "Rated Doc")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/documents/"+doc.Document.ID.String()+"/rate", map[string]any{"stars": 9})
	rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleNewHire))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestCommentLifecycle(t *testing.T) {
	router := newRouter(t)
	doc := uploadDocument(t, router, id.NewUserID(), "Discussed Doc")
	docPath := "/documents/" + doc.Document.ID.String()
	author := id.NewUserID()

	add := testutil.NewJSONRequest(t, http.MethodPost, docPath+"/comments", map[string]any{"text": "great summary"})
	rr := testutil.DoRequest(router, testutil.WithActor(add, author, id.RoleConsultant))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	comment := testutil.UnmarshalResponse[struct {
		ID string `json:"id"`
	}](t, rr)
	require.NotEmpty(t, comment.ID)

	del := testutil.NewRequest(t, http.MethodDelete, docPath+"/comments/"+comment.ID)
	rr = testutil.DoRequest(router, testutil.WithActor(del, author, id.RoleConsultant))
	testutil.AssertStatus(t, rr, http.StatusNoContent)
}

func TestHistoryRequiresOwnershipOrReviewer(t *testing.T) {
	router := newRouter(t)
	owner := id.NewUserID()
	doc := uploadDocument(t, router, owner, "Historied Doc")
	historyPath := "/documents/" + doc.Document.ID.String() + "/history"

	req := testutil.NewRequest(t, http.MethodGet, historyPath)
	rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleConsultant))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	req = testutil.NewRequest(t, http.MethodGet, historyPath)
	rr = testutil.DoRequest(router, testutil.WithActor(req, owner, id.RoleConsultant))
	testutil.AssertStatus(t, rr, http.StatusOK)

	history := testutil.UnmarshalResponse[historyResponse](t, rr)
	require.Len(t, history.Entries, 1)
	require.Equal(t, audit.ActionUpload, history.Entries[0].Action)
}

func TestFlagAndResolveRoutes(t *testing.T) {
	router := newRouter(t)
	doc := uploadDocument(t, router, id.NewUserID(), "Flagged Doc")
	docID := doc.Document.ID.String()

	flag := testutil.NewJSONRequest(t, http.MethodPut, "/governance/flag/"+docID, map[string]any{
		"reason": "client names visible",
	})
	rr := testutil.DoRequest(router, testutil.WithActor(flag, id.NewUserID(), id.RoleNewHire))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "flag_reason", "client names visible")

	resolve := testutil.NewJSONRequest(t, http.MethodPut, "/governance/resolve/"+docID, map[string]any{
		"resolution": "names redacted",
	})
	rr = testutil.DoRequest(router, testutil.WithActor(resolve, id.NewUserID(), id.RoleKnowledgeChampion))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "flag_reason", nil)
}

func TestApprovalFlow(t *testing.T) {
	router := newRouter(t)
	owner := id.NewUserID()

	testutil.Given(t, "a pending document", func(t *testing.T) {
		doc := uploadDocument(t, router, owner, "Delivery Methodology")
		statusPath := "/documents/" + doc.Document.ID.String() + "/status"

		testutil.When(t, "a reviewer approves it", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPut, statusPath, map[string]any{
				"status": "approved",
			})
			rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleGovernanceCouncil))

			testutil.Then(t, "the document becomes approved", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				testutil.AssertJSONContains(t, rr, "status", "approved")
			})
		})

		testutil.When(t, "the owner archives it", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPut, statusPath, map[string]any{
				"status": "archived",
			})
			rr := testutil.DoRequest(router, testutil.WithActor(req, owner, id.RoleConsultant))

			testutil.Then(t, "the document becomes archived", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				testutil.AssertJSONContains(t, rr, "status", "archived")
			})
		})
	})
}

func TestInvalidDocumentID(t *testing.T) {
	router := newRouter(t)
	req := testutil.NewRequest(t, http.MethodGet, "/documents/not-a-uuid")
	rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleConsultant))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}

func TestGetMissingDocumentIs404(t *testing.T) {
	router := newRouter(t)
	req := testutil.NewRequest(t, http.MethodGet, "/documents/"+id.NewDocumentID().String())
	rr := testutil.DoRequest(router, testutil.WithActor(req, id.NewUserID(), id.RoleConsultant))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}
