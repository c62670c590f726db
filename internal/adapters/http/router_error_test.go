package httpadapter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/config"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

func reviewHandlerFailingWith(err error) http.Handler {
	return NewRouter(
		config.Config{},
		ingestSuccessFake{},
		submissionsFake{},
		&reviewFake{err: err},
		exportFake{},
		maintenanceFake{},
	).Handler()
}

func TestGetDraftByIDReturns404ForNotFound(t *testing.T) {
	handler := reviewHandlerFailingWith(
		domain.WrapError(domain.ErrDraftNotFound, "fetch draft by id", errors.New("id=missing")))

	req := httptest.NewRequest(http.MethodGet, "/v1/drafts/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestApproveDecidedDraftReturns409(t *testing.T) {
	handler := reviewHandlerFailingWith(
		domain.WrapError(domain.ErrInvalidTransition, "approve draft", errors.New("id draft-1 is approved, not pending")))

	req := httptest.NewRequest(http.MethodPost, "/v1/drafts/draft-1/approve", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestListDraftsUnknownStateMapsTo400(t *testing.T) {
	handler := reviewHandlerFailingWith(
		domain.WrapError(domain.ErrInvalidInput, "list drafts", errors.New(`unknown state filter "archived"`)))

	req := httptest.NewRequest(http.MethodGet, "/v1/drafts?state=archived", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetSubmissionReturns404ForNotFound(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		ingestSuccessFake{},
		submissionsFake{err: domain.WrapError(domain.ErrSubmissionNotFound, "fetch submission by id", errors.New("id=missing"))},
		&reviewFake{},
		exportFake{},
		maintenanceFake{},
	).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/submissions/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUploadTemporaryFailureMapsTo503(t *testing.T) {
	handler := NewRouter(
		config.Config{APIMaxUploadMB: 20},
		ingestErrFake{err: domain.WrapError(domain.ErrTemporary, "publish ingestion event", errors.New("nats connection closed"))},
		submissionsFake{},
		&reviewFake{},
		exportFake{},
		maintenanceFake{},
	).Handler()

	body, contentType := multipartBody(t, "zadost.txt", []byte("obsah"))
	req := httptest.NewRequest(http.MethodPost, "/v1/applications", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestUnknownErrorMapsTo500(t *testing.T) {
	handler := reviewHandlerFailingWith(errors.New("disk on fire"))

	req := httptest.NewRequest(http.MethodGet, "/v1/drafts", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}
