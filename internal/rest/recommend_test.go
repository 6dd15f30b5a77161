package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"campusMarket/business/recommend"
	"campusMarket/domain"
)

type stubRecommendService struct {
	result  *domain.RecommendationResult
	err     error
	lastReq recommend.Request
	cleared int
}

func (s *stubRecommendService) Recommend(_ context.Context, req recommend.Request) (*domain.RecommendationResult, error) {
	s.lastReq = req
	return s.result, s.err
}

func (s *stubRecommendService) CacheClear() int {
	return s.cleared
}

func doRequest(handler echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler(c)
	return rec
}

func TestRecommendHandlerSuccess(t *testing.T) {
	svc := &stubRecommendService{result: &domain.RecommendationResult{
		Summary:        "추천 상품 3개",
		SearchStrategy: recommend.StrategyCSVDiverse,
		TotalItems:     3,
	}}
	h := NewRecommendHandler(svc)

	rec := doRequest(h.Recommend, http.MethodPost, "/api/recommend",
		`{"user_id": 7, "page": 1, "enable_rerank": true, "llm_model": "mistral-small-latest"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastReq.UserID != 7 || svc.lastReq.Page != 1 || !svc.lastReq.EnableRerank {
		t.Errorf("service request = %+v", svc.lastReq)
	}
	if !strings.Contains(rec.Body.String(), "추천 상품 3개") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRecommendHandlerUnknownUser(t *testing.T) {
	svc := &stubRecommendService{err: recommend.ErrUserNotFound}
	h := NewRecommendHandler(svc)

	rec := doRequest(h.Recommend, http.MethodPost, "/api/recommend", `{"user_id": 999}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRecommendHandlerRejectsMissingUserID(t *testing.T) {
	h := NewRecommendHandler(&stubRecommendService{})

	rec := doRequest(h.Recommend, http.MethodPost, "/api/recommend", `{"page": 1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendHandlerRejectsNegativePage(t *testing.T) {
	h := NewRecommendHandler(&stubRecommendService{})

	rec := doRequest(h.Recommend, http.MethodPost, "/api/recommend", `{"user_id": 7, "page": -1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCacheClearHandler(t *testing.T) {
	h := NewRecommendHandler(&stubRecommendService{cleared: 4})

	rec := doRequest(h.CacheClear, http.MethodGet, "/api/cache/clear", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"cleared":4`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHealthHandlerReportsCollaborators(t *testing.T) {
	h := NewHealthHandler(true, false)

	rec := doRequest(h.Health, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"qdrant":"active"`) || !strings.Contains(body, `"llm":"inactive"`) {
		t.Errorf("body = %s", body)
	}
}
