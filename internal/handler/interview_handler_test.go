package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/feedback"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/middleware"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

var testUser = &model.User{ID: "user-1", Name: "Ada", Email: "ada@example.com"}

func knownInterview(ctx context.Context, id string) (*model.Interview, error) {
	if id == "iv-1" {
		return &model.Interview{ID: "iv-1", UserID: "owner", Role: "backend"}, nil
	}
	return nil, nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	return body
}

func TestInterviewHandler_ListLatest_ParsesLimit(t *testing.T) {
	var gotLimit int
	var gotUser string
	svc := &mockInterviewService{
		listLatestFn: func(ctx context.Context, userID string, limit int) ([]*model.Interview, error) {
			gotUser, gotLimit = userID, limit
			return []*model.Interview{{ID: "iv-9"}}, nil
		},
	}
	h := NewInterviewHandler(svc, &mockFeedbackCreator{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/interviews/latest?limit=5", nil), testUser)
	w := httptest.NewRecorder()
	h.ListLatest(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotLimit != 5 || gotUser != "user-1" {
		t.Errorf("limit = %d, user = %q", gotLimit, gotUser)
	}
	var body interviewListResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || len(body.Interviews) != 1 {
		t.Errorf("body = %+v, err = %v", body, err)
	}
}

func TestInterviewHandler_ListLatest_InvalidLimit(t *testing.T) {
	h := NewInterviewHandler(&mockInterviewService{}, &mockFeedbackCreator{})

	for _, q := range []string{"abc", "-1"} {
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/interviews/latest?limit="+q, nil), testUser)
		w := httptest.NewRecorder()
		h.ListLatest(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestInterviewHandler_ListMine_EmptyIsArray(t *testing.T) {
	h := NewInterviewHandler(&mockInterviewService{}, &mockFeedbackCreator{})

	w := httptest.NewRecorder()
	h.ListMine(w, withUser(httptest.NewRequest(http.MethodGet, "/api/interviews", nil), testUser))

	if !strings.Contains(w.Body.String(), `"interviews":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestInterviewHandler_RequiresUser(t *testing.T) {
	h := NewInterviewHandler(&mockInterviewService{}, &mockFeedbackCreator{})

	w := httptest.NewRecorder()
	h.ListMine(w, httptest.NewRequest(http.MethodGet, "/api/interviews", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestInterviewHandler_GetInterview(t *testing.T) {
	h := NewInterviewHandler(&mockInterviewService{getInterviewFn: knownInterview}, &mockFeedbackCreator{})

	w := httptest.NewRecorder()
	h.GetInterview(w, withURLParam(httptest.NewRequest(http.MethodGet, "/api/interviews/iv-1", nil), "id", "iv-1"))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	h.GetInterview(w, withURLParam(httptest.NewRequest(http.MethodGet, "/api/interviews/nope", nil), "id", "nope"))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if body := decodeError(t, w); body.Code != model.ErrCodeInterviewNotFound {
		t.Errorf("code = %q", body.Code)
	}
}

func TestInterviewHandler_GetInterview_ServiceError(t *testing.T) {
	svc := &mockInterviewService{
		getInterviewFn: func(ctx context.Context, id string) (*model.Interview, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewInterviewHandler(svc, &mockFeedbackCreator{})

	w := httptest.NewRecorder()
	h.GetInterview(w, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "iv-1"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if body := decodeError(t, w); strings.Contains(body.Message, "connection refused") {
		t.Error("internal error details must not leak")
	}
}

func TestInterviewHandler_GetFeedback(t *testing.T) {
	svc := &mockInterviewService{
		getFeedbackFn: func(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
			if interviewID == "iv-1" && userID == "user-1" {
				return &model.Feedback{ID: "fb-1", TotalScore: 70}, nil
			}
			return nil, nil
		},
	}
	h := NewInterviewHandler(svc, &mockFeedbackCreator{})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "iv-1")
	w := httptest.NewRecorder()
	h.GetFeedback(w, withUser(req, testUser))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"fb-1"`) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "iv-2")
	w = httptest.NewRecorder()
	h.GetFeedback(w, withUser(req, testUser))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// レスポンスのキーはリクエストと同じcamelCaseで揃える。
func TestInterviewHandler_GetFeedback_CamelCaseKeys(t *testing.T) {
	svc := &mockInterviewService{
		getFeedbackFn: func(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
			return &model.Feedback{
				ID:                  "fb-1",
				InterviewID:         interviewID,
				UserID:              userID,
				TotalScore:          70,
				CategoryScores:      []model.CategoryScore{{Name: model.CategoryCommunication, Score: 70}},
				AreasForImprovement: []string{"depth"},
				FinalAssessment:     "ok",
			}, nil
		},
	}
	h := NewInterviewHandler(svc, &mockFeedbackCreator{})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "iv-1")
	w := httptest.NewRecorder()
	h.GetFeedback(w, withUser(req, testUser))

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	for _, key := range []string{"interviewId", "userId", "totalScore", "categoryScores", "areasForImprovement", "finalAssessment", "createdAt"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response is missing key %q: %s", key, w.Body.String())
		}
	}
	for key := range body {
		if strings.Contains(key, "_") {
			t.Errorf("response key %q is not camelCase", key)
		}
	}
}

func TestInterviewHandler_CreateFeedback(t *testing.T) {
	var got feedback.CreateParams
	creator := &mockFeedbackCreator{
		createFn: func(ctx context.Context, p feedback.CreateParams) feedback.Result {
			got = p
			return feedback.Result{Success: true, FeedbackID: "fb-new"}
		},
	}
	h := NewInterviewHandler(&mockInterviewService{getInterviewFn: knownInterview}, creator)

	body := `{"transcript":[{"role":"interviewer","content":"Tell me about yourself"},{"role":"candidate","content":"I am a backend engineer..."}]}`
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "id", "iv-1")
	w := httptest.NewRecorder()
	h.CreateFeedback(w, withUser(req, testUser))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res map[string]any
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["success"] != true || res["feedbackId"] != "fb-new" {
		t.Errorf("result = %v", res)
	}
	if _, leaked := res["Kind"]; leaked {
		t.Error("failure kind must not be exposed")
	}
	if got.InterviewID != "iv-1" || got.UserID != "user-1" || len(got.Transcript) != 2 || got.FeedbackID != "" {
		t.Errorf("params = %+v", got)
	}
}

func TestInterviewHandler_CreateFeedback_Failure(t *testing.T) {
	creator := &mockFeedbackCreator{
		createFn: func(ctx context.Context, p feedback.CreateParams) feedback.Result {
			return feedback.Result{Kind: model.KindStorage}
		},
	}
	h := NewInterviewHandler(&mockInterviewService{getInterviewFn: knownInterview}, creator)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"transcript":[]}`)), "id", "iv-1")
	w := httptest.NewRecorder()
	h.CreateFeedback(w, withUser(req, testUser))

	if strings.TrimSpace(w.Body.String()) != `{"success":false}` {
		t.Errorf("body = %s, want only the success flag", w.Body.String())
	}
}

func TestInterviewHandler_CreateFeedback_UnknownInterview(t *testing.T) {
	creator := &mockFeedbackCreator{}
	h := NewInterviewHandler(&mockInterviewService{getInterviewFn: knownInterview}, creator)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"transcript":[]}`)), "id", "ghost")
	w := httptest.NewRecorder()
	h.CreateFeedback(w, withUser(req, testUser))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if creator.calls != 0 {
		t.Error("generation must not run for unknown interview")
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewUnauthorizedError(), http.StatusUnauthorized},
		{model.NewInvalidRequestError("x"), http.StatusBadRequest},
		{model.NewInterviewNotFoundError("x"), http.StatusNotFound},
		{model.NewFeedbackNotFoundError("x"), http.StatusNotFound},
		{model.NewUserNotFoundError(), http.StatusNotFound},
		{model.NewGenerationFailedError(model.KindModel), http.StatusBadGateway},
		{model.NewCSRFError(), http.StatusForbidden},
		{model.NewRateLimitError(), http.StatusTooManyRequests},
		{&model.APIError{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}
