package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/feedback"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// InterviewServiceInterface は面接ハンドラーが必要とする参照系サービスインターフェース。
type InterviewServiceInterface interface {
	GetInterview(ctx context.Context, id string) (*model.Interview, error)
	ListLatest(ctx context.Context, userID string, limit int) ([]*model.Interview, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Interview, error)
	GetFeedback(ctx context.Context, interviewID, userID string) (*model.Feedback, error)
}

// FeedbackCreator はフィードバック生成のサービスインターフェース。
type FeedbackCreator interface {
	CreateFeedback(ctx context.Context, p feedback.CreateParams) feedback.Result
}

// InterviewHandler は面接とフィードバックのHTTPハンドラー。
type InterviewHandler struct {
	interviews InterviewServiceInterface
	creator    FeedbackCreator
}

// NewInterviewHandler はInterviewHandlerを生成する。
func NewInterviewHandler(interviews InterviewServiceInterface, creator FeedbackCreator) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, creator: creator}
}

type interviewListResponse struct {
	Interviews []*model.Interview `json:"interviews"`
}

type createFeedbackRequest struct {
	Transcript []model.TranscriptTurn `json:"transcript"`
	FeedbackID string                 `json:"feedbackId,omitempty"`
}

func listResponse(ivs []*model.Interview) interviewListResponse {
	if ivs == nil {
		ivs = []*model.Interview{}
	}
	return interviewListResponse{Interviews: ivs}
}

// ListMine は現在のユーザーの面接を新しい順に返す。
// GET /api/interviews
func (h *InterviewHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	ivs, err := h.interviews.ListForUser(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(ivs))
}

// ListLatest は他ユーザーの確定済み面接を新しい順に返す。
// GET /api/interviews/latest?limit=20
func (h *InterviewHandler) ListLatest(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handleServiceError(w, model.NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	ivs, err := h.interviews.ListLatest(r.Context(), user.ID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(ivs))
}

// GetInterview は面接を返す。
// GET /api/interviews/{id}
func (h *InterviewHandler) GetInterview(w http.ResponseWriter, r *http.Request) {
	iv, ok := h.loadInterview(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

// GetFeedback は現在のユーザーのフィードバックを返す。
// GET /api/interviews/{id}/feedback
func (h *InterviewHandler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	interviewID := chi.URLParam(r, "id")
	fb, err := h.interviews.GetFeedback(r.Context(), interviewID, user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if fb == nil {
		handleServiceError(w, model.NewFeedbackNotFoundError(interviewID))
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// CreateFeedback は面接記録からフィードバックを生成する。
// 生成結果は成否にかかわらず{success, feedbackId}で返す。
// POST /api/interviews/{id}/feedback
func (h *InterviewHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req createFeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("malformed JSON body"))
		return
	}

	iv, ok := h.loadInterview(w, r)
	if !ok {
		return
	}

	res := h.creator.CreateFeedback(r.Context(), feedback.CreateParams{
		InterviewID: iv.ID,
		UserID:      user.ID,
		Transcript:  req.Transcript,
		FeedbackID:  req.FeedbackID,
	})
	if !res.Success {
		slog.Warn("feedback request failed",
			slog.String("interview_id", iv.ID),
			slog.String("kind", string(res.Kind)),
		)
	}
	writeJSON(w, http.StatusOK, res)
}

// loadInterview はURLの{id}の面接を取得する。見つからない場合は404を書き込む。
func (h *InterviewHandler) loadInterview(w http.ResponseWriter, r *http.Request) (*model.Interview, bool) {
	id := chi.URLParam(r, "id")
	iv, err := h.interviews.GetInterview(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	if iv == nil {
		handleServiceError(w, model.NewInterviewNotFoundError(id))
		return nil, false
	}
	return iv, true
}
