package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// MemoryStore はインメモリのリポジトリ実装。開発環境とテストで使用する。
// 3つのリポジトリインターフェースをまとめて実装する。
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]*model.User
	interviews map[string]*model.Interview
	feedback   map[string]*model.Feedback
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*model.User),
		interviews: make(map[string]*model.Interview),
		feedback:   make(map[string]*model.Feedback),
	}
}

var (
	_ UserRepository      = (*MemoryStore)(nil)
	_ FeedbackRepository  = (*MemoryStore)(nil)
	_ InterviewRepository = memoryInterviews{}
)

// --- UserRepository ---

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// Create はユーザーを作成する。
func (s *MemoryStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return model.ErrUserAlreadyExists
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.ErrEmailInUse
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// UserCount は保存済みユーザー数を返す。
func (s *MemoryStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// --- InterviewRepository ---

// Interviews はInterviewRepositoryとしてのビューを返す。
// FindByIDがUserRepositoryと衝突するため、面接の参照はこのビュー経由で行う。
func (s *MemoryStore) Interviews() InterviewRepository {
	return memoryInterviews{s}
}

// AddInterview は面接を登録する。面接の作成は外部で行われるため、開発用のシードとテストで使用する。
func (s *MemoryStore) AddInterview(iv *model.Interview) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *iv
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	s.interviews[cp.ID] = &cp
}

type memoryInterviews struct {
	s *MemoryStore
}

func (m memoryInterviews) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	iv, ok := m.s.interviews[id]
	if !ok {
		return nil, nil
	}
	cp := *iv
	return &cp, nil
}

func (m memoryInterviews) ListFinalizedExcludingUser(ctx context.Context, userID string, limit int) ([]*model.Interview, error) {
	res := m.s.selectInterviews(func(iv *model.Interview) bool {
		return iv.Finalized && iv.UserID != userID
	})
	if n := NormalizeLimit(limit); len(res) > n {
		res = res[:n]
	}
	return res, nil
}

func (m memoryInterviews) ListByUserID(ctx context.Context, userID string) ([]*model.Interview, error) {
	return m.s.selectInterviews(func(iv *model.Interview) bool {
		return iv.UserID == userID
	}), nil
}

func (s *MemoryStore) selectInterviews(match func(*model.Interview) bool) []*model.Interview {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := []*model.Interview{}
	for _, iv := range s.interviews {
		if match(iv) {
			cp := *iv
			res = append(res, &cp)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res
}

// --- FeedbackRepository ---

// FindByInterviewAndUser は面接IDとユーザーIDでフィードバックを取得する。
// 複数存在する場合はcreated_atが最も新しいものを返す。
func (s *MemoryStore) FindByInterviewAndUser(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb := s.latestFeedbackFor(interviewID, userID)
	if fb == nil {
		return nil, nil
	}
	cp := *fb
	return &cp, nil
}

// Upsert はフィードバックを保存し、保存先のIDを返す。
// existingIDは同じ(面接, ユーザー)の文書を指す場合のみ上書き先として使い、
// それ以外はペア単位の上書きまたは新規作成とする。
func (s *MemoryStore) Upsert(ctx context.Context, fb *model.Feedback, existingID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	if cur, ok := s.feedback[existingID]; ok && cur.InterviewID == fb.InterviewID && cur.UserID == fb.UserID {
		id = existingID
	} else if cur := s.latestFeedbackFor(fb.InterviewID, fb.UserID); cur != nil {
		id = cur.ID
	} else {
		id = uuid.New().String()
	}

	cp := *fb
	cp.ID = id
	s.feedback[id] = &cp
	return id, nil
}

// latestFeedbackFor はペアに一致する最新のフィードバックを返す。呼び出し側でロックを保持すること。
func (s *MemoryStore) latestFeedbackFor(interviewID, userID string) *model.Feedback {
	var latest *model.Feedback
	for _, fb := range s.feedback {
		if fb.InterviewID != interviewID || fb.UserID != userID {
			continue
		}
		if latest == nil || fb.CreatedAt.After(latest.CreatedAt) ||
			(fb.CreatedAt.Equal(latest.CreatedAt) && fb.ID < latest.ID) {
			latest = fb
		}
	}
	return latest
}

// FeedbackCount は保存済みフィードバック数を返す。
func (s *MemoryStore) FeedbackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feedback)
}
