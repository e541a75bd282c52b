package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// MongoDBのコレクション名
const (
	CollectionUsers      = "users"
	CollectionInterviews = "interviews"
	CollectionFeedback   = "feedback"
)

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(CollectionUsers)}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// 重複キーエラーの場合は_idの存在有無でAlreadyExistsとEmailInUseを区別する。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	existing, findErr := r.FindByID(ctx, user.ID)
	if findErr != nil {
		return findErr
	}
	if existing != nil {
		return model.ErrUserAlreadyExists
	}
	return model.ErrEmailInUse
}

// MongoInterviewRepo はMongoDBを使用した面接リポジトリ。
type MongoInterviewRepo struct {
	coll *mongo.Collection
}

// NewMongoInterviewRepo はMongoInterviewRepoを生成する。
func NewMongoInterviewRepo(db *mongo.Database) *MongoInterviewRepo {
	return &MongoInterviewRepo{coll: db.Collection(CollectionInterviews)}
}

// FindByID は指定IDの面接を取得する。見つからない場合はnilを返す。
func (r *MongoInterviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	iv := &model.Interview{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(iv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find interview by ID: %w", err)
	}
	return iv, nil
}

// ListFinalizedExcludingUser は指定ユーザー以外の確定済み面接をcreatedAt降順で返す。
func (r *MongoInterviewRepo) ListFinalizedExcludingUser(ctx context.Context, userID string, limit int) ([]*model.Interview, error) {
	filter := bson.M{
		"finalized": true,
		"userId":    bson.M{"$ne": userID},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(NormalizeLimit(limit)))
	return r.find(ctx, filter, opts)
}

// ListByUserID は指定ユーザーの面接をcreatedAt降順で返す。
func (r *MongoInterviewRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Interview, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *MongoInterviewRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]*model.Interview, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query interviews: %w", err)
	}
	interviews := []*model.Interview{}
	if err := cursor.All(ctx, &interviews); err != nil {
		return nil, fmt.Errorf("failed to decode interviews: %w", err)
	}
	return interviews, nil
}

// MongoFeedbackRepo はMongoDBを使用したフィードバックリポジトリ。
type MongoFeedbackRepo struct {
	coll *mongo.Collection
}

// NewMongoFeedbackRepo はMongoFeedbackRepoを生成する。
func NewMongoFeedbackRepo(db *mongo.Database) *MongoFeedbackRepo {
	return &MongoFeedbackRepo{coll: db.Collection(CollectionFeedback)}
}

// FindByInterviewAndUser は面接IDとユーザーIDで最新のフィードバックを取得する。見つからない場合はnilを返す。
func (r *MongoFeedbackRepo) FindByInterviewAndUser(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
	fb := &model.Feedback{}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.coll.FindOne(ctx, bson.M{"interviewId": interviewID, "userId": userID}, opts).Decode(fb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	return fb, nil
}

// Upsert はフィードバックを保存し、保存先のIDを返す。
// existingIDは同じ(interviewId, userId)の文書を指す場合のみ上書き先として使う。
// 一致しない場合は(interviewId, userId)で検索し、存在しなければ$setOnInsertで新規IDを割り当てる。
func (r *MongoFeedbackRepo) Upsert(ctx context.Context, fb *model.Feedback, existingID string) (string, error) {
	fields := bson.M{
		"totalScore":          fb.TotalScore,
		"categoryScores":      fb.CategoryScores,
		"strengths":           fb.Strengths,
		"areasForImprovement": fb.AreasForImprovement,
		"finalAssessment":     fb.FinalAssessment,
		"createdAt":           fb.CreatedAt,
	}
	pair := bson.M{"interviewId": fb.InterviewID, "userId": fb.UserID}

	var stored struct {
		ID string `bson:"_id"`
	}

	if existingID != "" {
		filter := bson.M{"_id": existingID, "interviewId": fb.InterviewID, "userId": fb.UserID}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields}, opts).Decode(&stored)
		if err == nil {
			return stored.ID, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("failed to update feedback: %w", err)
		}
	}

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"_id": uuid.New().String()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	if err := r.coll.FindOneAndUpdate(ctx, pair, update, opts).Decode(&stored); err != nil {
		return "", fmt.Errorf("failed to upsert feedback: %w", err)
	}
	return stored.ID, nil
}

// compile-time interface check
var (
	_ UserRepository      = (*MongoUserRepo)(nil)
	_ InterviewRepository = (*MongoInterviewRepo)(nil)
	_ FeedbackRepository  = (*MongoFeedbackRepo)(nil)
)
