package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/repository"
)

// OpenMongo はMongoDBクライアントを生成し、指定データベースを返す。
// mongo.Connectは接続を試行しないため、接続確認にはPingを使用すること。
func OpenMongo(uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect mongo: %w", err)
	}
	return client, client.Database(dbName), nil
}

// EnsureIndexes はアプリケーションが前提とするインデックスを作成する。
// 既に存在する場合は何もしない。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(repository.CollectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users.email index: %w", err)
	}

	_, err = db.Collection(repository.CollectionFeedback).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "interviewId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create feedback.interviewId_userId index: %w", err)
	}

	_, err = db.Collection(repository.CollectionInterviews).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "finalized", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create interviews indexes: %w", err)
	}

	return nil
}
