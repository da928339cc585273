package database

import (
	"context"
	"errors"
	"time"
	"vidshare/internal/models"
	"vidshare/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CommentDocument represents comment data in MongoDB
type CommentDocument struct {
	ID        string    `bson:"_id"`
	VideoID   string    `bson:"videoId"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

// CreateComment inserts a comment on a video
func (m *MongoDB) CreateComment(ctx context.Context, comment *models.Comment) error {
	doc := CommentDocument{
		ID:        comment.ID.String(),
		VideoID:   comment.VideoID.String(),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}

	if _, err := m.Comments.InsertOne(ctx, doc); err != nil {
		m.log.Error("failed to save comment", zap.String("commentId", doc.ID), zap.Error(err))
		return utils.NewDatabaseError("failed to save comment", err)
	}

	m.log.Debug("saved comment", zap.String("commentId", doc.ID), zap.String("videoId", doc.VideoID))
	return nil
}

// GetVideoComments retrieves all comments for a video, oldest first
func (m *MongoDB) GetVideoComments(ctx context.Context, videoID uuid.UUID) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Comments.Find(ctx, bson.M{"videoId": videoID.String()}, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get video comments", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*models.Comment, 0)
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewDatabaseError("failed to decode comment", err)
		}

		comment, err := convertCommentDocumentToModel(&doc)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("cursor error", err)
	}

	return comments, nil
}

// UpdateComment replaces a comment's content
func (m *MongoDB) UpdateComment(ctx context.Context, id uuid.UUID, content string) (*models.Comment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc CommentDocument
	err := m.Comments.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"content": content}},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to update comment", err)
	}
	return convertCommentDocumentToModel(&doc)
}

// DeleteComment removes a comment by ID
func (m *MongoDB) DeleteComment(ctx context.Context, id uuid.UUID) error {
	result, err := m.Comments.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return utils.NewDatabaseError("failed to delete comment", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// Helper function to convert CommentDocument to models.Comment
func convertCommentDocumentToModel(doc *CommentDocument) (*models.Comment, error) {
	id, err := parseID(doc.ID, "comment")
	if err != nil {
		return nil, utils.NewDatabaseError("corrupt comment document", err)
	}

	videoID, err := parseID(doc.VideoID, "video")
	if err != nil {
		return nil, utils.NewDatabaseError("corrupt comment document", err)
	}

	return &models.Comment{
		ID:        id,
		VideoID:   videoID,
		Content:   doc.Content,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// EnsureCommentIndexes creates required indexes for the comments collection
func (m *MongoDB) EnsureCommentIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "videoId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
	}

	if _, err := m.Comments.Indexes().CreateMany(ctx, indexes); err != nil {
		return utils.NewDatabaseError("failed to create comment indexes", err)
	}

	return nil
}
