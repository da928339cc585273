// internal/database/video_repository.go
package database

import (
	"context"
	"errors"
	"regexp"
	"time"
	"vidshare/internal/models"
	"vidshare/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VideoDocument represents the MongoDB schema for a video.
type VideoDocument struct {
	ID           string    `bson:"_id"`
	Title        string    `bson:"title"`
	Description  string    `bson:"description"`
	Category     string    `bson:"category"`
	URL          string    `bson:"url"`
	ThumbnailURL string    `bson:"thumbnailUrl"`
	Likes        int       `bson:"likes"`
	Dislikes     int       `bson:"dislikes"`
	ChannelID    string    `bson:"channelId"`
	UploadedBy   string    `bson:"uploadedBy"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// CreateVideo inserts a new video document.
func (m *MongoDB) CreateVideo(ctx context.Context, video *models.Video) error {
	doc := VideoDocument{
		ID:           video.ID.String(),
		Title:        video.Title,
		Description:  video.Description,
		Category:     video.Category,
		URL:          video.URL,
		ThumbnailURL: video.ThumbnailURL,
		Likes:        video.Likes,
		Dislikes:     video.Dislikes,
		ChannelID:    video.ChannelID.String(),
		UploadedBy:   video.UploadedBy.String(),
		CreatedAt:    video.CreatedAt,
	}

	if _, err := m.Videos.InsertOne(ctx, doc); err != nil {
		return utils.NewDatabaseError("failed to create video", err)
	}
	return nil
}

// GetVideo retrieves a video by ID.
func (m *MongoDB) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var doc VideoDocument
	err := m.Videos.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrVideoNotFound, "Video not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get video", err)
	}
	return videoDocumentToModel(&doc)
}

// ListVideos returns videos matching the filter, newest first.
func (m *MongoDB) ListVideos(ctx context.Context, filter models.VideoFilter) ([]*models.Video, error) {
	query := bson.M{}
	if filter.TitleContains != "" {
		query["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.TitleContains), Options: "i"}
	}
	if filter.Category != "" {
		query["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.Category) + "$", Options: "i"}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	return m.findVideos(ctx, query, opts)
}

// ListChannelVideos returns every video whose channelId points at the channel.
func (m *MongoDB) ListChannelVideos(ctx context.Context, channelID uuid.UUID) ([]*models.Video, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return m.findVideos(ctx, bson.M{"channelId": channelID.String()}, opts)
}

// IncrementVideoReaction bumps likes or dislikes with $inc so concurrent
// callers never lose an update.
func (m *MongoDB) IncrementVideoReaction(ctx context.Context, id uuid.UUID, field models.ReactionField) (*models.Video, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc VideoDocument
	err := m.Videos.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{string(field): 1}},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrVideoNotFound, "Video not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to update video reaction", err)
	}
	return videoDocumentToModel(&doc)
}

// UpdateVideoDetails sets title and/or description.
func (m *MongoDB) UpdateVideoDetails(ctx context.Context, id uuid.UUID, title, description *string) (*models.Video, error) {
	set := bson.M{}
	if title != nil {
		set["title"] = *title
	}
	if description != nil {
		set["description"] = *description
	}
	if len(set) == 0 {
		return m.GetVideo(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc VideoDocument
	err := m.Videos.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrVideoNotFound, "Video not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to update video", err)
	}
	return videoDocumentToModel(&doc)
}

// DeleteVideo removes a video document. Used to compensate a failed upload.
func (m *MongoDB) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	result, err := m.Videos.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return utils.NewDatabaseError("failed to delete video", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrVideoNotFound, "Video not found", nil)
	}
	return nil
}

// EnsureVideoIndexes creates lookup indexes for channel pages and listings.
func (m *MongoDB) EnsureVideoIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "channelId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	if _, err := m.Videos.Indexes().CreateMany(ctx, indexes); err != nil {
		return utils.NewDatabaseError("failed to create video indexes", err)
	}
	return nil
}

func (m *MongoDB) findVideos(ctx context.Context, query bson.M, opts *options.FindOptions) ([]*models.Video, error) {
	cursor, err := m.Videos.Find(ctx, query, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to list videos", err)
	}
	defer cursor.Close(ctx)

	videos := make([]*models.Video, 0)
	for cursor.Next(ctx) {
		var doc VideoDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewDatabaseError("failed to decode video", err)
		}
		video, err := videoDocumentToModel(&doc)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("cursor error", err)
	}

	return videos, nil
}

func videoDocumentToModel(doc *VideoDocument) (*models.Video, error) {
	id, err := parseID(doc.ID, "video")
	if err != nil {
		return nil, utils.NewDatabaseError("corrupt video document", err)
	}
	channelID, err := parseID(doc.ChannelID, "channel")
	if err != nil {
		return nil, utils.NewDatabaseError("corrupt video document", err)
	}
	uploadedBy, err := parseID(doc.UploadedBy, "uploader")
	if err != nil {
		return nil, utils.NewDatabaseError("corrupt video document", err)
	}

	return &models.Video{
		ID:           id,
		Title:        doc.Title,
		Description:  doc.Description,
		Category:     doc.Category,
		URL:          doc.URL,
		ThumbnailURL: doc.ThumbnailURL,
		Likes:        doc.Likes,
		Dislikes:     doc.Dislikes,
		ChannelID:    channelID,
		UploadedBy:   uploadedBy,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
