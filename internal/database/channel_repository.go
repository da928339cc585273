package database

import (
	"context"
	"errors"
	"time"
	"vidshare/internal/models"
	"vidshare/internal/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ChannelDocument represents the MongoDB document structure for channels
type ChannelDocument struct {
	ID          string    `bson:"_id"`
	Owner       string    `bson:"owner"`
	Name        string    `bson:"name"`
	Handle      string    `bson:"handle"`
	Avatar      string    `bson:"avatar"`
	Description string    `bson:"description"`
	Subscribers int       `bson:"subscribers"`
	Videos      []string  `bson:"videos"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// CreateChannel creates a new channel in MongoDB
func (m *MongoDB) CreateChannel(ctx context.Context, channel *models.Channel) error {
	doc := ChannelDocument{
		ID:          channel.ID.String(),
		Owner:       channel.Owner.String(),
		Name:        channel.Name,
		Handle:      channel.Handle,
		Avatar:      channel.Avatar,
		Description: channel.Description,
		Subscribers: channel.Subscribers,
		Videos:      idsToStrings(channel.Videos),
		CreatedAt:   channel.CreatedAt,
	}

	_, err := m.Channels.InsertOne(ctx, doc)
	if err != nil {
		switch {
		case duplicateKeyOn(err, "handle"):
			return utils.NewAppError(utils.ErrHandleTaken, "Handle already taken", nil)
		case duplicateKeyOn(err, "owner"):
			return utils.NewAppError(utils.ErrChannelExists, "User already owns a channel", nil)
		}
		return utils.NewDatabaseError("failed to create channel", err)
	}

	return nil
}

// GetChannel retrieves a channel by its ID
func (m *MongoDB) GetChannel(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	return m.findChannel(ctx, bson.M{"_id": id.String()})
}

// GetChannelByOwner retrieves the channel owned by a user
func (m *MongoDB) GetChannelByOwner(ctx context.Context, owner uuid.UUID) (*models.Channel, error) {
	return m.findChannel(ctx, bson.M{"owner": owner.String()})
}

// GetChannelByHandle retrieves a channel by its canonical handle
func (m *MongoDB) GetChannelByHandle(ctx context.Context, handle string) (*models.Channel, error) {
	return m.findChannel(ctx, bson.M{"handle": models.CanonicalHandle(handle)})
}

// UpdateChannel sets only the supplied fields and returns the updated channel.
func (m *MongoDB) UpdateChannel(ctx context.Context, id uuid.UUID, update models.ChannelUpdate) (*models.Channel, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Handle != nil {
		set["handle"] = models.CanonicalHandle(*update.Handle)
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}
	if len(set) == 0 {
		return m.GetChannel(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc ChannelDocument
	err := m.Channels.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrChannelNotFound, "Channel not found", nil)
	}
	if err != nil {
		if duplicateKeyOn(err, "handle") {
			return nil, utils.NewAppError(utils.ErrHandleTaken, "Handle already taken", nil)
		}
		return nil, utils.NewDatabaseError("failed to update channel", err)
	}
	return channelDocumentToModel(&doc)
}

// AddChannelVideo appends a video ID to the channel's video list
func (m *MongoDB) AddChannelVideo(ctx context.Context, channelID, videoID uuid.UUID) error {
	result, err := m.Channels.UpdateOne(ctx,
		bson.M{"_id": channelID.String()},
		bson.M{"$push": bson.M{"videos": videoID.String()}},
	)
	if err != nil {
		return utils.NewDatabaseError("failed to update channel videos", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrChannelNotFound, "Channel not found", nil)
	}
	return nil
}

// DeleteChannelVideo removes a video from its channel and deletes the video
// document. With transactions enabled both writes commit or neither does.
// Without them the unlink runs first; if the delete then fails the channel
// no longer lists the video but the document survives, reported as
// utils.ErrPartialFailure.
func (m *MongoDB) DeleteChannelVideo(ctx context.Context, channelID, videoID uuid.UUID) error {
	if m.useTransactions {
		return m.deleteChannelVideoTx(ctx, channelID, videoID)
	}

	if err := m.verifyVideoInChannel(ctx, channelID, videoID); err != nil {
		return err
	}
	if err := m.pullChannelVideo(ctx, channelID, videoID); err != nil {
		return err
	}
	if err := m.deleteVideoInChannel(ctx, channelID, videoID); err != nil {
		// A concurrent delete already removed the document.
		if utils.IsErrorCode(err, utils.ErrVideoNotFound) {
			return err
		}
		m.log.Error("video unlinked from channel but not deleted",
			zap.String("channelId", channelID.String()),
			zap.String("videoId", videoID.String()),
			zap.Error(err))
		return utils.NewAppError(utils.ErrPartialFailure, "Video unlinked but not deleted", err)
	}
	return nil
}

func (m *MongoDB) deleteChannelVideoTx(ctx context.Context, channelID, videoID uuid.UUID) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return utils.NewDatabaseError("failed to start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := m.pullChannelVideo(sc, channelID, videoID); err != nil {
			return nil, err
		}
		return nil, m.deleteVideoInChannel(sc, channelID, videoID)
	})
	if err != nil {
		if _, ok := utils.AsAppError(err); ok {
			return err
		}
		return utils.NewDatabaseError("failed to delete channel video", err)
	}
	return nil
}

func (m *MongoDB) verifyVideoInChannel(ctx context.Context, channelID, videoID uuid.UUID) error {
	err := m.Videos.FindOne(ctx, bson.M{"_id": videoID.String(), "channelId": channelID.String()},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NewAppError(utils.ErrVideoNotFound, "Video not found", nil)
	}
	if err != nil {
		return utils.NewDatabaseError("failed to verify video", err)
	}
	return nil
}

func (m *MongoDB) pullChannelVideo(ctx context.Context, channelID, videoID uuid.UUID) error {
	result, err := m.Channels.UpdateOne(ctx,
		bson.M{"_id": channelID.String()},
		bson.M{"$pull": bson.M{"videos": videoID.String()}},
	)
	if err != nil {
		return utils.NewDatabaseError("failed to unlink video", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrChannelNotFound, "Channel not found", nil)
	}
	return nil
}

func (m *MongoDB) deleteVideoInChannel(ctx context.Context, channelID, videoID uuid.UUID) error {
	result, err := m.Videos.DeleteOne(ctx, bson.M{"_id": videoID.String(), "channelId": channelID.String()})
	if err != nil {
		return utils.NewDatabaseError("failed to delete video", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrVideoNotFound, "Video not found", nil)
	}
	return nil
}

// EnsureChannelIndexes creates the unique owner and handle indexes
func (m *MongoDB) EnsureChannelIndexes(ctx context.Context) error {
	_, err := m.Channels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "handle", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return utils.NewDatabaseError("failed to create channel indexes", err)
	}
	return nil
}

func (m *MongoDB) findChannel(ctx context.Context, filter bson.M) (*models.Channel, error) {
	var doc ChannelDocument
	err := m.Channels.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrChannelNotFound, "Channel not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get channel", err)
	}
	return channelDocumentToModel(&doc)
}

func channelDocumentToModel(doc *ChannelDocument) (*models.Channel, error) {
	id, err := parseID(doc.ID, "channel")
	if err != nil {
		return nil, utils.NewDatabaseError("corrupt channel document", err)
	}
	owner, err := parseID(doc.Owner, "owner")
	if err != nil {
		return nil, utils.NewDatabaseError("corrupt channel document", err)
	}

	// Convert video IDs from strings to UUIDs
	videos := make([]uuid.UUID, 0, len(doc.Videos))
	for _, raw := range doc.Videos {
		videoID, err := parseID(raw, "video")
		if err != nil {
			return nil, utils.NewDatabaseError("corrupt channel document", err)
		}
		videos = append(videos, videoID)
	}

	return &models.Channel{
		ID:          id,
		Owner:       owner,
		Name:        doc.Name,
		Handle:      doc.Handle,
		Avatar:      doc.Avatar,
		Description: doc.Description,
		Subscribers: doc.Subscribers,
		Videos:      videos,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func idsToStrings(ids []uuid.UUID) []string {
	return lo.Map(ids, func(id uuid.UUID, _ int) string {
		return id.String()
	})
}
