// internal/database/user_repository.go
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
)

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID             string    `bson:"_id"`            // MongoDB primary key
	Username       string    `bson:"username"`       // Display name
	Email          string    `bson:"email"`          // Unique, lowercased
	HashedPassword string    `bson:"hashedPassword"` // bcrypt hash
	Avatar         string    `bson:"avatar"`         // Avatar URL or path
	CreatedAt      time.Time `bson:"createdAt"`      // Account creation timestamp
	UpdatedAt      time.Time `bson:"updatedAt"`
}

// CreateUser inserts a new user. The unique email index makes a concurrent
// duplicate registration fail here even if the caller's pre-check passed.
func (m *MongoDB) CreateUser(ctx context.Context, user *models.User) error {
	doc := UserDocument{
		ID:             user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		Avatar:         user.Avatar,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}

	if _, err := m.Users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrDuplicate, "Email already registered", nil)
		}
		return utils.NewDatabaseError("failed to create user", err)
	}
	return nil
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()})
}

// GetUserByEmail retrieves a user from MongoDB by their email address
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

// UpdateUser applies a partial profile update and returns the stored result.
func (m *MongoDB) UpdateUser(ctx context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc UserDocument
	err := m.Users.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to update user", err)
	}
	return userDocumentToModel(&doc)
}

// EnsureUserIndexes creates the unique email index
func (m *MongoDB) EnsureUserIndexes(ctx context.Context) error {
	_, err := m.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return utils.NewDatabaseError("failed to create user email index", err)
	}
	return nil
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get user", err)
	}
	return userDocumentToModel(&doc)
}

func userDocumentToModel(doc *UserDocument) (*models.User, error) {
	userID, err := parseID(doc.ID, "user")
	if err != nil {
		return nil, utils.NewDatabaseError("corrupt user document", err)
	}

	return &models.User{
		ID:             userID,
		Username:       doc.Username,
		Email:          doc.Email,
		HashedPassword: doc.HashedPassword,
		Avatar:         doc.Avatar,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}
