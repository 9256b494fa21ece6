package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

const credentialCollection = "auth_users"

// CredentialRecord is a locally stored identity, used only by the local
// identity driver in development and tests.
type CredentialRecord struct {
	ID             string
	Email          string
	PasswordHash   string
	EmailConfirmed bool
	Metadata       map[string]any
	CreatedAt      time.Time
}

type MongoCredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *MongoCredentialRepository {
	return &MongoCredentialRepository{coll: db.Collection(credentialCollection)}
}

type mongoCredential struct {
	ID             string         `bson:"_id"`
	Email          string         `bson:"email"`
	PasswordHash   string         `bson:"password_hash"`
	EmailConfirmed bool           `bson:"email_confirmed"`
	Metadata       map[string]any `bson:"metadata,omitempty"`
	CreatedAt      int64          `bson:"created_at"`
}

func (r *MongoCredentialRepository) FindByEmail(ctx context.Context, email string) (*CredentialRecord, error) {
	var mc mongoCredential
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return fromMongoCredential(&mc), nil
}

func (r *MongoCredentialRepository) FindByID(ctx context.Context, id string) (*CredentialRecord, error) {
	var mc mongoCredential
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return fromMongoCredential(&mc), nil
}

func (r *MongoCredentialRepository) Create(ctx context.Context, rec *CredentialRecord) (*CredentialRecord, error) {
	doc := mongoCredential{
		ID:             rec.ID,
		Email:          rec.Email,
		PasswordHash:   rec.PasswordHash,
		EmailConfirmed: rec.EmailConfirmed,
		Metadata:       rec.Metadata,
		CreatedAt:      rec.CreatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert credential: %w", err)
	}
	return rec, nil
}

func (r *MongoCredentialRepository) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	set := bson.M{}
	for k, v := range metadata {
		set["metadata."+k] = v
	}

	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("update credential metadata: %w", err)
	}
	return nil
}

func fromMongoCredential(mc *mongoCredential) *CredentialRecord {
	return &CredentialRecord{
		ID:             mc.ID,
		Email:          mc.Email,
		PasswordHash:   mc.PasswordHash,
		EmailConfirmed: mc.EmailConfirmed,
		Metadata:       mc.Metadata,
		CreatedAt:      unixToTime(mc.CreatedAt),
	}
}
