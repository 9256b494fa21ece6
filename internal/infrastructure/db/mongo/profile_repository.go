package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

const profileCollection = "user_profiles"

type MongoProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *MongoProfileRepository {
	return &MongoProfileRepository{coll: db.Collection(profileCollection)}
}

type mongoProfile struct {
	UserID         string `bson:"user_id"`
	Role           string `bson:"role"`
	ApprovalStatus string `bson:"approval_status"`
	CompanyName    string `bson:"company_name,omitempty"`
	ContactPerson  string `bson:"contact_person,omitempty"`
	Phone          string `bson:"phone,omitempty"`
	CreatedAt      int64  `bson:"created_at"`
}

func (r *MongoProfileRepository) FindByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var mp mongoProfile
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&mp); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}

	// Unknown stored values decode to zero enums, which every policy
	// check treats as deny.
	role, _ := domain.ParseRole(mp.Role)
	status, _ := domain.ParseApprovalStatus(mp.ApprovalStatus)

	return &domain.UserProfile{
		UserID:         mp.UserID,
		Role:           role,
		ApprovalStatus: status,
		CompanyName:    mp.CompanyName,
		ContactPerson:  mp.ContactPerson,
		Phone:          mp.Phone,
		CreatedAt:      unixToTime(mp.CreatedAt),
	}, nil
}

func (r *MongoProfileRepository) Create(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	doc := mongoProfile{
		UserID:         profile.UserID,
		Role:           string(profile.Role),
		ApprovalStatus: string(profile.ApprovalStatus),
		CompanyName:    profile.CompanyName,
		ContactPerson:  profile.ContactPerson,
		Phone:          profile.Phone,
		CreatedAt:      profile.CreatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return r.FindByUserID(ctx, profile.UserID)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
