package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	drepo "club-notification-service/ddd/domain/repo"
	"club-notification-service/pkg/errno"
)

type userDirectory struct {
	coll *mongo.Collection
}

// NewUserDirectory reads addresses from db.users, whose ids may be ObjectIDs
// or plain strings.
func NewUserDirectory(db *mongo.Database) drepo.UserDirectory {
	return &userDirectory{coll: db.Collection("users")}
}

func userIDFilter(userID string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, userID}}}
	}
	return bson.M{"_id": userID}
}

func (d *userDirectory) EmailOf(ctx context.Context, userID string) (string, error) {
	var doc struct {
		Email string `bson:"email"`
	}
	opts := options.FindOne().SetProjection(bson.M{"email": 1})
	err := d.coll.FindOne(ctx, userIDFilter(userID), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", errno.NewSimpleBizError(errno.ErrNotFound, err, "user "+userID)
		}
		return "", errno.NewSimpleBizError(errno.ErrDatabase, err, "lookup user email")
	}
	if doc.Email == "" {
		return "", errno.NewSimpleBizError(errno.ErrNotFound, nil, "email of user "+userID)
	}
	return doc.Email, nil
}
