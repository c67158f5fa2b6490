package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"club-notification-service/ddd/domain/entity"
	drepo "club-notification-service/ddd/domain/repo"
	"club-notification-service/pkg/errno"
)

const notificationsCollection = "notifications"

type notificationRepository struct {
	coll *mongo.Collection
}

// NewNotificationRepository stores notifications in db.notifications.
func NewNotificationRepository(db *mongo.Database) drepo.NotificationRepository {
	return &notificationRepository{coll: db.Collection(notificationsCollection)}
}

// EnsureIndexes creates the per-user listing index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(notificationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errno.NewSimpleBizError(errno.ErrNotFound, err, "notification")
	}
	return errno.NewSimpleBizError(errno.ErrDatabase, err, op)
}

func userFilter(userID string, isRead *bool) bson.M {
	f := bson.M{"user": userID}
	if isRead != nil {
		f["isRead"] = *isRead
	}
	return f
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	_, err := r.coll.InsertOne(ctx, fromEntity(n))
	return translate(err, "create notification")
}

func (r *notificationRepository) Get(ctx context.Context, id string) (*entity.Notification, error) {
	var doc notificationDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err, "get notification")
	}
	return doc.toEntity(), nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, filter drepo.ListFilter) ([]*entity.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.coll.Find(ctx, userFilter(userID, filter.IsRead), opts)
	if err != nil {
		return nil, translate(err, "list notifications")
	}
	defer cur.Close(ctx)

	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode notifications")
	}
	res := make([]*entity.Notification, 0, len(docs))
	for i := range docs {
		res = append(res, docs[i].toEntity())
	}
	return res, nil
}

func (r *notificationRepository) CountByUser(ctx context.Context, userID string, isRead *bool) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, userFilter(userID, isRead))
	return n, translate(err, "count notifications")
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (*entity.Notification, error) {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": at, "updatedAt": at}},
	)
	if err != nil {
		return nil, translate(err, "mark notification read")
	}
	return r.Get(ctx, id)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		userFilter(userID, boolPtr(false)),
		bson.M{"$set": bson.M{"isRead": true, "readAt": at, "updatedAt": at}},
	)
	if err != nil {
		return 0, translate(err, "mark all notifications read")
	}
	return res.ModifiedCount, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string) (*entity.Notification, error) {
	var doc notificationDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err, "delete notification")
	}
	return doc.toEntity(), nil
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user": userID})
	if err != nil {
		return 0, translate(err, "delete notifications")
	}
	return res.DeletedCount, nil
}

func boolPtr(b bool) *bool { return &b }
