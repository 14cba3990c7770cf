package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/repository"
)

const (
	usersCollection    = "users"
	pantriesCollection = "pantries"
	receiptsCollection = "receipts"
	itemsCollection    = "pantry_items"
)

// MongoDBRepository implements repository.Store on MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects, pings and ensures the indexes the
// repository relies on.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{client: client, db: client.Database(dbName)}
	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = r.db.Collection(itemsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create pantry item indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a new account.
func (r *MongoDBRepository) CreateUser(ctx context.Context, user models.User) error {
	_, err := r.db.Collection(usersCollection).InsertOne(ctx, toUserDoc(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID loads an account by id.
func (r *MongoDBRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	return r.findUser(ctx, bson.M{"_id": userID})
}

// GetUserByEmail loads an account by its (case-insensitive) email.
func (r *MongoDBRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *MongoDBRepository) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDoc
	if err := r.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, repository.ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return doc.toModel(), nil
}

// CreatePantry inserts the settings document created at signup.
func (r *MongoDBRepository) CreatePantry(ctx context.Context, pantry models.Pantry) error {
	_, err := r.db.Collection(pantriesCollection).InsertOne(ctx, toPantryDoc(pantry))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert pantry: %w", err)
	}
	return nil
}

// GetPantry loads a user's pantry settings.
func (r *MongoDBRepository) GetPantry(ctx context.Context, userID string) (models.Pantry, error) {
	var doc pantryDoc
	if err := r.db.Collection(pantriesCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Pantry{}, repository.ErrNotFound
		}
		return models.Pantry{}, fmt.Errorf("failed to load pantry: %w", err)
	}
	return doc.toModel(), nil
}

// UpdatePantry replaces a user's pantry settings.
func (r *MongoDBRepository) UpdatePantry(ctx context.Context, pantry models.Pantry) error {
	res, err := r.db.Collection(pantriesCollection).ReplaceOne(ctx, bson.M{"_id": pantry.UserID}, toPantryDoc(pantry))
	if err != nil {
		return fmt.Errorf("failed to update pantry: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListPantries returns every pantry, used by the reminder sweep.
func (r *MongoDBRepository) ListPantries(ctx context.Context) ([]models.Pantry, error) {
	cursor, err := r.db.Collection(pantriesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pantries: %w", err)
	}
	var docs []pantryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode pantries: %w", err)
	}
	out := make([]models.Pantry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// SaveReceipt stores a confirmed receipt header and its items. Documents are
// upserted by id and owner, items before the header, so a retry after a
// partial failure completes the same receipt instead of colliding with it.
func (r *MongoDBRepository) SaveReceipt(ctx context.Context, receipt models.ReceiptRecord, items []models.PantryItem) error {
	if writes := itemUpserts(items); len(writes) > 0 {
		if _, err := r.db.Collection(itemsCollection).BulkWrite(ctx, writes); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("failed to insert pantry items: %w", err)
		}
	}

	header := toReceiptDoc(receipt)
	_, err := r.db.Collection(receiptsCollection).ReplaceOne(ctx, ownedBy(header.ID, header.UserID), header, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// itemUpserts builds one ordered upsert per item. An id already owned by
// another user fails with a duplicate key error.
func itemUpserts(items []models.PantryItem) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, 0, len(items))
	for _, item := range items {
		doc := toItemDoc(item)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(ownedBy(doc.ID, doc.UserID)).
			SetReplacement(doc).
			SetUpsert(true))
	}
	return writes
}

func ownedBy(id, userID string) bson.M {
	return bson.M{"_id": id, "user_id": userID}
}

// ListItems returns a user's pantry items, newest first.
func (r *MongoDBRepository) ListItems(ctx context.Context, userID string, status models.ItemStatus) ([]models.PantryItem, error) {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = string(status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.db.Collection(itemsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry items: %w", err)
	}
	var docs []itemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode pantry items: %w", err)
	}
	out := make([]models.PantryItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// GetItem loads one of a user's pantry items.
func (r *MongoDBRepository) GetItem(ctx context.Context, userID, itemID string) (models.PantryItem, error) {
	var doc itemDoc
	err := r.db.Collection(itemsCollection).FindOne(ctx, bson.M{"_id": itemID, "user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PantryItem{}, repository.ErrNotFound
		}
		return models.PantryItem{}, fmt.Errorf("failed to load pantry item: %w", err)
	}
	return doc.toModel(), nil
}

// UpdateItemStatus records what happened to an item.
func (r *MongoDBRepository) UpdateItemStatus(ctx context.Context, userID, itemID string, status models.ItemStatus, at time.Time) error {
	res, err := r.db.Collection(itemsCollection).UpdateOne(ctx,
		bson.M{"_id": itemID, "user_id": userID},
		bson.M{"$set": bson.M{"status": string(status), "updated_at": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update pantry item: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteItem removes one of a user's pantry items.
func (r *MongoDBRepository) DeleteItem(ctx context.Context, userID, itemID string) error {
	res, err := r.db.Collection(itemsCollection).DeleteOne(ctx, bson.M{"_id": itemID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete pantry item: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
