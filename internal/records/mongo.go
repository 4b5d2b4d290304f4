package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoStore implements System with one document per record keyed by _id.
type mongoStore struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongo creates a mongo-backed record store over collection.
func NewMongo(collection *mongo.Collection, logger *slog.Logger) System {
	return &mongoStore{
		collection: collection,
		logger:     logger.With("system", "records", "backend", "mongo"),
	}
}

func (m *mongoStore) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting record store", "collection", m.collection.Name())

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), 10*time.Second)
		defer cancel()

		_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "folder_id", Value: 1}}},
		})
		if err != nil {
			m.logger.Error("record index creation failed", "error", err)
			return
		}
		m.logger.Info("record indexes ensured")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := m.collection.Database().Client().Disconnect(ctx); err != nil {
			m.logger.Error("record store disconnect failed", "error", err)
			return
		}
		m.logger.Info("record store disconnected")
	})

	return nil
}

func (m *mongoStore) Put(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return ErrInvalidID
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (m *mongoStore) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	var rec Record
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	return &rec, nil
}

func (m *mongoStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	cur, err := m.collection.Find(ctx, mongoFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer cur.Close(ctx)

	result := []Record{}
	for cur.Next(ctx) {
		var rec Record
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		result = append(result, rec)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return result, nil
}

func mongoFilter(filter Filter) bson.M {
	q := bson.M{}

	if filter.OwnerID != nil {
		q["owner_id"] = *filter.OwnerID
	}

	if filter.FolderID != nil {
		if *filter.FolderID == RootFolder {
			q["folder_id"] = nil
		} else {
			q["folder_id"] = *filter.FolderID
		}
	}

	return q
}
