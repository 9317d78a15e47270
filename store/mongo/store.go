// Package mongo provides a document-style implementation of store.Store
// backed directly by the official MongoDB Go driver. Each instance's
// current record lives in the "loom_instances" collection, keyed by id;
// each save point is appended to "loom_instances_history" as its own
// document carrying origin_id (the instance id) and saved_at. History
// documents have no synthetic "<origId>_<epoch-ms>" id field. Definitions
// live in "loom_definitions", keyed by name.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/loom"
	"github.com/xraph/loom/store"
	"github.com/xraph/loom/tree"
)

// Collection name constants.
const (
	colDefinitions = "loom_definitions"
	colInstances   = "loom_instances"
	colHistory     = "loom_instances_history"
)

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of store.Store. The caller owns the
// *mongo.Client lifecycle; Store never closes it.
type Store struct {
	db *mongod.Database
}

// New creates a new Store against db. The caller is responsible for
// connecting and eventually disconnecting the underlying client.
func New(db *mongod.Database) *Store {
	return &Store{db: db}
}

// InitStore creates the indexes every operation below relies on: a unique
// index on the definitions' name, a unique index on the instances' id, and
// a non-unique compound index on the history's (origin_id, saved_at) (many
// save points share one origin id).
func (s *Store) InitStore(ctx context.Context) error {
	if _, err := s.db.Collection(colDefinitions).Indexes().CreateOne(ctx, mongod.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("loom/mongo: migrate %s indexes: %w", colDefinitions, err)
	}

	if _, err := s.db.Collection(colInstances).Indexes().CreateOne(ctx, mongod.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("loom/mongo: migrate %s indexes: %w", colInstances, err)
	}

	if _, err := s.db.Collection(colHistory).Indexes().CreateOne(ctx, mongod.IndexModel{
		Keys: bson.D{{Key: "origin_id", Value: 1}, {Key: "saved_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("loom/mongo: migrate %s indexes: %w", colHistory, err)
	}

	return nil
}

// ExitStore is a no-op; the caller owns the client's lifecycle.
func (s *Store) ExitStore(_ context.Context) error { return nil }

// definitionDoc and instanceDoc wrap the domain types with the id field
// mongo needs for filtering, keeping tree.WorkflowInstance itself free of
// any backend-specific field (§9's rule against leaking backend handles).
type definitionDoc struct {
	Name  string          `bson:"name"`
	Value store.Definition `bson:"value"`
}

type instanceDoc struct {
	ID    string                  `bson:"id"`
	Value tree.WorkflowInstance   `bson:"value"`
}

type historyDoc struct {
	OriginID string                `bson:"origin_id"`
	SavedAt  time.Time             `bson:"saved_at"`
	Value    tree.WorkflowInstance `bson:"value"`
}

// SaveDefinition upserts def by name.
func (s *Store) SaveDefinition(ctx context.Context, def *store.Definition) error {
	_, err := s.db.Collection(colDefinitions).UpdateOne(ctx,
		bson.D{{Key: "name", Value: def.Name}},
		bson.D{{Key: "$set", Value: definitionDoc{Name: def.Name, Value: *def}}},
		options.UpdateOne().SetUpsert(true),
	)

	return err
}

// GetDefinition returns the definition named name.
func (s *Store) GetDefinition(ctx context.Context, name string) (*store.Definition, error) {
	var doc definitionDoc

	err := s.db.Collection(colDefinitions).FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc)
	if isNoDocuments(err) {
		return nil, loom.ErrDefinitionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &doc.Value, nil
}

// DeleteDefinition removes the definition named name.
func (s *Store) DeleteDefinition(ctx context.Context, name string) error {
	res, err := s.db.Collection(colDefinitions).DeleteOne(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return loom.ErrDefinitionNotFound
	}

	return nil
}

// SaveInstance upserts inst as the current record and archives that same
// record into instances_history under a fresh save point. Every call,
// including the first, appends one historical record, so history length
// always equals the number of SaveInstance calls for inst.ID (§3 invariant
// 7).
func (s *Store) SaveInstance(ctx context.Context, inst *tree.WorkflowInstance) error {
	savedAt := time.Now().UTC()
	historyID := inst.ID + "_" + strconv.FormatInt(savedAt.UnixMilli(), 10)

	if _, err := s.db.Collection(colHistory).InsertOne(ctx, historyDoc{
		OriginID: inst.ID,
		SavedAt:  savedAt,
		Value:    *inst,
	}); err != nil && !isDuplicateKey(err) {
		return fmt.Errorf("loom/mongo: archive save point %s: %w", historyID, err)
	}

	_, err := s.db.Collection(colInstances).UpdateOne(ctx,
		bson.D{{Key: "id", Value: inst.ID}},
		bson.D{{Key: "$set", Value: instanceDoc{ID: inst.ID, Value: *inst}}},
		options.UpdateOne().SetUpsert(true),
	)

	return err
}

// LoadInstance returns the current record when rewind is 0, otherwise the
// historical record at len(history)-rewind ordered by saved_at, clamped
// to the oldest.
func (s *Store) LoadInstance(ctx context.Context, id string, rewind int) (*tree.WorkflowInstance, error) {
	if rewind <= 0 {
		var doc instanceDoc

		err := s.db.Collection(colInstances).FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&doc)
		if isNoDocuments(err) {
			return nil, loom.ErrInstanceNotFound
		}
		if err != nil {
			return nil, err
		}

		return &doc.Value, nil
	}

	cur, err := s.db.Collection(colHistory).Find(ctx,
		bson.D{{Key: "origin_id", Value: id}},
		options.Find().SetSort(bson.D{{Key: "saved_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var points []historyDoc
	if err := cur.All(ctx, &points); err != nil {
		return nil, err
	}

	if len(points) == 0 {
		return s.LoadInstance(ctx, id, 0)
	}

	idx := len(points) - rewind - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(points) {
		idx = len(points) - 1
	}

	return &points[idx].Value, nil
}

// DeleteInstance removes id's current record and every historical record.
func (s *Store) DeleteInstance(ctx context.Context, id string) error {
	res, err := s.db.Collection(colInstances).DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return loom.ErrInstanceNotFound
	}

	_, err = s.db.Collection(colHistory).DeleteMany(ctx, bson.D{{Key: "origin_id", Value: id}})

	return err
}

// DeleteAll removes every instance and history document, leaving
// definitions intact.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Collection(colInstances).DeleteMany(ctx, bson.D{}); err != nil {
		return err
	}

	_, err := s.db.Collection(colHistory).DeleteMany(ctx, bson.D{})

	return err
}

// GetWorkflows returns current instances matching q.
func (s *Store) GetWorkflows(ctx context.Context, q store.Query) ([]*tree.WorkflowInstance, error) {
	filter := bson.D{}
	if q.Name != "" {
		filter = append(filter, bson.E{Key: "value.name", Value: q.Name})
	}
	if q.Status != "" {
		filter = append(filter, bson.E{Key: "value.status", Value: q.Status})
	}

	findOpts := options.Find()
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}

	cur, err := s.db.Collection(colInstances).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []instanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*tree.WorkflowInstance, len(docs))
	for i := range docs {
		out[i] = &docs[i].Value
	}

	return out, nil
}

// isNoDocuments returns true when err indicates no MongoDB documents found.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// isDuplicateKey checks if a MongoDB error is a duplicate key violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "E11000")
}
