package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskapp/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tasksCollection = "tasks"

// MongoTaskRepository is a MongoDB implementation of TaskRepository.
type MongoTaskRepository struct {
	coll *mongo.Collection
}

// NewMongoTaskRepository creates a new instance of MongoTaskRepository.
func NewMongoTaskRepository(db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{
		coll: db.Collection(tasksCollection),
	}
}

// EnsureIndexes creates the userId lookup index.
func (r *MongoTaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("user_created"),
	})
	if err != nil {
		return fmt.Errorf("failed to create tasks.userId index: %w", err)
	}
	return nil
}

// ListByUser finds every task with the given userId, oldest first.
func (r *MongoTaskRepository) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for user %s: %w", userID, err)
	}
	tasks := make([]models.Task, 0)
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks for user %s: %w", userID, err)
	}
	return tasks, nil
}

// Create inserts one task document.
func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	task.CreatedAt = now
	task.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("task %s: %w", task.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update runs a single findOneAndUpdate returning the post-image.
func (r *MongoTaskRepository) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if patch.DueDate != nil {
		set["dueDate"] = *patch.DueDate
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var task models.Task
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return &task, nil
}

// Delete removes one task document.
func (r *MongoTaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}
