// internal/repository/decision_log.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clickguard/internal/models"
)

const decisionsCollection = "fraud_decisions"

// DecisionLog keeps one document per scored click in MongoDB
type DecisionLog struct {
	collection *mongo.Collection
}

func NewDecisionLog(db *mongo.Database) *DecisionLog {
	return &DecisionLog{collection: db.Collection(decisionsCollection)}
}

// EnsureIndexes creates the click id and recency indexes
func (l *DecisionLog) EnsureIndexes(ctx context.Context) error {
	_, err := l.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "click_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "fingerprint", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create decision indexes: %w", err)
	}
	return nil
}

func (l *DecisionLog) SaveDecision(ctx context.Context, decision *models.FraudDecision) error {
	_, err := l.collection.InsertOne(ctx, decision)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicate
	}
	return err
}

func (l *DecisionLog) GetDecision(ctx context.Context, clickID string) (*models.FraudDecision, error) {
	var decision models.FraudDecision
	err := l.collection.FindOne(ctx, bson.M{"click_id": clickID}).Decode(&decision)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &decision, nil
}
