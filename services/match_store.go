package services

import (
	"context"
	"log"

	"mingle_server/models"
)

// DynamoMatchStore persists finalized matches to the Matches table.
type DynamoMatchStore struct {
	Dynamo *DynamoService
}

// NewDynamoMatchStore creates the DynamoDB-backed persistence collaborator.
func NewDynamoMatchStore(dynamo *DynamoService) *DynamoMatchStore {
	return &DynamoMatchStore{Dynamo: dynamo}
}

// FinalizeMatch writes the finalized match record.
func (s *DynamoMatchStore) FinalizeMatch(ctx context.Context, match models.FinalizedMatch) error {
	log.Printf("🔍 Persisting finalized match %s", match.MatchID)
	return s.Dynamo.PutItem(ctx, models.MatchesTable, match)
}
