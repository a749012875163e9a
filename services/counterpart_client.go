package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mingle_server/models"

	"github.com/google/uuid"
)

// CounterpartClient talks to the external synthetic-counterpart generator
// service and writes its opening greeting to the Messages table.
type CounterpartClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Dynamo     *DynamoService
	Clock      Clock
}

// NewCounterpartClient creates a client for the generator service.
func NewCounterpartClient(baseURL string, dynamo *DynamoService, clock Clock) *CounterpartClient {
	return &CounterpartClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Dynamo:     dynamo,
		Clock:      clock,
	}
}

type counterpartRequest struct {
	GenderPolicy  string   `json:"genderPolicy"`
	Category      string   `json:"category"`
	SeedInterests []string `json:"seedInterests"`
}

type counterpartResponse struct {
	Profile models.ProfileSnapshot `json:"profile"`
}

// GenerateCounterpart requests a synthetic profile matching the gender
// policy, category, and at least one of the seed interests.
func (c *CounterpartClient) GenerateCounterpart(ctx context.Context, genderPolicy, category string, seedInterests []string) (models.ProfileSnapshot, error) {
	var response counterpartResponse
	err := c.post(ctx, "/counterparts", counterpartRequest{
		GenderPolicy:  genderPolicy,
		Category:      category,
		SeedInterests: seedInterests,
	}, &response)
	if err != nil {
		return models.ProfileSnapshot{}, fmt.Errorf("counterpart generator: %w", err)
	}
	return response.Profile, nil
}

type greetingRequest struct {
	MatchID         string   `json:"matchId"`
	SharedInterests []string `json:"sharedInterests"`
}

type greetingResponse struct {
	Content string `json:"content"`
}

// Greet fetches the counterpart's opening line and stores it as the first
// message of the match.
func (c *CounterpartClient) Greet(ctx context.Context, match models.ProposedMatch) error {
	var response greetingResponse
	err := c.post(ctx, "/greetings", greetingRequest{
		MatchID:         match.MatchID,
		SharedInterests: match.SharedInterests,
	}, &response)
	if err != nil {
		return fmt.Errorf("counterpart greeting: %w", err)
	}

	senderID := ""
	for _, u := range match.Users {
		if models.IsSyntheticID(u) {
			senderID = u
			break
		}
	}

	message := models.Message{
		MessageID: uuid.NewString(),
		MatchID:   match.MatchID,
		SenderID:  senderID,
		Content:   response.Content,
		CreatedAt: c.Clock.Now().UTC().Format(time.RFC3339),
		IsUnread:  true,
	}
	if err := c.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		return fmt.Errorf("failed to store greeting: %w", err)
	}
	return nil
}

func (c *CounterpartClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.HTTPClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("generator returned status %d", response.StatusCode)
	}
	return json.NewDecoder(response.Body).Decode(out)
}
