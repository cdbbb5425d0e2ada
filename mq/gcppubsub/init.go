package gcppubsub

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub"
)

// GetGCPProjectID returns projectID, falling back to GCP_PROJECT_ID.
func GetGCPProjectID(projectID string) (string, error) {
	if projectID != "" {
		return projectID, nil
	}
	if env := os.Getenv("GCP_PROJECT_ID"); env != "" {
		return env, nil
	}
	return "", errors.New("GCP project id must be set")
}

func NewClient(ctx context.Context, projectID string) (*pubsub.Client, error) {
	id, err := GetGCPProjectID(projectID)
	if err != nil {
		return nil, err
	}
	client, err := pubsub.NewClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return client, nil
}
