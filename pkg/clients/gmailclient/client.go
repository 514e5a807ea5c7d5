package gmailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jakechorley/volunteer-events/pkg/utils"
)

// Client wraps the Gmail API client used by the notification relay
type Client struct {
	service      *gmail.Service
	userID       string
	sender       string
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a Gmail client authorized for the email relay job.
// userID is usually "me"; sender, when set, becomes the From header.
func NewClient(ctx context.Context, auth *utils.Authorizer, userID, sender string) (*Client, error) {
	httpClient, err := auth.HTTPClient(ctx, utils.JobEmailRelay)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize email relay: %w", err)
	}

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	if userID == "" {
		userID = "me"
	}

	return &Client{
		service: service,
		userID:  userID,
		sender:  sender,
	}, nil
}
