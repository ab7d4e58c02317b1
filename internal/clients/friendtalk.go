package clients

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/google/uuid"
)

const (
	ProviderFriendtalk = "friendtalk"
	friendtalkPath     = "/v1/api/talk/friends/message/default/send"
)

// FriendtalkClient sends messages to channel friends with the Kakao admin key.
type FriendtalkClient struct {
	baseURL  string
	adminKey string
	client   *http.Client
	logger   *slog.Logger
}

// NewFriendtalkClient creates a new FriendtalkClient.
func NewFriendtalkClient(baseURL, adminKey string, client *http.Client, logger *slog.Logger) *FriendtalkClient {
	return &FriendtalkClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		adminKey: adminKey,
		client:   client,
		logger:   logger,
	}
}

// SendFriendtalk sends req, blocking until the provider answers.
func (c *FriendtalkClient) SendFriendtalk(ctx context.Context, req *FriendtalkRequest) (*models.ProviderResponse, error) {
	if c.adminKey == "" {
		return nil, &models.SigningError{Err: errors.New("kakao admin key is empty")}
	}

	var out kakaoResponse
	if err := postJSON(ctx, c.client, c.logger, ProviderFriendtalk, c.baseURL+friendtalkPath, "KakaoAK "+c.adminKey, req, &out); err != nil {
		return nil, err
	}
	resp := normalize(out)
	// The friend API returns no request id; mint one to correlate log entries.
	if resp.RequestID == "" {
		resp.RequestID = uuid.NewString()
	}
	return resp, nil
}

// normalize maps a provider answer onto ProviderResponse, falling back to the
// group id when the request id is absent.
func normalize(r kakaoResponse) *models.ProviderResponse {
	id := r.RequestID
	if id == "" {
		id = r.GroupID
	}
	return &models.ProviderResponse{
		RequestID:            id,
		GroupID:              r.GroupID,
		StatusCode:           r.StatusCode,
		StatusMessage:        r.StatusMessage,
		Count:                r.Count,
		SuccessfulRecipients: r.SuccessfulReceiverUUIDs,
	}
}
