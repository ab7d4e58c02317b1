package clients

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

const (
	ProviderAlimtalk = "alimtalk"
	alimtalkPath     = "/kakao/v1/alimtalk/send"
)

// AlimtalkClient sends template messages through the signed agency API.
type AlimtalkClient struct {
	baseURL string
	signer  *Signer
	client  *http.Client
	logger  *slog.Logger
}

// NewAlimtalkClient creates a new AlimtalkClient.
func NewAlimtalkClient(baseURL string, signer *Signer, client *http.Client, logger *slog.Logger) *AlimtalkClient {
	return &AlimtalkClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		client:  client,
		logger:  logger,
	}
}

// SendAlimtalk signs and sends req, blocking until the provider answers.
func (c *AlimtalkClient) SendAlimtalk(ctx context.Context, req *AlimtalkRequest) (*models.ProviderResponse, error) {
	auth, err := c.signer.Header()
	if err != nil {
		return nil, err
	}

	var out kakaoResponse
	if err := postJSON(ctx, c.client, c.logger, ProviderAlimtalk, c.baseURL+alimtalkPath, auth, req, &out); err != nil {
		return nil, err
	}
	resp := normalize(out)
	if resp.RequestID == "" {
		return nil, &models.ProviderError{Provider: ProviderAlimtalk, StatusCode: http.StatusOK, Err: errors.New("response carries no request id")}
	}
	return resp, nil
}

