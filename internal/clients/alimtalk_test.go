package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("key-1", "secret", "Asia/Seoul")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func TestAlimtalkClientSendsSignedRequest(t *testing.T) {
	var got AlimtalkRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/kakao/v1/alimtalk/send" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "HMAC-SHA256 apiKey=key-1, date=") {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"requestId":"req-1","statusCode":"0000","statusMessage":"ok","groupId":"g-1","count":1}`))
	}))
	defer server.Close()

	client := NewAlimtalkClient(server.URL+"/", newTestSigner(t), server.Client(), discardLogger())
	resp, err := client.SendAlimtalk(context.Background(), &AlimtalkRequest{
		To:   "01012345678",
		From: "0212345678",
		KakaoOptions: KakaoOptions{
			PfID:       "pf-1",
			TemplateID: "WELCOME_001",
			Variables:  map[string]string{"#{name}": "Jo"},
			Buttons:    []AlimtalkButton{{ButtonType: "WL", ButtonName: "open", LinkMo: "https://m.example.com"}},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.RequestID != "req-1" || resp.StatusCode != "0000" || resp.GroupID != "g-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got.To != "01012345678" || got.KakaoOptions.PfID != "pf-1" || got.KakaoOptions.TemplateID != "WELCOME_001" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if len(got.KakaoOptions.Buttons) != 1 || got.KakaoOptions.Buttons[0].LinkMo != "https://m.example.com" {
		t.Fatalf("unexpected buttons %+v", got.KakaoOptions.Buttons)
	}
}

func TestAlimtalkClientWrapsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errorCode":"InternalError"}`))
	}))
	defer server.Close()

	client := NewAlimtalkClient(server.URL, newTestSigner(t), server.Client(), discardLogger())
	_, err := client.SendAlimtalk(context.Background(), &AlimtalkRequest{To: "01012345678"})

	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if perr.StatusCode != http.StatusInternalServerError || !strings.Contains(perr.Body, "InternalError") {
		t.Fatalf("expected captured body and status, got %+v", perr)
	}
	if perr.Code() != "HTTP_500" {
		t.Fatalf("unexpected code %s", perr.Code())
	}
}

func TestAlimtalkClientRejectsResponseWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"statusCode":"0000","statusMessage":"ok"}`))
	}))
	defer server.Close()

	client := NewAlimtalkClient(server.URL, newTestSigner(t), server.Client(), discardLogger())
	resp, err := client.SendAlimtalk(context.Background(), &AlimtalkRequest{To: "01012345678"})
	if resp != nil {
		t.Fatalf("expected no response, got %+v", resp)
	}
	if !models.IsProvider(err) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestAlimtalkClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	httpClient := NewHTTPClient(Timeouts{Connect: time.Second, Response: 50 * time.Millisecond})
	client := NewAlimtalkClient(server.URL, newTestSigner(t), httpClient, discardLogger())

	_, err := client.SendAlimtalk(context.Background(), &AlimtalkRequest{To: "01012345678"})
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider error on timeout, got %v", err)
	}
	if perr.Err == nil {
		t.Fatal("expected transport error to be kept")
	}
}

func TestAlimtalkClientWithoutSigner(t *testing.T) {
	client := NewAlimtalkClient("http://127.0.0.1:1", nil, http.DefaultClient, discardLogger())
	_, err := client.SendAlimtalk(context.Background(), &AlimtalkRequest{To: "01012345678"})
	if !models.IsSigning(err) {
		t.Fatalf("expected signing error, got %v", err)
	}
}
