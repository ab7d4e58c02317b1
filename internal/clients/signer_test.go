package clients

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

var headerPattern = regexp.MustCompile(`^HMAC-SHA256 apiKey=key-1, date=(\S+), salt=([0-9a-f]{32}), signature=([0-9a-f]{64})$`)

func TestSignerHeaderFormat(t *testing.T) {
	signer, err := NewSigner("key-1", "secret", "Asia/Seoul")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 123000000, time.FixedZone("KST", 9*3600))
	signer.now = func() time.Time { return fixed }

	header, err := signer.Header()
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		t.Fatalf("unexpected header format: %q", header)
	}
	date, salt, signature := m[1], m[2], m[3]
	if date != "2024-03-01T00:30:00.123Z" {
		t.Fatalf("expected utc instant, got %q", date)
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(date + salt))
	if want := hex.EncodeToString(mac.Sum(nil)); want != signature {
		t.Fatalf("signature mismatch: want %s got %s", want, signature)
	}
}

func TestSignerNeverReusesSignature(t *testing.T) {
	signer, err := NewSigner("key-1", "secret", "Asia/Seoul")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	fixed := time.Now()
	signer.now = func() time.Time { return fixed }

	first, err := signer.Sign()
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	second, err := signer.Sign()
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if first.Date != second.Date {
		t.Fatalf("expected identical dates, got %s and %s", first.Date, second.Date)
	}
	if first.Salt == second.Salt {
		t.Fatal("expected fresh salt per signature")
	}
	if first.Signature == second.Signature {
		t.Fatal("expected different signatures for different salts")
	}
	if strings.Contains(first.Salt, "-") || len(first.Salt) != 32 {
		t.Fatalf("salt must be 32 hex chars without dashes, got %q", first.Salt)
	}
}

func TestNewSignerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name, key, secret, zone string
	}{
		{"missing key", "", "secret", "Asia/Seoul"},
		{"missing secret", "key", "", "Asia/Seoul"},
		{"unknown zone", "key", "secret", "Mars/Olympus"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSigner(tc.key, tc.secret, tc.zone)
			if !models.IsSigning(err) {
				t.Fatalf("expected signing error, got %v", err)
			}
		})
	}
}

func TestNilSignerFails(t *testing.T) {
	var s *Signer
	if _, err := s.Header(); !models.IsSigning(err) {
		t.Fatalf("expected signing error, got %v", err)
	}
}
