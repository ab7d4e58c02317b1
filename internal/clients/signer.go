package clients

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/google/uuid"
)

// isoInstant renders an instant in UTC with millisecond precision.
const isoInstant = "2006-01-02T15:04:05.000Z"

// Signer builds the HMAC-SHA256 Authorization header used by the bizmessage
// agency API.
type Signer struct {
	apiKey string
	secret []byte
	loc    *time.Location

	now  func() time.Time
	salt func() string
}

// NewSigner validates the credentials and zone once so every signing call can
// only fail on programming errors.
func NewSigner(apiKey, secret, zone string) (*Signer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &models.SigningError{Err: errors.New("api key is empty")}
	}
	if secret == "" {
		return nil, &models.SigningError{Err: errors.New("api secret is empty")}
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, &models.SigningError{Err: fmt.Errorf("load zone %q: %w", zone, err)}
	}
	return &Signer{
		apiKey: apiKey,
		secret: []byte(secret),
		loc:    loc,
		now:    time.Now,
		salt:   newSalt,
	}, nil
}

func newSalt() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Signature is one signed credential set.
type Signature struct {
	Date      string
	Salt      string
	Signature string
}

// Sign computes a fresh signature. Date and salt are generated per call.
func (s *Signer) Sign() (Signature, error) {
	if s == nil {
		return Signature{}, &models.SigningError{Err: errors.New("signer is not configured")}
	}
	date := s.now().In(s.loc).UTC().Format(isoInstant)
	salt := s.salt()
	return Signature{Date: date, Salt: salt, Signature: s.sum(date, salt)}, nil
}

func (s *Signer) sum(date, salt string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(date + salt))
	return hex.EncodeToString(mac.Sum(nil))
}

// Header returns the Authorization header value for a fresh signature.
func (s *Signer) Header() (string, error) {
	sig, err := s.Sign()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s",
		s.apiKey, sig.Date, sig.Salt, sig.Signature), nil
}
