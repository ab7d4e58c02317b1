package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/google/uuid"
)

const (
	ProviderMail     = "smtp"
	base64LineLength = 76
)

// Mail is one message to a single recipient.
type Mail struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// MailSettings configures the SMTP submission server and the sender identity.
type MailSettings struct {
	Host        string
	Port        int
	Username    string
	Password    string
	UseTLS      bool
	UseSSL      bool
	FromAddress string
	FromName    string
	DialTimeout time.Duration
}

// MailClient submits e-mail over SMTP.
type MailClient struct {
	settings  MailSettings
	transport *smtpTransport
	logger    *slog.Logger
}

// NewMailClient creates a new MailClient.
func NewMailClient(settings MailSettings, logger *slog.Logger) *MailClient {
	return &MailClient{
		settings:  settings,
		transport: newSMTPTransport(settings),
		logger:    logger,
	}
}

// SendMail submits m and returns its Message-ID as the request id.
func (c *MailClient) SendMail(ctx context.Context, m Mail) (*models.ProviderResponse, error) {
	if c.settings.FromAddress == "" {
		return nil, &models.ProviderError{Provider: ProviderMail, Err: errors.New("sender address is not configured")}
	}

	to, err := mail.ParseAddress(m.To)
	if err != nil {
		return nil, &models.ValidationError{Field: "recipient", Reason: "is not a valid e-mail address"}
	}

	id := uuid.NewString()
	raw := buildMessage(c.settings, to, m, id, time.Now())

	c.logger.Debug("provider request", slog.String("provider", ProviderMail), slog.String("host", c.settings.Host))

	// The envelope takes the bare address; the display name only goes in the header.
	if err := c.transport.send(ctx, c.settings.FromAddress, []string{to.Address}, raw); err != nil {
		return nil, &models.ProviderError{Provider: ProviderMail, Err: err}
	}
	return &models.ProviderResponse{RequestID: id, StatusMessage: "accepted"}, nil
}

func buildMessage(s MailSettings, to *mail.Address, m Mail, id string, at time.Time) []byte {
	from := mail.Address{Name: s.FromName, Address: s.FromAddress}

	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}

	domain := s.FromAddress
	if i := strings.LastIndex(domain, "@"); i >= 0 {
		domain = domain[i+1:]
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", to.String())
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("UTF-8", m.Subject))
	writeHeader(&buf, "Date", at.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", fmt.Sprintf("<%s@%s>", id, domain))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", contentType+"; charset=UTF-8")
	writeHeader(&buf, "Content-Transfer-Encoding", "base64")
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(m.Body))
	for len(encoded) > base64LineLength {
		buf.WriteString(encoded[:base64LineLength])
		buf.WriteString("\r\n")
		encoded = encoded[base64LineLength:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}
