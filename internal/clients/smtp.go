package clients

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

const (
	defaultSMTPPort         = 25
	defaultSMTPSSLPort      = 465
	defaultSMTPSTARTTLSPort = 587
	defaultDialTimeout      = 30 * time.Second
)

// smtpTransport handles the SMTP connection, authentication and submission.
type smtpTransport struct {
	settings MailSettings
}

func newSMTPTransport(settings MailSettings) *smtpTransport {
	return &smtpTransport{settings: settings}
}

func (t *smtpTransport) port() int {
	switch {
	case t.settings.Port > 0:
		return t.settings.Port
	case t.settings.UseSSL:
		return defaultSMTPSSLPort
	case t.settings.UseTLS:
		return defaultSMTPSTARTTLSPort
	}
	return defaultSMTPPort
}

func (t *smtpTransport) dial(ctx context.Context) (*smtp.Client, error) {
	if t.settings.Host == "" {
		return nil, errors.New("smtp host is not configured")
	}
	address := net.JoinHostPort(t.settings.Host, strconv.Itoa(t.port()))

	timeout := t.settings.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial smtp server %s: %w", address, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsConfig := &tls.Config{ServerName: t.settings.Host}

	// Implicit TLS wraps the connection before the SMTP greeting.
	if t.settings.UseSSL {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ssl handshake failed: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, t.settings.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	if t.settings.UseTLS && !t.settings.UseSSL {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("starttls upgrade failed: %w", err)
			}
		}
	}
	return client, nil
}

func (t *smtpTransport) send(ctx context.Context, from string, recipients []string, raw []byte) error {
	if len(recipients) == 0 {
		return errors.New("recipients list cannot be empty")
	}

	client, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if t.settings.Username != "" && t.settings.Password != "" {
		auth := smtp.PlainAuth("", t.settings.Username, t.settings.Password, t.settings.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM command failed: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO command failed for %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message body: %w", err)
	}
	return client.Quit()
}
