package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// EmailNotifier sends a plain-text alert over SMTP with implicit TLS (port 465).
type EmailNotifier struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Receiver string // comma-separated list

	dial func(ctx context.Context, addr string) (net.Conn, error)
	now  func() time.Time
}

// NewEmailNotifier creates an email sink. Host and port default to Gmail.
func NewEmailNotifier(host string, port int, sender, password, receiver string) *EmailNotifier {
	if host == "" {
		host = "smtp.gmail.com"
	}
	if port == 0 {
		port = 465
	}
	e := &EmailNotifier{
		Host:     host,
		Port:     port,
		Sender:   sender,
		Password: password,
		Receiver: receiver,
		now:      time.Now,
	}
	e.dial = e.dialTLS
	return e
}

func (e *EmailNotifier) Name() string { return "email" }

// Configured reports whether sender, password and receiver are all set.
func (e *EmailNotifier) Configured() bool {
	return e.Sender != "" && e.Password != "" && e.Receiver != ""
}

func (e *EmailNotifier) dialTLS(ctx context.Context, addr string) (net.Conn, error) {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: 30 * time.Second},
		Config:    &tls.Config{ServerName: e.Host, MinVersion: tls.VersionTLS12},
	}
	return d.DialContext(ctx, "tcp", addr)
}

func (e *EmailNotifier) recipients() []string {
	var out []string
	for _, r := range strings.Split(e.Receiver, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (e *EmailNotifier) Send(ctx context.Context, subject string, records []model.ScanRecord) error {
	if !e.Configured() {
		return ErrNotConfigured
	}
	msg := e.buildMessage(subject, FormatEmailBody(records, e.now()))
	if err := e.deliver(ctx, msg); err != nil {
		return fmt.Errorf("%w: email: %w", ErrDelivery, err)
	}
	return nil
}

func (e *EmailNotifier) buildMessage(subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", e.Sender)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.recipients(), ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", e.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes()
}

func (e *EmailNotifier) deliver(ctx context.Context, msg []byte) error {
	addr := net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	conn, err := e.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, e.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Auth(smtp.PlainAuth("", e.Sender, e.Password, e.Host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(e.Sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range e.recipients() {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return c.Quit()
}
