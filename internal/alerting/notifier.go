package alerting

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Message 封装一封待发送的告警邮件。
type Message struct {
	To      string
	Subject string
	Text    string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPNotifier delivers alert emails over SMTP.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   zerolog.Logger

	// sendMail is swappable for tests.
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier 构造 SMTP 告警器。
func NewSMTPNotifier(host string, port int, username, password, from string, logger zerolog.Logger) *SMTPNotifier {
	if port <= 0 {
		port = 587
	}

	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger.With().Str("component", "alert_mailer").Logger(),
		sendMail: smtp.SendMail,
	}
}

// Send 投递一封告警邮件。The underlying SMTP exchange cannot be cancelled
// mid-flight; the context only bounds how long the caller waits.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("notification recipient is empty")
	}

	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	payload := renderEmail(n.from, msg)

	done := make(chan error, 1)
	go func() {
		done <- n.sendMail(addr, auth, n.from, []string{msg.To}, payload)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send alert email: %w", err)
		}
	}

	n.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("告警邮件已发送")
	return nil
}

func renderEmail(from string, msg Message) []byte {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("From: %s\r\n", from))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(msg.Text)
	builder.WriteString("\r\n")
	return []byte(builder.String())
}

var _ Notifier = (*SMTPNotifier)(nil)
