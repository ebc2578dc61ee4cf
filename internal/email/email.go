// internal/email/email.go
package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"funnelgate/internal/config"
	"funnelgate/internal/logger"
)

// Message is one outbound email.
type Message struct {
	To          string
	From        string
	Subject     string
	Body        string
	Attachments []string
}

// Sender delivers messages. The SMTP implementation is the only real one;
// tests substitute fakes.
type Sender interface {
	Send(msg Message) error
}

// SMTPMailer sends mail through a configured SMTP relay, or logs the
// message in mock mode.
type SMTPMailer struct {
	smtp config.SMTPConfig
	mock bool
}

func NewSMTPMailer(smtp config.SMTPConfig, emailCfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{smtp: smtp, mock: emailCfg.MockMode}
}

func (m *SMTPMailer) Send(msg Message) error {
	if msg.From == "" {
		msg.From = m.smtp.Sender
	}
	if msg.To == "" {
		msg.To = m.smtp.Recipient
	}

	if m.mock {
		logMockEmail(msg)
		return nil
	}

	client, err := mail.NewClient(m.smtp.Host,
		mail.WithPort(m.smtp.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.smtp.Username),
		mail.WithPassword(m.smtp.Password),
	)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}

	message := mail.NewMsg()
	if err := message.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := message.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	message.Subject(msg.Subject)
	message.SetBodyString(mail.TypeTextPlain, msg.Body)
	for _, path := range msg.Attachments {
		message.AttachFile(path)
	}

	logger.LogInfo("Sending email to %s with subject: %s", msg.To, msg.Subject)
	if err := client.DialAndSend(message); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	logger.LogInfo("Email sent successfully to %s", msg.To)
	return nil
}

func logMockEmail(msg Message) {
	logger.LogInfo("========== MOCK EMAIL ==========")
	logger.LogInfo("To: %s", msg.To)
	logger.LogInfo("From: %s", msg.From)
	logger.LogInfo("Subject: %s", msg.Subject)
	if len(msg.Attachments) > 0 {
		logger.LogInfo("Attachments: %s", strings.Join(msg.Attachments, ", "))
	}
	for _, line := range strings.Split(msg.Body, "\n") {
		logger.LogInfo("   %s", line)
	}
	logger.LogInfo("================================")
}

// NewSessionNotification builds the admin notification for a freshly
// created checkout session.
func NewSessionNotification(sessionID, funnel string, amountTotal int64, itemCount int, clientIP string) Message {
	subject := fmt.Sprintf("New checkout session: %s", funnel)

	body := fmt.Sprintf(`A new checkout session was created:

Session ID: %s
Funnel: %s
Items: %d
Amount: $%.2f
Client IP: %s
Created: %s
`,
		sessionID,
		funnel,
		itemCount,
		float64(amountTotal)/100,
		clientIP,
		time.Now().Format("January 2, 2006 at 3:04 PM"),
	)

	return Message{Subject: subject, Body: body}
}
