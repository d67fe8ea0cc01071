package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finmodel/internal/config"
	"github.com/Dan9191/finmodel/internal/models"
)

// sendFunc delivers one message; replaced in tests
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending health alerts via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Enabled reports whether alerts have somewhere to go
func (s *Sender) Enabled() bool {
	return s.cfg.EmailEnabled()
}

// NeedsAlert reports whether a result is bad enough to email about
func NeedsAlert(result models.HealthScoreResult) bool {
	return result.Grade == models.GradeD || result.Grade == models.GradeF
}

// SendHealthAlert emails the score, its breakdown and where the data came from
func (s *Sender) SendHealthAlert(result models.HealthScoreResult, source string) error {
	if !s.Enabled() {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.AlertEmail}
	e.Subject = fmt.Sprintf("Financial health alert: grade %s (%d/100)", result.Grade, result.Score)

	var body strings.Builder
	fmt.Fprintf(&body, "The financial health score dropped to %d (grade %s, trend %s) after an import from %s.\n\n",
		result.Score, result.Grade, result.Trend, source)
	body.WriteString(result.Summary + "\n\n")
	for _, b := range result.Breakdown {
		fmt.Fprintf(&body, "- %s: %d (weight %d%%) %s\n", b.Label, b.Score, b.Weight, b.Description)
	}
	body.WriteString("\nFinModel")
	e.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send health alert to %s: %v", s.cfg.AlertEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.AlertEmail, e.Subject)
	return nil
}
