package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPNotifier alerts the operator address about dead-lettered messages.
type SMTPNotifier struct {
	host   string
	port   int
	from   string
	to     string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from, to string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, to: to, logger: logger}
}

func (n *SMTPNotifier) NotifyDeadLetter(_ context.Context, reason string, body []byte) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := "File Processor - Message Dead-Lettered"
	text := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"A queue message was rejected and recorded on the dead-letter queue.\r\n\r\n"+
			"Reason: %s\r\n"+
			"Payload: %s\r\n\r\n"+
			"The message will not be retried.\r\n\r\n"+
			"-- File Processor",
		reason, body,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, n.to, subject, text,
	)

	if err := smtp.SendMail(addr, nil, n.from, []string{n.to}, []byte(msg)); err != nil {
		n.logger.Error("failed to send dead-letter email",
			zap.String("to", n.to),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("dead-letter email sent", zap.String("to", n.to))
	return nil
}
