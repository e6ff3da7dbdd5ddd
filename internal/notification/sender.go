package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"festora-be/internal/config"
	"festora-be/internal/logger"
	"festora-be/internal/order"

	"go.uber.org/zap"
)

// Sender delivers the order-confirmation email. Delivery is
// best-effort: the reconciler logs and swallows any error, so a mail
// outage never blocks payment settlement.
type Sender interface {
	Send(ctx context.Context, ord *order.Order) error
}

type emailSender struct {
	host     string
	port     string
	username string
	password string
	from     string
	timeout  time.Duration
}

func NewEmailSender(cfg *config.Config) Sender {
	if cfg.SMTPHost == "" {
		logger.L().Warn("SMTP host not configured, confirmation emails will be logged only")
	}

	return &emailSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		timeout:  10 * time.Second,
	}
}

func (s *emailSender) Send(ctx context.Context, ord *order.Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("order_code", ord.Code),
		zap.String("to", ord.CustomerEmail),
	)

	if ord.CustomerEmail == "" {
		log.Warn("order has no customer email, skipping confirmation")
		return nil
	}

	msg, err := buildMessage(s.from, ord)
	if err != nil {
		return fmt.Errorf("build confirmation email: %w", err)
	}

	if s.host == "" {
		// Mock mode for local development.
		log.Info("confirmation email (not sent, SMTP unconfigured)")
		return nil
	}

	if err := s.deliver(ctx, ord.CustomerEmail, msg); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	log.Info("confirmation email sent")
	return nil
}

// deliver speaks SMTP with an explicit dial timeout; net/smtp carries
// no context support on its own.
func (s *emailSender) deliver(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(s.host, s.port)

	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return err
		}
	}

	if s.username != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
