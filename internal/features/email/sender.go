package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go-travel/internal/config"
	"go-travel/internal/features/settings"
	"go-travel/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender delivers one message and reports what the server accepted.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

type SMTPSender struct {
	SettingsService settings.SettingsService
	Repo            EmailRepository
	Config          *config.Config
	Logger          *zap.Logger
}

func NewSMTPSender(settingsService settings.SettingsService, repo EmailRepository, cfg *config.Config, logger *zap.Logger) Sender {
	return &SMTPSender{
		SettingsService: settingsService,
		Repo:            repo,
		Config:          cfg,
		Logger:          logger.Named("email"),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if len(msg.To) == 0 {
		return Receipt{}, errors.New("recipient required")
	}

	doc, err := s.SettingsService.Get(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to fetch email config: %w", err)
	}
	smtpCfg := doc.Email
	if smtpCfg.Host == "" || smtpCfg.Port == 0 {
		return Receipt{}, errors.New("invalid email configuration: missing host or port")
	}

	from := smtpCfg.From
	if from == "" {
		from = smtpCfg.User
	}
	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = smtpCfg.ReplyTo
	}

	mode := SelectTransport(smtpCfg.Port, smtpCfg.Secure, s.Config.SMTPLocalTestPort)
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from))

	record := &Email{
		From:      from,
		To:        msg.To,
		ReplyTo:   replyTo,
		Subject:   msg.Subject,
		HtmlBody:  msg.HTML,
		Status:    EmailQueued,
		Event:     msg.Event,
		EntityID:  msg.EntityID,
		MessageID: messageID,
		Transport: mode,
	}
	if err := s.Repo.Create(ctx, record); err != nil {
		s.Logger.Warn("Failed to record queued email", zap.Error(err))
	}

	data, err := buildMessage(mail.Address{Name: smtpCfg.FromName, Address: from}, msg.To, replyTo, msg.Subject, messageID, msg.HTML, time.Now())
	if err != nil {
		return Receipt{}, err
	}

	s.Logger.Info("Sending email",
		zap.Strings("to", msg.To),
		zap.String("event", msg.Event),
		zap.String("transport", string(mode)),
		logger.RequestField(ctx),
	)
	err = deliver(ctx, smtpCfg, mode, s.timeout(smtpCfg), from, msg.To, data)

	status := EmailSent
	errMsg := ""
	if err != nil {
		status = EmailFailed
		errMsg = err.Error()
	}
	if uerr := s.Repo.UpdateStatus(context.WithoutCancel(ctx), record.ID, status, messageID, errMsg); uerr != nil {
		s.Logger.Warn("Failed to update email status", zap.Error(uerr))
	}

	if err != nil {
		return Receipt{}, fmt.Errorf("failed to send email: %w", err)
	}
	return Receipt{MessageID: messageID, Accepted: msg.To, Transport: mode}, nil
}

func (s *SMTPSender) timeout(smtpCfg settings.EmailSettings) time.Duration {
	if smtpCfg.TimeoutSeconds > 0 {
		return time.Duration(smtpCfg.TimeoutSeconds) * time.Second
	}
	if s.Config.SMTPTimeout > 0 {
		return s.Config.SMTPTimeout
	}
	return 15 * time.Second
}

func deliver(ctx context.Context, smtpCfg settings.EmailSettings, mode TransportMode, timeout time.Duration, from string, to []string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(smtpCfg.Host, strconv.Itoa(smtpCfg.Port))
	tlsConfig := &tls.Config{ServerName: smtpCfg.Host}
	dialer := &net.Dialer{Timeout: timeout}

	var conn net.Conn
	var err error
	if mode == TransportImplicitTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, smtpCfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	switch mode {
	case TransportStartTLS:
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("server does not offer STARTTLS")
		}
		if err := c.StartTLS(tlsConfig); err != nil {
			return err
		}
	case TransportOpportunistic:
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return err
			}
		}
	}

	if smtpCfg.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", smtpCfg.User, smtpCfg.Password, smtpCfg.Host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("recipient %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from mail.Address, to []string, replyTo, subject, messageID, html string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	if replyTo != "" {
		buf.WriteString(fmt.Sprintf("Reply-To: %s\r\n", replyTo))
	}
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", now.Format(time.RFC1123Z)))
	buf.WriteString(fmt.Sprintf("Message-ID: %s\r\n", messageID))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(html)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}
