// Package alert avisa a los operadores por email cuando una corrida falla.
package alert

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/zskroll/internal/observability/logger"
)

// Mailer implementa rollover.Notifier usando SMTP.
type Mailer struct {
	Host               string
	Port               int
	From               string
	To                 string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// Notify envía el aviso en texto plano. El body ya viene armado por el runner.
func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	log := logger.L().With(
		logger.Component("Mailer"),
		logger.String("host", m.Host),
		logger.String("to", m.To),
	)

	msg := mail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := mail.NewDialer(m.Host, m.Port, m.User, m.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         m.Host,
		InsecureSkipVerify: m.InsecureSkipVerify, // solo dev
	}

	switch m.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: m.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	// go-mail no toma contexto; respetamos al menos la cancelación previa.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.DialAndSend(msg); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("alert: smtp send: %w", err)
	}

	log.Info("alert sent", logger.String("subject", subject))
	return nil
}
