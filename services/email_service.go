package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/campusfest/techfest-system/config"
)

const accountCreatedTemplate = `<html><body>
<p>Hi {{.Name}},</p>
<p>An account was created for you while registering you for an event.</p>
<p>You can log in with:</p>
<ul>
<li>Email: {{.Email}}</li>
<li>Password: {{.Password}}</li>
</ul>
<p>Please change your password after your first login.</p>
</body></html>`

const registrationConfirmedTemplate = `<html><body>
<p>Hi {{.Name}},</p>
<p>Your registration for <b>{{.EventName}}</b> is confirmed.</p>
<p>See you there!</p>
</body></html>`

type EmailService struct {
	cfg         *config.Config
	accountTmpl *template.Template
	confirmTmpl *template.Template
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		cfg:         cfg,
		accountTmpl: template.Must(template.New("account_created").Parse(accountCreatedTemplate)),
		confirmTmpl: template.Must(template.New("registration_confirmed").Parse(registrationConfirmedTemplate)),
	}
}

// SendAccountCreatedEmail delivers the generated credentials for an account
// created during manual registration. This is the only channel the password
// ever travels on.
func (s *EmailService) SendAccountCreatedEmail(to, name, password string) error {
	data := struct {
		Name     string
		Email    string
		Password string
	}{
		Name:     name,
		Email:    to,
		Password: password,
	}

	var body bytes.Buffer
	if err := s.accountTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render account created email: %w", err)
	}

	return s.send([]string{to}, "Your event registration account", body.String())
}

// SendRegistrationConfirmationEmail confirms a successful self-registration.
func (s *EmailService) SendRegistrationConfirmationEmail(to, name, eventName string) error {
	data := struct {
		Name      string
		EventName string
	}{
		Name:      name,
		EventName: eventName,
	}

	var body bytes.Buffer
	if err := s.confirmTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render registration confirmation email: %w", err)
	}

	return s.send([]string{to}, "Registration confirmed: "+eventName, body.String())
}

func (s *EmailService) send(to []string, subject, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create smtp client: %w", err)
		}
	} else {
		// STARTTLS (usually port 587).
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls failed: %w", err)
		}
	}
	defer client.Quit()

	if s.cfg.SMTPUser != "" {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write smtp message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close smtp message: %w", err)
	}

	return nil
}
