package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

var (
	//go:embed templates/*.html
	emailTemplates embed.FS

	verifyTemplate = template.Must(template.New("verify_email.html").ParseFS(emailTemplates, "templates/verify_email.html"))
	resetTemplate  = template.Must(template.New("reset_password.html").ParseFS(emailTemplates, "templates/reset_password.html"))
)

const (
	VerificationSubject = "Verifique seu Email"
	ResetSubject        = "Redefinição de Senha"
)

// VerificationLink builds {baseURL}/auth/verify-email?token={token}.
func VerificationLink(baseURL, token string) string {
	return tokenLink(baseURL, "/auth/verify-email", token)
}

// ResetLink builds {baseURL}/auth/reset-password?token={token}.
func ResetLink(baseURL, token string) string {
	return tokenLink(baseURL, "/auth/reset-password", token)
}

func tokenLink(baseURL, path, token string) string {
	return strings.TrimRight(baseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// VerificationMessage renders the e-mail sent after registration.
func VerificationMessage(to, link string) (Message, error) {
	html, err := render(verifyTemplate, link)
	if err != nil {
		return Message{}, fmt.Errorf("render verification template: %w", err)
	}
	return Message{
		To:      to,
		Subject: VerificationSubject,
		HTML:    html,
		Text:    "Para verificar seu email, acesse: " + link,
	}, nil
}

// ResetMessage renders the password reset e-mail.
func ResetMessage(to, link string) (Message, error) {
	html, err := render(resetTemplate, link)
	if err != nil {
		return Message{}, fmt.Errorf("render password reset template: %w", err)
	}
	return Message{
		To:      to,
		Subject: ResetSubject,
		HTML:    html,
		Text:    "Para redefinir sua senha, acesse: " + link,
	}, nil
}

func render(tmpl *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Link string }{Link: link}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
