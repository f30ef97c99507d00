// Package mail delivers the account e-mails (verification and password
// reset). Delivery never returns an error: callers inspect Result.Success and
// decide whether a failure matters for their flow.
package mail

import "context"

// Message is one outgoing e-mail. Text is optional.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Result reports the outcome of a delivery attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	msgNotConfigured = "Configuração de email incompleta."
	msgSent          = "Email enviado com sucesso."
	msgFailed        = "Falha ao enviar email."
)

func sent() Result          { return Result{Success: true, Message: msgSent} }
func failed() Result        { return Result{Success: false, Message: msgFailed} }
func notConfigured() Result { return Result{Success: false, Message: msgNotConfigured} }

// Notifier sends a message.
type Notifier interface {
	Send(ctx context.Context, msg Message) Result
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) Result

func (f NotifierFunc) Send(ctx context.Context, msg Message) Result {
	return f(ctx, msg)
}
