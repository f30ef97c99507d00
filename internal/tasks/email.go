package tasks

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/mail"
)

// SendEmailTask delivers one account e-mail outside the request path.
type SendEmailTask struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

// Config returns the queue configuration for e-mail tasks. Delivery is
// attempted once; a failed reset e-mail is not resent.
func (t SendEmailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_email",
		MaxAttempts: 1,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			// Data stays nil: message bodies carry one-time tokens.
		},
	}
}

func (t SendEmailTask) message() mail.Message {
	return mail.Message{To: t.To, Subject: t.Subject, HTML: t.HTML, Text: t.Text}
}

// SendEmailProcessor creates a processor function for SendEmailTask.
func SendEmailProcessor(notifier mail.Notifier) backlite.QueueProcessor[SendEmailTask] {
	return func(ctx context.Context, task SendEmailTask) error {
		if notifier == nil {
			return errors.New("mail notifier not configured")
		}

		res := notifier.Send(ctx, task.message())
		if !res.Success {
			log.Printf("[TASK] E-mail %q to %s failed: %s", task.Subject, task.To, res.Message)
			return errors.New(res.Message)
		}

		log.Printf("[TASK] E-mail %q sent to %s", task.Subject, task.To)
		return nil
	}
}

// NewSendEmailQueue creates a backlite queue for e-mail tasks.
func NewSendEmailQueue(notifier mail.Notifier) backlite.Queue {
	return backlite.NewQueue(SendEmailProcessor(notifier))
}

const msgQueued = "Email enfileirado para envio."

// QueuedNotifier is a mail.Notifier that hands messages to the task queue
// instead of sending them inline.
type QueuedNotifier struct {
	client *Client
}

func NewQueuedNotifier(client *Client) *QueuedNotifier {
	return &QueuedNotifier{client: client}
}

// Send enqueues the message. Success means the task was stored, not that
// the e-mail was delivered.
func (n *QueuedNotifier) Send(_ context.Context, msg mail.Message) mail.Result {
	task := SendEmailTask{To: msg.To, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text}
	if _, err := n.client.Enqueue(task); err != nil {
		log.Printf("[TASK] Failed to enqueue e-mail to %s: %v", msg.To, err)
		return mail.Result{Success: false, Message: err.Error()}
	}
	return mail.Result{Success: true, Message: msgQueued}
}
