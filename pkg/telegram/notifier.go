package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Notifier пересылает события жизненного цикла планов в чат координаторов.
// Publish не блокирует: сообщения уходят из очереди в Run.
type Notifier struct {
	sender Sender
	chatID int64
	queue  chan tgbotapi.MessageConfig
	logger *logrus.Entry
}

// planPayload - поля полезной нагрузки, которые попадают в уведомление
type planPayload struct {
	Plan *struct {
		ID   string     `json:"id"`
		Name string     `json:"name"`
		Date *time.Time `json:"date"`
	} `json:"plan"`
	PlanID  string `json:"planId"`
	Deleted *int64 `json:"deleted"`
}

func NewNotifier(sender Sender, chatID int64, logger *logrus.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		chatID: chatID,
		queue:  make(chan tgbotapi.MessageConfig, 64),
		logger: logger.WithField("component", "telegram"),
	}
}

// Publish ставит уведомление в очередь. Остальные события игнорируются.
func (n *Notifier) Publish(_ context.Context, room, name string, payload any) error {
	text, ok := n.format(room, name, payload)
	if !ok {
		return nil
	}

	select {
	case n.queue <- tgbotapi.NewMessage(n.chatID, text):
	default:
		n.logger.WithField("event", name).Warn("Notification queue full, message dropped")
	}
	return nil
}

// Run отправляет сообщения из очереди до отмены ctx
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.queue:
			if _, err := n.sender.Send(msg); err != nil {
				n.logger.WithError(err).Error("Failed to send notification")
			}
		}
	}
}

func (n *Notifier) format(room, name string, payload any) (string, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", false
	}
	var p planPayload
	_ = json.Unmarshal(raw, &p)

	switch name {
	case "plan-created":
		if p.Plan == nil {
			return "", false
		}
		text := fmt.Sprintf("📋 Nouveau plan « %s »", p.Plan.Name)
		if p.Plan.Date != nil {
			text += " du " + p.Plan.Date.Format("02/01/2006")
		}
		return text + fmt.Sprintf(" [%s]", room), true
	case "plan-deleted":
		return fmt.Sprintf("🗑 Plan %s supprimé [%s]", p.PlanID, room), true
	case "plan-updated":
		// Массовое удаление приходит как plan-updated со счётчиком
		if p.Deleted == nil {
			return "", false
		}
		return fmt.Sprintf("🧹 %d plan(s) supprimé(s) par nettoyage [%s]", *p.Deleted, room), true
	}
	return "", false
}
