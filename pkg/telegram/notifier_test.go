package telegram

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

func newTestNotifier(sender Sender) *Notifier {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewNotifier(sender, 42, logger)
}

func TestNotifierForwardsPlanLifecycle(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	plan := map[string]any{"plan": map[string]any{"id": "p1", "name": "Lundi", "date": date}}
	deleted := int64(3)

	require.NoError(t, n.Publish(ctx, "main", "plan-created", plan))
	require.NoError(t, n.Publish(ctx, "main", "worker-assigned", map[string]any{"planId": "p1"}))
	require.NoError(t, n.Publish(ctx, "main", "plan-updated", map[string]any{"plan": map[string]any{"id": "p1"}}))
	require.NoError(t, n.Publish(ctx, "main", "plan-updated", map[string]any{"deleted": deleted}))
	require.NoError(t, n.Publish(ctx, "main", "plan-deleted", map[string]any{"planId": "p1"}))

	require.Eventually(t, func() bool { return len(sender.texts()) == 3 }, time.Second, 10*time.Millisecond)
	texts := sender.texts()
	assert.Equal(t, "📋 Nouveau plan « Lundi » du 06/01/2025 [main]", texts[0])
	assert.Equal(t, "🧹 3 plan(s) supprimé(s) par nettoyage [main]", texts[1])
	assert.Equal(t, "🗑 Plan p1 supprimé [main]", texts[2])
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
}

func TestNotifierDropsWhenQueueFull(t *testing.T) {
	n := newTestNotifier(&fakeSender{})
	for i := 0; i < cap(n.queue)+5; i++ {
		require.NoError(t, n.Publish(context.Background(), "main", "plan-deleted", map[string]string{"planId": "p"}))
	}
	assert.Len(t, n.queue, cap(n.queue))
}
