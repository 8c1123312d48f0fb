package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	defaultIdleTimeout = 10 * time.Minute
	chatQueueSize      = 32
)

// chatWorker handles the updates of one chat in arrival order.
type chatWorker struct {
	jobs chan tgbotapi.Update
	// pending counts updates promised to jobs but not yet received;
	// guarded by Bot.mu.
	pending int
}

// updateChatID returns the chat an update belongs to.
func updateChatID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		if m := update.CallbackQuery.Message; m != nil && m.Chat != nil {
			return m.Chat.ID, true
		}
	case update.Message != nil:
		if update.Message.Chat != nil {
			return update.Message.Chat.ID, true
		}
	}
	return 0, false
}

// enqueue hands update to its chat's worker, starting one if needed. It must
// only be called from the polling loop so that the queue order is the arrival
// order. It blocks while the chat's queue is full.
func (b *Bot) enqueue(ctx context.Context, update tgbotapi.Update) {
	chatID, ok := updateChatID(update)
	if !ok {
		return
	}

	b.mu.Lock()
	w, ok := b.workers[chatID]
	if !ok {
		w = &chatWorker{jobs: make(chan tgbotapi.Update, chatQueueSize)}
		b.workers[chatID] = w
		b.wg.Add(1)
		go b.runWorker(ctx, chatID, w)
	}
	w.pending++
	b.mu.Unlock()

	w.jobs <- update
}

// runWorker drains one chat's queue. It retires after idleTimeout without
// updates, and on shutdown handles what is already queued before exiting.
func (b *Bot) runWorker(ctx context.Context, chatID int64, w *chatWorker) {
	defer b.wg.Done()

	idle := time.NewTimer(b.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case update := <-w.jobs:
			b.received(w)
			b.handleUpdate(ctx, update)
			resetTimer(idle, b.idleTimeout)

		case <-idle.C:
			b.mu.Lock()
			if w.pending == 0 {
				delete(b.workers, chatID)
				b.mu.Unlock()
				return
			}
			b.mu.Unlock()
			idle.Reset(b.idleTimeout)

		case <-ctx.Done():
			drainCtx := context.WithoutCancel(ctx)
			for {
				b.mu.Lock()
				if w.pending == 0 {
					delete(b.workers, chatID)
					b.mu.Unlock()
					b.logger.Debug("Chat worker stopped", zap.Int64("chat_id", chatID))
					return
				}
				b.mu.Unlock()

				update := <-w.jobs
				b.received(w)
				b.handleUpdate(drainCtx, update)
			}
		}
	}
}

func (b *Bot) received(w *chatWorker) {
	b.mu.Lock()
	w.pending--
	b.mu.Unlock()
}

func (b *Bot) workerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.workers)
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
