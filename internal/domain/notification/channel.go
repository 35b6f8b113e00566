package notification

import (
	"context"
	"errors"
)

// ErrQueueFull возвращается очередью, если в ней нет места.
var ErrQueueFull = errors.New("notification queue is full")

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Notifier - порт, через который ядро сообщает о событиях заявки.
// Вызов не блокирует и ничего не возвращает: доставка происходит в фоне,
// ошибки только логируются.
type Notifier interface {
	Notify(logID string, t MailType)
}

// Mailer отправляет готовое письмо (SMTP, лог и т.д.).
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// Composer собирает письмо по заявке: получатель, тема и текст.
type Composer interface {
	Compose(ctx context.Context, req Request) (Mail, error)
}

// NotifierFunc позволяет использовать функцию как Notifier.
type NotifierFunc func(logID string, t MailType)

// Notify вызывает f.
func (f NotifierFunc) Notify(logID string, t MailType) {
	f(logID, t)
}
