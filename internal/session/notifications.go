package session

import (
	"time"

	"github.com/google/uuid"

	"vigia/internal/models"
)

// catalog holds the canned events the notification roulette samples from.
// Kind reuses the alert severity vocabulary.
var catalog = []models.Notification{
	{Kind: models.NotificationKindInfo, Title: "Backup", Message: "Backup automático concluído com sucesso"},
	{Kind: models.NotificationKindWarning, Title: "Tráfego", Message: "Pico de tráfego detectado no Switch Core"},
	{Kind: models.NotificationKindSuccess, Title: "Firmware", Message: "Firmware do Switch Core atualizado"},
	{Kind: models.NotificationKindDanger, Title: "Segurança", Message: "Múltiplas tentativas de invasão bloqueadas pelo firewall"},
	{Kind: models.NotificationKindInfo, Title: "Relatório", Message: "Relatório diário de disponibilidade gerado"},
	{Kind: models.NotificationKindWarning, Title: "Latência", Message: "Latência elevada no Link Internet Principal"},
}

// notificationLoop fires once after the initial delay, then repeatedly at a
// randomized interval. Each firing has a fixed chance of emitting one canned
// notification; the loop is independent of the snapshot refresh cycle.
func (c *Controller) notificationLoop() {
	defer c.wg.Done()
	timer := time.NewTimer(c.opts.NotificationDelay)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			c.maybeNotify()
			timer.Reset(c.nextNotificationPeriod())
		case <-c.stop:
			return
		}
	}
}

func (c *Controller) nextNotificationPeriod() time.Duration {
	span := c.opts.NotificationMaxPeriod - c.opts.NotificationMinPeriod
	if span <= 0 || c.opts.Rand == nil {
		return c.opts.NotificationMinPeriod
	}
	return c.opts.NotificationMinPeriod + time.Duration(c.opts.Rand.Float64()*float64(span))
}

func (c *Controller) maybeNotify() {
	if c.opts.Rand == nil || c.opts.Rand.Float64() >= c.opts.NotificationChance {
		return
	}
	template := catalog[c.opts.Rand.Intn(len(catalog))]
	c.PushNotification(template)
}

// PushNotification stamps identity onto the template, prepends it to the
// queue, evicts the oldest entries past the cap, and arms the auto-dismiss
// timer. Evicted notifications have their timers cancelled immediately.
func (c *Controller) PushNotification(template models.Notification) models.Notification {
	n := template
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.Notification{}
	}
	queue := make([]models.Notification, 0, len(c.notifications)+1)
	queue = append(queue, n)
	queue = append(queue, c.notifications...)
	for len(queue) > c.opts.MaxNotifications {
		evicted := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if t, ok := c.dismissTimers[evicted.ID]; ok {
			t.Stop()
			delete(c.dismissTimers, evicted.ID)
		}
	}
	c.notifications = queue
	c.dismissTimers[n.ID] = time.AfterFunc(c.opts.NotificationTTL, func() {
		c.DismissNotification(n.ID)
	})
	c.mu.Unlock()

	c.publish("notification", n)
	return n
}

// DismissNotification removes a notification by id. Both the auto-dismiss
// timer and explicit user action land here, so removal is idempotent: a
// timer firing for an id that was already dismissed is a no-op.
func (c *Controller) DismissNotification(id string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if t, ok := c.dismissTimers[id]; ok {
		t.Stop()
		delete(c.dismissTimers, id)
	}
	idx := -1
	for i, n := range c.notifications {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	c.notifications = append(c.notifications[:idx], c.notifications[idx+1:]...)
	c.mu.Unlock()

	c.publish("notification_dismissed", map[string]string{"id": id})
}

// Notifications returns a copy of the visible notification queue, newest
// first.
func (c *Controller) Notifications() []models.Notification {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}
