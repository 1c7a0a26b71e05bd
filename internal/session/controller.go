// Package session owns the live state of one dashboard session per company:
// the latest committed monitoring snapshot, the notification queue, the
// widget order, and the alert-detail modal. All mutable state lives here;
// the response engine and the handlers only read from it.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"vigia/internal/models"
	"vigia/internal/monitor"
)

// Rand is the subset of math/rand the controller needs, injectable so tests
// can pin the notification roulette.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Fallback fabricates a snapshot when the upstream source fails.
type Fallback interface {
	Synthesize(ctx context.Context, now time.Time) *models.Snapshot
}

// Publisher receives serialized session events (snapshot commits and
// notification changes). The websocket hub satisfies this.
type Publisher interface {
	Broadcast(message []byte)
}

// DefaultWidgetOrder is the widget layout every new session starts with.
var DefaultWidgetOrder = []string{"firewall", "switch", "database", "internet", "alerts"}

// Options configures a Controller. Zero durations fall back to the demo
// defaults used by the original dashboard.
type Options struct {
	Company               string
	RefreshInterval       time.Duration
	NotificationDelay     time.Duration
	NotificationMinPeriod time.Duration
	NotificationMaxPeriod time.Duration
	NotificationTTL       time.Duration
	NotificationChance    float64
	MaxNotifications      int
	Rand                  Rand
	Source                monitor.Source
	Fallback              Fallback
	Publisher             Publisher
	Logger                zerolog.Logger
}

func (o *Options) applyDefaults() {
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = 5 * time.Second
	}
	if o.NotificationDelay <= 0 {
		o.NotificationDelay = 3 * time.Second
	}
	if o.NotificationMinPeriod <= 0 {
		o.NotificationMinPeriod = 15 * time.Second
	}
	if o.NotificationMaxPeriod < o.NotificationMinPeriod {
		o.NotificationMaxPeriod = o.NotificationMinPeriod + 10*time.Second
	}
	if o.NotificationTTL <= 0 {
		o.NotificationTTL = 5 * time.Second
	}
	if o.NotificationChance <= 0 {
		o.NotificationChance = 0.6
	}
	if o.MaxNotifications <= 0 {
		o.MaxNotifications = 3
	}
}

// Controller drives one dashboard session. Construct with NewController and
// release with Close; there are no package-level singletons.
type Controller struct {
	opts Options
	log  zerolog.Logger

	mu            sync.RWMutex
	snapshot      *models.Snapshot
	notifications []models.Notification
	widgetOrder   []string
	detail        *models.Alert
	transcripts   map[string][]models.ChatMessage
	dismissTimers map[string]*time.Timer
	closed        bool

	refreshing atomic.Bool
	fetchGen   atomic.Uint64

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewController builds a stopped controller. Call Start to begin polling.
func NewController(opts Options) *Controller {
	opts.applyDefaults()
	return &Controller{
		opts:          opts,
		log:           opts.Logger.With().Str("company", opts.Company).Logger(),
		widgetOrder:   append([]string(nil), DefaultWidgetOrder...),
		dismissTimers: make(map[string]*time.Timer),
		stop:          make(chan struct{}),
	}
}

// Start performs the initial fetch and launches the refresh and
// notification loops.
func (c *Controller) Start() {
	if c == nil {
		return
	}
	c.RefreshNow(context.Background())

	c.wg.Add(2)
	go c.refreshLoop()
	go c.notificationLoop()
}

// Close cancels every timer owned by the session and waits for the loops to
// exit. Dismiss timers firing after Close are no-ops.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, t := range c.dismissTimers {
		t.Stop()
		delete(c.dismissTimers, id)
	}
	c.mu.Unlock()
	close(c.stop)
	c.wg.Wait()
}

func (c *Controller) refreshLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.RefreshNow(context.Background())
		case <-c.stop:
			return
		}
	}
}

// RefreshNow fetches a snapshot and commits it. At most one refresh runs at
// a time; a call overlapping an in-flight refresh is ignored, and a fetch
// that loses the generation race is discarded rather than committed, so a
// slow response can never overwrite a newer snapshot.
func (c *Controller) RefreshNow(ctx context.Context) {
	if c == nil {
		return
	}
	if !c.refreshing.CompareAndSwap(false, true) {
		c.log.Debug().Msg("refresh already in flight, skipping tick")
		return
	}
	defer c.refreshing.Store(false)

	gen := c.fetchGen.Add(1)
	snap := c.acquire(ctx)
	if snap == nil {
		return
	}
	if c.fetchGen.Load() != gen {
		c.log.Debug().Msg("stale refresh discarded")
		return
	}
	c.commit(snap)
}

// acquire tries the upstream source and degrades to the synthesizer on any
// failure. The degradation is logged but never surfaced to the session.
func (c *Controller) acquire(ctx context.Context) *models.Snapshot {
	if c.opts.Source != nil {
		snap, err := c.opts.Source.Fetch(ctx, c.opts.Company)
		if err == nil {
			return snap
		}
		c.log.Warn().Err(err).Msg("monitoring upstream unavailable, synthesizing snapshot")
	}
	if c.opts.Fallback == nil {
		return nil
	}
	return c.opts.Fallback.Synthesize(ctx, time.Now())
}

func (c *Controller) commit(snap *models.Snapshot) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.snapshot = snap
	c.mu.Unlock()
	c.publish("snapshot", snap)
}

// Snapshot returns the most recently committed snapshot. The result is
// replaced wholesale on every refresh and must be treated as read-only.
func (c *Controller) Snapshot() *models.Snapshot {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// WidgetOrder returns a copy of the current widget ordering.
func (c *Controller) WidgetOrder() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.widgetOrder...)
}

// ReorderWidget moves widget fromID to the position toID currently
// occupies: fromID is removed and reinserted at toID's pre-removal index.
// The drag gesture applies this on every enter event, so the operation must
// be cheap and idempotent for fromID == toID and unknown ids.
func (c *Controller) ReorderWidget(fromID, toID string) {
	if c == nil || fromID == toID {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fromIdx, toIdx := -1, -1
	for i, id := range c.widgetOrder {
		switch id {
		case fromID:
			fromIdx = i
		case toID:
			toIdx = i
		}
	}
	if fromIdx < 0 || toIdx < 0 {
		return
	}
	order := append([]string(nil), c.widgetOrder...)
	order = append(order[:fromIdx], order[fromIdx+1:]...)
	if toIdx > len(order) {
		toIdx = len(order)
	}
	order = append(order[:toIdx], append([]string{fromID}, order[toIdx:]...)...)
	c.widgetOrder = order
}

// OpenAlertDetail opens the detail modal for the alert with the given id
// from the current snapshot, replacing any alert already shown.
func (c *Controller) OpenAlertDetail(alertID string) (models.Alert, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return models.Alert{}, false
	}
	for _, a := range c.snapshot.Alerts {
		if a.ID == alertID {
			alert := a
			c.detail = &alert
			return alert, true
		}
	}
	return models.Alert{}, false
}

// CloseAlertDetail closes the detail modal. Closing an already-closed modal
// is a no-op.
func (c *Controller) CloseAlertDetail() {
	c.mu.Lock()
	c.detail = nil
	c.mu.Unlock()
}

// AlertDetail returns the alert currently shown in the modal, if any.
func (c *Controller) AlertDetail() (models.Alert, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.detail == nil {
		return models.Alert{}, false
	}
	return *c.detail, true
}

type event struct {
	Type    string `json:"type"`
	Company string `json:"company"`
	Data    any    `json:"data,omitempty"`
}

func (c *Controller) publish(eventType string, data any) {
	if c.opts.Publisher == nil {
		return
	}
	payload, err := json.Marshal(event{Type: eventType, Company: c.opts.Company, Data: data})
	if err != nil {
		c.log.Error().Err(err).Str("event", eventType).Msg("failed to encode session event")
		return
	}
	c.opts.Publisher.Broadcast(payload)
}
