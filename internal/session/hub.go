package session

import "sync"

// Hub lazily starts and hands out one Controller per company. It is the
// composition root's single owner of session state; handlers go through it.
type Hub struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	build       func(company string) *Controller
}

// NewHub builds a hub. build is invoked once per company to construct (but
// not start) its controller.
func NewHub(build func(company string) *Controller) *Hub {
	return &Hub{
		controllers: make(map[string]*Controller),
		build:       build,
	}
}

// Get returns the running controller for a company, starting one on first
// use.
func (h *Hub) Get(company string) *Controller {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.controllers[company]; ok {
		return c
	}
	c := h.build(company)
	h.controllers[company] = c
	c.Start()
	return c
}

// Close tears down every session.
func (h *Hub) Close() {
	h.mu.Lock()
	controllers := make([]*Controller, 0, len(h.controllers))
	for _, c := range h.controllers {
		controllers = append(controllers, c)
	}
	h.controllers = make(map[string]*Controller)
	h.mu.Unlock()
	for _, c := range controllers {
		c.Close()
	}
}
