package viewmodel

import "sync"

// Account is the derived per-account view: liveness, local enable
// intent, the cascaded effective state, and UI-only flags that survive
// data refreshes.
type Account struct {
	AccountID     string
	Role          string
	Online        bool
	TradeAllowed  bool
	Enabled       bool
	Active        bool
	Warning       bool
	Error         bool
	StatusMessage string
	Expanded      bool
	Broker        string
	Platform      string
	Balance       float64
	Equity        float64
}

// Overrides is the single explicit map of local enable intents layered
// over the server flags. A local override wins until it is cleared by an
// explicit resync.
type Overrides struct {
	mu      sync.RWMutex
	enabled map[string]bool
}

// NewOverrides creates an empty override map.
func NewOverrides() *Overrides {
	return &Overrides{enabled: make(map[string]bool)}
}

// SetEnabled records a local enable intent for the account.
func (o *Overrides) SetEnabled(accountID string, enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled[accountID] = enabled
}

// Get returns the effective intent: the local override when present,
// otherwise the server default.
func (o *Overrides) Get(accountID string, serverDefault bool) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if v, ok := o.enabled[accountID]; ok {
		return v
	}
	return serverDefault
}

// Resync drops the local override for the account, restoring server
// precedence.
func (o *Overrides) Resync(accountID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.enabled, accountID)
}
