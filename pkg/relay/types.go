package relay

import (
	"encoding/json"
	"time"
)

// Account roles as reported by the relay
const (
	RoleMaster = "master"
	RoleSlave  = "slave"
)

// Connection is one entry of the relay's liveness snapshot. The dashboard
// never mutates connections; they are owned wholesale by the relay and
// refreshed by polling.
type Connection struct {
	AccountID     string    `json:"account_id"`
	Role          string    `json:"role"`
	Online        bool      `json:"online"`
	TradeAllowed  bool      `json:"trade_allowed"`
	Enabled       bool      `json:"enabled"`
	Primary       bool      `json:"primary"`
	Broker        string    `json:"broker"`
	Platform      string    `json:"platform"`
	Balance       float64   `json:"balance"`
	Equity        float64   `json:"equity"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// CopyLink is a configured copy relationship from one master account to
// one slave account. Params carries the copy parameters (lot sizing,
// symbol mapping, sync policy); the dashboard treats them as opaque and
// round-trips them untouched.
type CopyLink struct {
	ID            int64           `json:"id"`
	MasterAccount string          `json:"master_account"`
	SlaveAccount  string          `json:"slave_account"`
	Enabled       bool            `json:"enabled"`
	Params        json.RawMessage `json:"params,omitempty"`
}

// Equal reports whether two links carry the same record, params included.
func (l CopyLink) Equal(other CopyLink) bool {
	return l.ID == other.ID &&
		l.MasterAccount == other.MasterAccount &&
		l.SlaveAccount == other.SlaveAccount &&
		l.Enabled == other.Enabled &&
		string(l.Params) == string(other.Params)
}
