// Package viewmodel derives per-account aggregate state from the
// connection snapshot and the copy-link list. Every change triggers a
// full rebuild; only the UI-held enabled intent and expansion flag carry
// over between builds.
package viewmodel

import (
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

// Builder derives account view-models.
type Builder struct {
	overrides *Overrides
}

// NewBuilder creates a builder over the given override map.
func NewBuilder(overrides *Overrides) *Builder {
	return &Builder{overrides: overrides}
}

// Build produces one view-model per account referenced by any link. prev
// is the previous build's output; its Enabled and Expanded fields are
// reused by account id so local UI state survives data refreshes.
//
// Effective-state rules:
//   - a master is active iff online, trade-allowed, and locally enabled;
//   - a slave is additionally inactive when any of its currently-enabled
//     incoming links has an inactive master (strict per-master
//     conjunction);
//   - online but trade-not-allowed surfaces as a warning;
//   - a primary account that is entirely offline surfaces as an error,
//     which suppresses the warning state.
func (b *Builder) Build(
	conns map[string]relay.Connection,
	links []relay.CopyLink,
	prev map[string]*Account,
) map[string]*Account {
	masters := make(map[string]bool)
	slaves := make(map[string]bool)
	for i := range links {
		masters[links[i].MasterAccount] = true
		slaves[links[i].SlaveAccount] = true
	}

	accounts := make(map[string]*Account, len(masters)+len(slaves))
	addAccount := func(id, inferredRole string) {
		if _, ok := accounts[id]; ok {
			return
		}
		conn, connected := conns[id]

		role := inferredRole
		if connected && conn.Role != "" {
			role = conn.Role
		}

		// Enabled intent: local override wins over the server flag.
		// Accounts the registry does not know fall back to the previous
		// build so a poll gap cannot flip intent.
		def := conn.Enabled
		expanded := false
		if p, ok := prev[id]; ok {
			if !connected {
				def = p.Enabled
			}
			expanded = p.Expanded
		}
		enabled := b.overrides.Get(id, def)

		accounts[id] = &Account{
			AccountID:    id,
			Role:         role,
			Online:       connected && conn.Online,
			TradeAllowed: connected && conn.TradeAllowed,
			Enabled:      enabled,
			Expanded:     expanded,
			Broker:       conn.Broker,
			Platform:     conn.Platform,
			Balance:      conn.Balance,
			Equity:       conn.Equity,
		}
	}
	for id := range masters {
		addAccount(id, relay.RoleMaster)
	}
	for id := range slaves {
		addAccount(id, relay.RoleSlave)
	}

	// Base activity, before the cascade.
	for _, a := range accounts {
		a.Active = a.Online && a.TradeAllowed && a.Enabled
	}

	// Cascade to a fixpoint: a slave is inactive if any enabled incoming
	// link's master is inactive. Iterating handles chains and cycles of
	// dual-role accounts; deactivation is monotone so this terminates.
	for changed := true; changed; {
		changed = false
		for i := range links {
			l := &links[i]
			if !l.Enabled {
				continue
			}
			master, ok := accounts[l.MasterAccount]
			if !ok {
				continue
			}
			slave, ok := accounts[l.SlaveAccount]
			if !ok {
				continue
			}
			if !master.Active && slave.Active {
				slave.Active = false
				changed = true
			}
		}
	}

	for id, a := range accounts {
		conn := conns[id]
		switch {
		case !a.Online && conn.Primary:
			a.Error = true
			a.StatusMessage = "connection offline"
		case a.Online && !a.TradeAllowed:
			a.Warning = true
			a.StatusMessage = "trading not allowed"
		case !a.Online:
			a.StatusMessage = "offline"
		case !a.Active && a.Enabled:
			// Online, tradeable and enabled, yet inactive: an upstream
			// master is down. Warning-class, not an error.
			a.Warning = true
			a.StatusMessage = "source account inactive"
		}
	}

	return accounts
}
