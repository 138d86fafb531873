package models

import (
	"strings"
	"time"
)

// Tenant is one dispatch company on the platform. Seeded from the tenants
// directory at startup; the pipeline only reads tenants.
type Tenant struct {
	ID   string `json:"id" toml:"id" badgerhold:"key"`
	Name string `json:"name" toml:"name"`

	// Mailboxes lists inbound addresses owned by the tenant, used to resolve
	// a queue item's tenant from the message recipient.
	Mailboxes []string `json:"mailboxes" toml:"mailboxes"`

	// DefaultCooldownSeconds applies when a hunt carries no override
	DefaultCooldownSeconds int `json:"default_cooldown_seconds,omitempty" toml:"default_cooldown_seconds"`

	// NotifyURL receives match event webhooks when set
	NotifyURL string `json:"notify_url,omitempty" toml:"notify_url"`

	CreatedAt time.Time `json:"created_at" toml:"-"`
}

// OwnsMailbox reports whether the address belongs to this tenant (case-insensitive)
func (t *Tenant) OwnsMailbox(address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	for _, m := range t.Mailboxes {
		if strings.ToLower(strings.TrimSpace(m)) == address {
			return true
		}
	}
	return false
}

// HintPack holds tenant-configured extraction hints applied as a last-resort
// fill for fields the format parsers left absent.
type HintPack struct {
	ID       string `json:"id" yaml:"id" badgerhold:"key"`
	TenantID string `json:"tenant_id" yaml:"tenant_id" badgerhold:"index"`
	Source   string `json:"source,omitempty" yaml:"source"` // empty = any source
	Hints    []Hint `json:"hints" yaml:"hints"`
}

// Hint is one regex extraction rule. Pattern must contain a single capture
// group; the capture fills Field when the field is still absent after the
// format parsers ran.
type Hint struct {
	Field   string `json:"field" yaml:"field"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Scope   string `json:"scope,omitempty" yaml:"scope"` // subject|body, default body
}
