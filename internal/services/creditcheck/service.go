package creditcheck

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/interfaces"
)

// Service triggers broker credit checks when a match fires. The check itself
// runs in an external system; this side only records the trigger so the
// downstream worker picks it up. Triggers are keyed under
// "creditcheck:<tenant>:<broker>" so repeat matches against the same broker
// do not pile up duplicate requests.
type Service struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

func NewService(kv interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{kv: kv, logger: logger}
}

// TriggerCheck records a pending credit check for the broker. A broker with
// no usable identifier is skipped; there is nothing to check.
func (s *Service) TriggerCheck(ctx context.Context, tenantID, brokerCompany, brokerMC string) error {
	ident := strings.TrimSpace(brokerMC)
	if ident == "" {
		ident = strings.ToLower(strings.TrimSpace(brokerCompany))
	}
	if ident == "" {
		s.logger.Debug().Str("tenant_id", tenantID).Msg("Credit check skipped, no broker identifier")
		return nil
	}

	key := "creditcheck:" + tenantID + ":" + ident
	if err := s.kv.Set(ctx, key, "pending"); err != nil {
		return err
	}

	s.logger.Info().
		Str("tenant_id", tenantID).
		Str("broker", ident).
		Msg("Broker credit check triggered")
	return nil
}
