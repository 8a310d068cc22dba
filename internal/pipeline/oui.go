package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/config"
	"github.com/arc-self/wifi-ingest-service/internal/measurement"
)

// OUIPolicy is the optional mobile-hotspot plug point. Prefixes are the
// first three octets of a BSSID ("aa:bb:cc"); matching rows are
// excluded, or merely surfaced in the logs, depending on the action.
type OUIPolicy struct {
	action   string
	prefixes map[string]struct{}
	logger   *zap.Logger
}

// NewOUIPolicy builds the policy from configuration. It returns nil
// when the hook is disabled so callers can skip the lookup entirely.
func NewOUIPolicy(cfg config.OUIConfig, logger *zap.Logger) *OUIPolicy {
	if !cfg.Enabled || len(cfg.Prefixes) == 0 {
		return nil
	}
	prefixes := make(map[string]struct{}, len(cfg.Prefixes))
	for _, p := range cfg.Prefixes {
		prefixes[NormalizeBSSID(p)] = struct{}{}
	}
	return &OUIPolicy{action: cfg.Action, prefixes: prefixes, logger: logger}
}

// Apply evaluates the policy against one measurement before emission.
// It returns true when the record must be excluded.
func (p *OUIPolicy) Apply(m *measurement.Measurement) bool {
	prefix := ouiPrefix(m.BSSID)
	if prefix == "" {
		return false
	}
	if _, hit := p.prefixes[prefix]; !hit {
		return false
	}

	switch p.action {
	case "exclude":
		p.logger.Debug("mobile-hotspot OUI excluded",
			zap.String("bssid", m.BSSID),
			zap.String("processing_batch_id", m.ProcessingBatchID),
		)
		return true
	case "log":
		p.logger.Info("mobile-hotspot OUI observed",
			zap.String("bssid", m.BSSID),
			zap.String("processing_batch_id", m.ProcessingBatchID),
		)
	default: // "flag"
		p.logger.Warn("mobile-hotspot OUI flagged",
			zap.String("bssid", m.BSSID),
			zap.String("processing_batch_id", m.ProcessingBatchID),
		)
	}
	return false
}

// ouiPrefix returns the first three octets of a normalized BSSID.
func ouiPrefix(bssid string) string {
	parts := strings.SplitN(bssid, ":", 4)
	if len(parts) < 4 {
		return ""
	}
	return strings.Join(parts[:3], ":")
}
