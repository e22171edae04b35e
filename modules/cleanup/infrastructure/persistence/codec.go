package persistence

import (
	"encoding/json"

	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
	"github.com/rowanvale/Ledgers-And-Lanterns/pkg/httperr"
)

// shieldRecord is the stored jsonb shape of one shield. Sources are stored
// as stable strings, not ordinals, so reordering the enum can never change
// persisted meaning.
type shieldRecord struct {
	ID          string               `json:"id"`
	ShieldType  string               `json:"shield_type"`
	BBox        types.NormalizedBBox `json:"normalized_bbox"`
	Confidence  float64              `json:"confidence"`
	ApplyMode   string               `json:"apply_mode"`
	RiskLevel   string               `json:"risk_level"`
	PageScope   string               `json:"page_scope"`
	Pages       []int                `json:"pages,omitempty"`
	Include     []string             `json:"include_zones,omitempty"`
	Exclude     []string             `json:"exclude_zones,omitempty"`
	Source      string               `json:"source"`
	SourceWhy   string               `json:"source_why"`
	WhyDetected string               `json:"why_detected"`
}

func encodeShields(shields []types.CleanupShield) ([]byte, error) {
	records := make([]shieldRecord, 0, len(shields))
	for _, s := range shields {
		records = append(records, shieldRecord{
			ID:          s.ID,
			ShieldType:  s.ShieldType,
			BBox:        s.BBox,
			Confidence:  s.Confidence,
			ApplyMode:   string(s.ApplyMode),
			RiskLevel:   string(s.RiskLevel),
			PageScope:   string(s.PageTarget.Scope),
			Pages:       s.PageTarget.Pages,
			Include:     s.ZoneTarget.IncludeZones,
			Exclude:     s.ZoneTarget.ExcludeZones,
			Source:      s.Provenance.Source.String(),
			SourceWhy:   s.Provenance.WhyDetected,
			WhyDetected: s.WhyDetected,
		})
	}
	return json.Marshal(records)
}

func decodeShields(payload []byte) ([]types.CleanupShield, error) {
	var records []shieldRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, httperr.NewDecode("cleanup: corrupt rule set payload", err)
	}

	out := make([]types.CleanupShield, 0, len(records))
	for _, r := range records {
		source, err := types.ParseShieldSource(r.Source)
		if err != nil {
			return nil, httperr.NewDecode("cleanup: unknown shield source "+r.Source, err)
		}
		s := types.CleanupShield{
			ID:          r.ID,
			ShieldType:  r.ShieldType,
			BBox:        r.BBox,
			Confidence:  r.Confidence,
			ApplyMode:   types.ApplyMode(r.ApplyMode),
			RiskLevel:   types.RiskLevel(r.RiskLevel),
			PageTarget:  types.PageTarget{Scope: types.PageScope(r.PageScope), Pages: r.Pages},
			ZoneTarget:  types.ZoneTarget{IncludeZones: r.Include, ExcludeZones: r.Exclude},
			Provenance:  types.ShieldProvenance{Source: source, WhyDetected: r.SourceWhy},
			WhyDetected: r.WhyDetected,
		}
		if !s.ApplyMode.Valid() || !s.RiskLevel.Valid() {
			return nil, httperr.NewDecode("cleanup: invalid stored shield "+r.ID, nil)
		}
		if err := s.PageTarget.Validate(); err != nil {
			return nil, httperr.NewDecode("cleanup: invalid stored page target for shield "+r.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}
