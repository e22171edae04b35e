package server

import (
	cleanuptypes "github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
)

// The external cleanup API speaks "mask" where the domain speaks "shield".
// The two shapes carry identical information; conversion is a pure rename
// and must stay lossless in both directions.

type maskBBoxAPI struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type maskRegionAPI struct {
	ID           string      `json:"id,omitempty"`
	MaskType     string      `json:"mask_type"`
	Region       maskBBoxAPI `json:"region"`
	Confidence   float64     `json:"confidence"`
	ApplyMode    string      `json:"apply_mode"`
	RiskLevel    string      `json:"risk_level"`
	PageScope    string      `json:"page_scope"`
	Pages        []int       `json:"pages,omitempty"`
	IncludeZones []string    `json:"include_zones,omitempty"`
	ExcludeZones []string    `json:"exclude_zones,omitempty"`
	Origin       string      `json:"origin"`
	OriginReason string      `json:"origin_reason,omitempty"`
	WhyDetected  string      `json:"why_detected,omitempty"`
}

type criticalZoneAPI struct {
	ZoneID string      `json:"zone_id"`
	Region maskBBoxAPI `json:"region"`
}

func maskFromShield(s cleanuptypes.CleanupShield) maskRegionAPI {
	return maskRegionAPI{
		ID:       s.ID,
		MaskType: s.ShieldType,
		Region: maskBBoxAPI{
			X:      s.BBox.X,
			Y:      s.BBox.Y,
			Width:  s.BBox.Width,
			Height: s.BBox.Height,
		},
		Confidence:   s.Confidence,
		ApplyMode:    string(s.ApplyMode),
		RiskLevel:    string(s.RiskLevel),
		PageScope:    string(s.PageTarget.Scope),
		Pages:        s.PageTarget.Pages,
		IncludeZones: s.ZoneTarget.IncludeZones,
		ExcludeZones: s.ZoneTarget.ExcludeZones,
		Origin:       s.Provenance.Source.String(),
		OriginReason: s.Provenance.WhyDetected,
		WhyDetected:  s.WhyDetected,
	}
}

func shieldFromMask(m maskRegionAPI) (cleanuptypes.CleanupShield, error) {
	origin, err := cleanuptypes.ParseShieldSource(m.Origin)
	if err != nil {
		return cleanuptypes.CleanupShield{}, err
	}
	s := cleanuptypes.CleanupShield{
		ID:         m.ID,
		ShieldType: m.MaskType,
		BBox: cleanuptypes.NormalizedBBox{
			X:      m.Region.X,
			Y:      m.Region.Y,
			Width:  m.Region.Width,
			Height: m.Region.Height,
		},
		Confidence: m.Confidence,
		ApplyMode:  cleanuptypes.ApplyMode(m.ApplyMode),
		RiskLevel:  cleanuptypes.RiskLevel(m.RiskLevel),
		PageTarget: cleanuptypes.PageTarget{
			Scope: cleanuptypes.PageScope(m.PageScope),
			Pages: m.Pages,
		},
		ZoneTarget: cleanuptypes.ZoneTarget{
			IncludeZones: m.IncludeZones,
			ExcludeZones: m.ExcludeZones,
		},
		Provenance: cleanuptypes.ShieldProvenance{
			Source:      origin,
			WhyDetected: m.OriginReason,
		},
		WhyDetected: m.WhyDetected,
	}
	return cleanuptypes.NewCleanupShield(s)
}

func masksFromShields(shields []cleanuptypes.CleanupShield) []maskRegionAPI {
	out := make([]maskRegionAPI, 0, len(shields))
	for _, s := range shields {
		out = append(out, maskFromShield(s))
	}
	return out
}

func shieldsFromMasks(masks []maskRegionAPI) ([]cleanuptypes.CleanupShield, error) {
	out := make([]cleanuptypes.CleanupShield, 0, len(masks))
	for _, m := range masks {
		s, err := shieldFromMask(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func zoneFromAPI(z criticalZoneAPI) cleanuptypes.CriticalZone {
	return cleanuptypes.CriticalZone{
		ZoneID: z.ZoneID,
		BBox: cleanuptypes.NormalizedBBox{
			X:      z.Region.X,
			Y:      z.Region.Y,
			Width:  z.Region.Width,
			Height: z.Region.Height,
		},
	}
}

func zonesFromAPI(zones []criticalZoneAPI) []cleanuptypes.CriticalZone {
	out := make([]cleanuptypes.CriticalZone, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneFromAPI(z))
	}
	return out
}
