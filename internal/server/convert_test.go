package server

import (
	"encoding/json"
	"reflect"
	"testing"

	cleanuptypes "github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
)

func sampleMask() maskRegionAPI {
	return maskRegionAPI{
		ID:           "m-1",
		MaskType:     "vendor_logo",
		Region:       maskBBoxAPI{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
		Confidence:   0.87,
		ApplyMode:    "applied",
		RiskLevel:    "medium",
		PageScope:    "specific",
		Pages:        []int{1, 3},
		IncludeZones: []string{"header"},
		ExcludeZones: []string{"totals_box"},
		Origin:       "vendor_rule",
		OriginReason: "matched vendor fingerprint",
		WhyDetected:  "logo detector hit",
	}
}

func TestMaskShieldRoundTrip_Lossless(t *testing.T) {
	t.Parallel()

	in := sampleMask()
	s, err := shieldFromMask(in)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	out := maskFromShield(s)
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip changed values:\n in=%+v\nout=%+v", in, out)
	}

	inJSON, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	outJSON, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(inJSON) != string(outJSON) {
		t.Fatalf("json differs:\n in=%s\nout=%s", inJSON, outJSON)
	}
}

func TestShieldMaskRoundTrip_Lossless(t *testing.T) {
	t.Parallel()

	shield, err := cleanuptypes.NewCleanupShield(cleanuptypes.CleanupShield{
		ShieldType: "stamp",
		BBox:       cleanuptypes.NormalizedBBox{X: 0.5, Y: 0.5, Width: 0.2, Height: 0.1},
		Confidence: 0.42,
		ApplyMode:  cleanuptypes.ApplyModeSuggested,
		RiskLevel:  cleanuptypes.RiskLow,
		Provenance: cleanuptypes.ShieldProvenance{
			Source:      cleanuptypes.SourceAutoDetected,
			WhyDetected: "stamp classifier",
		},
		WhyDetected: "stamp classifier",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	back, err := shieldFromMask(maskFromShield(shield))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !reflect.DeepEqual(shield, back) {
		t.Fatalf("round trip changed values:\n in=%+v\nout=%+v", shield, back)
	}
}

func TestShieldFromMask_RejectsUnknownOrigin(t *testing.T) {
	t.Parallel()

	m := sampleMask()
	m.Origin = "ouija_board"
	if _, err := shieldFromMask(m); err == nil {
		t.Fatal("expected error")
	}
}

func TestShieldFromMask_RejectsInvalidRegion(t *testing.T) {
	t.Parallel()

	m := sampleMask()
	m.Region.Width = 0
	if _, err := shieldFromMask(m); err == nil {
		t.Fatal("expected error")
	}
}

func TestZonesFromAPI(t *testing.T) {
	t.Parallel()

	zones := zonesFromAPI([]criticalZoneAPI{
		{ZoneID: "totals_box", Region: maskBBoxAPI{X: 0.6, Y: 0.8, Width: 0.3, Height: 0.1}},
	})
	if len(zones) != 1 {
		t.Fatalf("len=%d", len(zones))
	}
	if zones[0].ZoneID != "totals_box" || zones[0].BBox.X != 0.6 {
		t.Fatalf("zone=%+v", zones[0])
	}
}
