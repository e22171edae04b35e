package services

import (
	"fmt"
	"sort"

	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
)

const (
	ZoneActionDowngradedToSuggested = "downgraded_to_suggested"
	ZoneActionElevatedRisk          = "elevated_risk"
	ZoneActionWarningAdded          = "warning_added"
)

// PrecedenceExplanation records why one shield proposal won over others
// covering the same region.
type PrecedenceExplanation struct {
	ShieldID          string               `json:"shield_id"`
	WinningSource     types.ShieldSource   `json:"winning_source"`
	OverriddenSources []types.ShieldSource `json:"overridden_sources"`
	Reason            string               `json:"reason"`
}

// ZoneConflict records a shield overlapping a critical zone and what the
// policy did about it.
type ZoneConflict struct {
	ShieldID     string  `json:"shield_id"`
	ZoneID       string  `json:"zone_id"`
	OverlapRatio float64 `json:"overlap_ratio"`
	Action       string  `json:"action"`
}

type MergeResult struct {
	Shields       []types.CleanupShield   `json:"shields"`
	Explanations  []PrecedenceExplanation `json:"explanations"`
	ZoneConflicts []ZoneConflict          `json:"zone_conflicts"`
	Warnings      []string                `json:"warnings"`
}

// PrecedenceEngine reconciles shield proposals from the four sources into
// one authoritative set. Pure and deterministic; safe for concurrent use.
type PrecedenceEngine struct {
	policy Policy
}

func NewPrecedenceEngine(policy Policy) (PrecedenceEngine, error) {
	if err := policy.Validate(); err != nil {
		return PrecedenceEngine{}, err
	}
	return PrecedenceEngine{policy: policy}, nil
}

// Merge folds the four input lists in ascending precedence order,
// de-duplicates same-type proposals by IoU, applies the critical-zone
// policy, and sorts the survivors by precedence then confidence.
//
// It never errors on well-formed input; empty inputs degenerate to
// pass-through with empty explanation and conflict lists.
func (e PrecedenceEngine) Merge(auto, vendor, template, session []types.CleanupShield, criticalZones []types.CriticalZone) MergeResult {
	incoming := make([]types.CleanupShield, 0, len(auto)+len(vendor)+len(template)+len(session))
	incoming = append(incoming, auto...)
	incoming = append(incoming, vendor...)
	incoming = append(incoming, template...)
	incoming = append(incoming, session...)

	var result []types.CleanupShield
	var explanations []PrecedenceExplanation

	for _, cand := range incoming {
		replaced := false
		for i, existing := range result {
			if existing.ShieldType != cand.ShieldType {
				continue
			}
			if types.IoU(existing.BBox, cand.BBox) < e.policy.DedupIoU {
				continue
			}
			// Same physical region. Inputs arrive in ascending precedence
			// order, so a higher-or-equal candidate overwrites; equal-ordinal
			// ties keep the later-processed entry.
			if cand.Provenance.Source.Ordinal() >= existing.Provenance.Source.Ordinal() {
				explanations = append(explanations, PrecedenceExplanation{
					ShieldID:          cand.ID,
					WinningSource:     cand.Provenance.Source,
					OverriddenSources: []types.ShieldSource{existing.Provenance.Source},
					Reason: fmt.Sprintf("%s shield %q overrides %s proposal for the same %s region",
						cand.Provenance.Source, cand.ID, existing.Provenance.Source, cand.ShieldType),
				})
				result[i] = cand
			} else {
				explanations = append(explanations, PrecedenceExplanation{
					ShieldID:          existing.ID,
					WinningSource:     existing.Provenance.Source,
					OverriddenSources: []types.ShieldSource{cand.Provenance.Source},
					Reason: fmt.Sprintf("%s shield %q retained over %s proposal for the same %s region",
						existing.Provenance.Source, existing.ID, cand.Provenance.Source, existing.ShieldType),
				})
			}
			replaced = true
			break
		}
		if !replaced {
			result = append(result, cand)
		}
	}

	var conflicts []ZoneConflict
	var warnings []string
	for i := range result {
		result[i], conflicts, warnings = e.applyCriticalZonePolicy(result[i], criticalZones, conflicts, warnings)
	}

	sort.SliceStable(result, func(i, j int) bool {
		oi, oj := result[i].Provenance.Source.Ordinal(), result[j].Provenance.Source.Ordinal()
		if oi != oj {
			return oi > oj
		}
		return result[i].Confidence > result[j].Confidence
	})

	return MergeResult{
		Shields:       result,
		Explanations:  explanations,
		ZoneConflicts: conflicts,
		Warnings:      warnings,
	}
}

// applyCriticalZonePolicy checks one surviving shield against every
// critical zone. ApplyMode and RiskLevel may be rewritten on a clone;
// ID, ShieldType and Provenance never are.
func (e PrecedenceEngine) applyCriticalZonePolicy(shield types.CleanupShield, zones []types.CriticalZone, conflicts []ZoneConflict, warnings []string) (types.CleanupShield, []ZoneConflict, []string) {
	for _, zone := range zones {
		ratio := types.OverlapRatio(shield.BBox, zone.BBox)
		switch {
		case ratio >= e.policy.CriticalBlockApply:
			action := ZoneActionElevatedRisk
			if shield.ApplyMode == types.ApplyModeApplied {
				shield = shield.Clone()
				shield.ApplyMode = types.ApplyModeSuggested
				action = ZoneActionDowngradedToSuggested
			} else if shield.RiskLevel != types.RiskHigh {
				shield = shield.Clone()
			}
			shield.RiskLevel = types.RiskHigh
			conflicts = append(conflicts, ZoneConflict{
				ShieldID:     shield.ID,
				ZoneID:       zone.ZoneID,
				OverlapRatio: ratio,
				Action:       action,
			})
			warnings = append(warnings, fmt.Sprintf(
				"shield %q lands %.0f%% of its area on critical zone %q; redaction blocked from auto-apply",
				shield.ID, ratio*100, zone.ZoneID))
		case ratio >= e.policy.CriticalWarn:
			conflicts = append(conflicts, ZoneConflict{
				ShieldID:     shield.ID,
				ZoneID:       zone.ZoneID,
				OverlapRatio: ratio,
				Action:       ZoneActionWarningAdded,
			})
			warnings = append(warnings, fmt.Sprintf(
				"shield %q overlaps critical zone %q (%.0f%% of shield area); review before applying",
				shield.ID, zone.ZoneID, ratio*100))
		}
	}
	return shield, conflicts, warnings
}

// OverlapsCriticalZone reports whether any zone overlaps the shield at or
// above the warn threshold. Consistent with Merge: whenever this returns
// true for a merged shield, that shield appears in ZoneConflicts.
func (e PrecedenceEngine) OverlapsCriticalZone(shield types.CleanupShield, zones []types.CriticalZone) bool {
	for _, zone := range zones {
		if types.OverlapRatio(shield.BBox, zone.BBox) >= e.policy.CriticalWarn {
			return true
		}
	}
	return false
}

// HighestPrecedenceSource returns the max source by ordinal, false on
// empty input.
func HighestPrecedenceSource(shields []types.CleanupShield) (types.ShieldSource, bool) {
	if len(shields) == 0 {
		return 0, false
	}
	best := shields[0].Provenance.Source
	for _, s := range shields[1:] {
		if s.Provenance.Source.Ordinal() > best.Ordinal() {
			best = s.Provenance.Source
		}
	}
	return best, true
}
