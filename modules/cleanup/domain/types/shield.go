package types

import (
	"errors"
	"sort"

	"github.com/rowanvale/Ledgers-And-Lanterns/pkg/uuidv7"
)

var (
	errShieldTypeRequired    = errors.New("CLEANUP_SHIELD_TYPE_REQUIRED")
	errShieldConfidenceRange = errors.New("CLEANUP_SHIELD_CONFIDENCE_RANGE")
	errShieldSourceInvalid   = errors.New("CLEANUP_SHIELD_SOURCE_INVALID")
	errApplyModeInvalid      = errors.New("CLEANUP_APPLY_MODE_INVALID")
	errRiskLevelInvalid      = errors.New("CLEANUP_RISK_LEVEL_INVALID")
	errPageTargetInvalid     = errors.New("CLEANUP_PAGE_TARGET_INVALID")
)

// ShieldSource identifies which detector or rule layer proposed a shield.
// The declaration order is the precedence order, lowest to highest; it is
// the sole tie-break rule for conflicting shields.
type ShieldSource int

const (
	SourceAutoDetected ShieldSource = iota
	SourceVendorRule
	SourceTemplateRule
	SourceSessionOverride
)

func (s ShieldSource) Ordinal() int { return int(s) }

func (s ShieldSource) Valid() bool {
	return s >= SourceAutoDetected && s <= SourceSessionOverride
}

func (s ShieldSource) String() string {
	switch s {
	case SourceAutoDetected:
		return "auto_detected"
	case SourceVendorRule:
		return "vendor_rule"
	case SourceTemplateRule:
		return "template_rule"
	case SourceSessionOverride:
		return "session_override"
	default:
		return "unknown"
	}
}

func ParseShieldSource(raw string) (ShieldSource, error) {
	switch raw {
	case "auto_detected":
		return SourceAutoDetected, nil
	case "vendor_rule":
		return SourceVendorRule, nil
	case "template_rule":
		return SourceTemplateRule, nil
	case "session_override":
		return SourceSessionOverride, nil
	default:
		return 0, errShieldSourceInvalid
	}
}

// ApplyMode controls whether a shield's redaction is executed or only shown
// to a reviewer.
type ApplyMode string

const (
	ApplyModeApplied   ApplyMode = "applied"
	ApplyModeSuggested ApplyMode = "suggested"
	ApplyModeDisabled  ApplyMode = "disabled"
)

func (m ApplyMode) Valid() bool {
	return m == ApplyModeApplied || m == ApplyModeSuggested || m == ApplyModeDisabled
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// PageTarget restricts which pages of a document a shield applies to.
// Pages is only meaningful for PageScopeSpecific and holds sorted unique
// 1-based page numbers.
type PageTarget struct {
	Scope PageScope `json:"scope"`
	Pages []int     `json:"pages,omitempty"`
}

type PageScope string

const (
	PageScopeAll      PageScope = "all"
	PageScopeFirst    PageScope = "first"
	PageScopeLast     PageScope = "last"
	PageScopeSpecific PageScope = "specific"
)

func PageTargetAll() PageTarget   { return PageTarget{Scope: PageScopeAll} }
func PageTargetFirst() PageTarget { return PageTarget{Scope: PageScopeFirst} }
func PageTargetLast() PageTarget  { return PageTarget{Scope: PageScopeLast} }

func PageTargetSpecific(pages []int) (PageTarget, error) {
	if len(pages) == 0 {
		return PageTarget{}, errPageTargetInvalid
	}
	seen := make(map[int]bool, len(pages))
	out := make([]int, 0, len(pages))
	for _, p := range pages {
		if p < 1 {
			return PageTarget{}, errPageTargetInvalid
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Ints(out)
	return PageTarget{Scope: PageScopeSpecific, Pages: out}, nil
}

func (t PageTarget) Validate() error {
	switch t.Scope {
	case PageScopeAll, PageScopeFirst, PageScopeLast:
		if len(t.Pages) != 0 {
			return errPageTargetInvalid
		}
		return nil
	case PageScopeSpecific:
		if len(t.Pages) == 0 {
			return errPageTargetInvalid
		}
		for i, p := range t.Pages {
			if p < 1 {
				return errPageTargetInvalid
			}
			if i > 0 && t.Pages[i-1] >= p {
				return errPageTargetInvalid
			}
		}
		return nil
	default:
		return errPageTargetInvalid
	}
}

// ZoneTarget restricts a shield to named layout zones. A nil IncludeZones
// means "no include restriction"; exclusions always apply.
type ZoneTarget struct {
	IncludeZones []string `json:"include_zones,omitempty"`
	ExcludeZones []string `json:"exclude_zones,omitempty"`
}

// ShieldProvenance records who originally proposed a shield and why. The
// engine never rewrites it, which keeps downgrades auditable.
type ShieldProvenance struct {
	Source      ShieldSource `json:"source"`
	WhyDetected string       `json:"why_detected"`
}

// CleanupShield is a proposed rectangular region of a document to redact
// or flag.
type CleanupShield struct {
	ID          string           `json:"id"`
	ShieldType  string           `json:"shield_type"`
	BBox        NormalizedBBox   `json:"normalized_bbox"`
	Confidence  float64          `json:"confidence"`
	ApplyMode   ApplyMode        `json:"apply_mode"`
	RiskLevel   RiskLevel        `json:"risk_level"`
	PageTarget  PageTarget       `json:"page_target"`
	ZoneTarget  ZoneTarget       `json:"zone_target"`
	Provenance  ShieldProvenance `json:"provenance"`
	WhyDetected string           `json:"why_detected"`
}

// NewCleanupShield validates the shield and assigns a generated ID when the
// caller supplied none.
func NewCleanupShield(s CleanupShield) (CleanupShield, error) {
	if s.ShieldType == "" {
		return CleanupShield{}, errShieldTypeRequired
	}
	if err := s.BBox.Validate(); err != nil {
		return CleanupShield{}, err
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return CleanupShield{}, errShieldConfidenceRange
	}
	if !s.Provenance.Source.Valid() {
		return CleanupShield{}, errShieldSourceInvalid
	}
	if !s.ApplyMode.Valid() {
		return CleanupShield{}, errApplyModeInvalid
	}
	if !s.RiskLevel.Valid() {
		return CleanupShield{}, errRiskLevelInvalid
	}
	if s.PageTarget.Scope == "" {
		s.PageTarget = PageTargetAll()
	}
	if err := s.PageTarget.Validate(); err != nil {
		return CleanupShield{}, err
	}
	if s.ID == "" {
		id, err := uuidv7.NewString()
		if err != nil {
			return CleanupShield{}, err
		}
		s.ID = id
	}
	return s, nil
}

// Clone returns a copy safe to mutate without aliasing slice fields.
func (s CleanupShield) Clone() CleanupShield {
	out := s
	if s.PageTarget.Pages != nil {
		out.PageTarget.Pages = append([]int(nil), s.PageTarget.Pages...)
	}
	if s.ZoneTarget.IncludeZones != nil {
		out.ZoneTarget.IncludeZones = append([]string(nil), s.ZoneTarget.IncludeZones...)
	}
	if s.ZoneTarget.ExcludeZones != nil {
		out.ZoneTarget.ExcludeZones = append([]string(nil), s.ZoneTarget.ExcludeZones...)
	}
	return out
}

// CriticalZone is a document region where redaction carries elevated risk,
// e.g. a totals box.
type CriticalZone struct {
	ZoneID string         `json:"zone_id"`
	BBox   NormalizedBBox `json:"bbox"`
}
