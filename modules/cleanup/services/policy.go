package services

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	errPolicyDedupRange    = errors.New("CLEANUP_POLICY_DEDUP_IOU_RANGE")
	errPolicyOverlapRange  = errors.New("CLEANUP_POLICY_OVERLAP_RANGE")
	errPolicyVarianceRange = errors.New("CLEANUP_POLICY_VARIANCE_RANGE")
	errPolicyBoostRange    = errors.New("CLEANUP_POLICY_BOOST_RANGE")
)

// Policy holds the tunable thresholds of the cleanup engine. Production
// values are tuned against a labeled document corpus, not derived.
type Policy struct {
	// DedupIoU is the IoU at or above which two same-type shields are the
	// same physical region.
	DedupIoU float64 `yaml:"dedup_iou"`
	// CriticalWarn and CriticalBlockApply bound the overlap-ratio bands of
	// the critical-zone policy: warn <= ratio < block records a warning,
	// ratio >= block downgrades an applied shield.
	CriticalWarn       float64 `yaml:"critical_overlap_warn"`
	CriticalBlockApply float64 `yaml:"critical_overlap_block_apply"`
	// ContentVarianceThreshold separates blank strips from content strips.
	ContentVarianceThreshold float64 `yaml:"content_variance_threshold"`
	// MaxMultiPageBoost caps the confidence boost for recurring
	// header/footer patterns.
	MaxMultiPageBoost float64 `yaml:"max_multipage_boost"`
}

func DefaultPolicy() Policy {
	return Policy{
		DedupIoU:                 0.70,
		CriticalWarn:             0.05,
		CriticalBlockApply:       0.50,
		ContentVarianceThreshold: 100.0,
		MaxMultiPageBoost:        0.20,
	}
}

func (p Policy) Validate() error {
	if p.DedupIoU <= 0 || p.DedupIoU > 1 {
		return errPolicyDedupRange
	}
	if p.CriticalWarn < 0 || p.CriticalBlockApply > 1 || p.CriticalWarn >= p.CriticalBlockApply {
		return errPolicyOverlapRange
	}
	if p.ContentVarianceThreshold < 0 {
		return errPolicyVarianceRange
	}
	if p.MaxMultiPageBoost < 0 || p.MaxMultiPageBoost > 1 {
		return errPolicyBoostRange
	}
	return nil
}

type policyFile struct {
	Version int    `yaml:"version"`
	Policy  Policy `yaml:"policy"`
}

func ParsePolicyYAML(b []byte) (Policy, error) {
	pf := policyFile{Policy: DefaultPolicy()}
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return Policy{}, err
	}
	if pf.Version != 1 {
		return Policy{}, errors.New("cleanup policy: unsupported version")
	}
	if err := pf.Policy.Validate(); err != nil {
		return Policy{}, err
	}
	return pf.Policy, nil
}

// LoadPolicy reads the policy file named by CLEANUP_POLICY_PATH, falling
// back to config/cleanup_policy.yaml, falling back to defaults when no
// file exists.
func LoadPolicy() (Policy, error) {
	path := os.Getenv("CLEANUP_POLICY_PATH")
	if path == "" {
		p, ok := defaultPolicyPath()
		if !ok {
			return DefaultPolicy(), nil
		}
		path = p
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	return ParsePolicyYAML(b)
}

func defaultPolicyPath() (string, bool) {
	path := "config/cleanup_policy.yaml"
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		path = filepath.Join("..", path)
	}
	return "", false
}
