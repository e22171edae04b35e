package persistence

import (
	"context"
	"sync"

	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/ports"
	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
)

type memoryScopeKey struct {
	tenantID  string
	storeID   string
	ruleKind  string
	subjectID string
	// docType uses a sentinel-prefixed form so nil and "" stay distinct keys.
	docType string
}

type memoryVersion struct {
	payload   []byte
	updatedBy string
}

// CleanupRuleMemoryStore mirrors the pg store's exact-key, latest-version
// semantics in memory. Used by handler tests and DB-less boot.
type CleanupRuleMemoryStore struct {
	mu       sync.Mutex
	versions map[memoryScopeKey][]memoryVersion
}

func NewCleanupRuleMemoryStore() ports.CleanupRuleStore {
	return &CleanupRuleMemoryStore{versions: make(map[memoryScopeKey][]memoryVersion)}
}

func memoryDocTypeKey(docType *string) string {
	if docType == nil {
		return "none"
	}
	return "some:" + *docType
}

func (s *CleanupRuleMemoryStore) SaveVendorRules(_ context.Context, tenantID, storeID, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error {
	return s.save(memoryScopeKey{tenantID, storeID, ruleKindVendor, vendorID, memoryDocTypeKey(docType)}, shields, updatedBy)
}

func (s *CleanupRuleMemoryStore) GetVendorRules(_ context.Context, tenantID, storeID, vendorID string, docType *string) ([]types.CleanupShield, error) {
	return s.get(memoryScopeKey{tenantID, storeID, ruleKindVendor, vendorID, memoryDocTypeKey(docType)})
}

func (s *CleanupRuleMemoryStore) SaveTemplateRules(_ context.Context, tenantID, storeID, templateID, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error {
	_ = vendorID
	return s.save(memoryScopeKey{tenantID, storeID, ruleKindTemplate, templateID, memoryDocTypeKey(docType)}, shields, updatedBy)
}

func (s *CleanupRuleMemoryStore) GetTemplateRules(_ context.Context, tenantID, storeID, templateID string, docType *string) ([]types.CleanupShield, error) {
	return s.get(memoryScopeKey{tenantID, storeID, ruleKindTemplate, templateID, memoryDocTypeKey(docType)})
}

func (s *CleanupRuleMemoryStore) save(key memoryScopeKey, shields []types.CleanupShield, updatedBy string) error {
	payload, err := encodeShields(shields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[key] = append(s.versions[key], memoryVersion{payload: payload, updatedBy: updatedBy})
	return nil
}

func (s *CleanupRuleMemoryStore) get(key memoryScopeKey) ([]types.CleanupShield, error) {
	s.mu.Lock()
	versions := s.versions[key]
	var payload []byte
	if len(versions) > 0 {
		payload = versions[len(versions)-1].payload
	}
	s.mu.Unlock()

	if payload == nil {
		return []types.CleanupShield{}, nil
	}
	return decodeShields(payload)
}
