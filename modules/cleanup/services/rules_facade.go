package services

import (
	"context"

	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/ports"
	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
)

// CleanupRulesFacade wraps the rule store for handler use. By default a
// lookup failure propagates; silently dropping redaction rules is a safety
// regression, so degrade-to-empty must be opted into.
type CleanupRulesFacade struct {
	store   ports.CleanupRuleStore
	degrade bool
}

type RulesFacadeOptions struct {
	// DegradeOnLookupError turns storage failures during Get* into empty
	// rule lists instead of errors.
	DegradeOnLookupError bool
}

func NewCleanupRulesFacade(store ports.CleanupRuleStore, opts RulesFacadeOptions) CleanupRulesFacade {
	return CleanupRulesFacade{store: store, degrade: opts.DegradeOnLookupError}
}

func (f CleanupRulesFacade) SaveVendorRules(ctx context.Context, tenantID, storeID, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error {
	return f.store.SaveVendorRules(ctx, tenantID, storeID, vendorID, docType, shields, updatedBy)
}

func (f CleanupRulesFacade) GetVendorRules(ctx context.Context, tenantID, storeID, vendorID string, docType *string) ([]types.CleanupShield, error) {
	shields, err := f.store.GetVendorRules(ctx, tenantID, storeID, vendorID, docType)
	if err != nil {
		if f.degrade {
			return nil, nil
		}
		return nil, err
	}
	return shields, nil
}

func (f CleanupRulesFacade) SaveTemplateRules(ctx context.Context, tenantID, storeID, templateID, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error {
	return f.store.SaveTemplateRules(ctx, tenantID, storeID, templateID, vendorID, docType, shields, updatedBy)
}

func (f CleanupRulesFacade) GetTemplateRules(ctx context.Context, tenantID, storeID, templateID string, docType *string) ([]types.CleanupShield, error) {
	shields, err := f.store.GetTemplateRules(ctx, tenantID, storeID, templateID, docType)
	if err != nil {
		if f.degrade {
			return nil, nil
		}
		return nil, err
	}
	return shields, nil
}
