package ports

import (
	"context"

	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
)

// CleanupRuleStore persists vendor- and template-level shield rule sets.
// Scope keys are exact: docType nil and docType "x" are distinct keys with
// no fallback between them. Every save appends a new version; every get
// returns the latest version for the exact key, or an empty list when the
// key was never saved.
type CleanupRuleStore interface {
	SaveVendorRules(ctx context.Context, tenantID string, storeID string, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error
	GetVendorRules(ctx context.Context, tenantID string, storeID string, vendorID string, docType *string) ([]types.CleanupShield, error)
	SaveTemplateRules(ctx context.Context, tenantID string, storeID string, templateID string, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error
	GetTemplateRules(ctx context.Context, tenantID string, storeID string, templateID string, docType *string) ([]types.CleanupShield, error)
}
