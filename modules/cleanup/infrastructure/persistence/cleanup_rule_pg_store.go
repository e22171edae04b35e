package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/ports"
	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
	"github.com/rowanvale/Ledgers-And-Lanterns/pkg/httperr"
)

const (
	ruleKindVendor   = "vendor"
	ruleKindTemplate = "template"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CleanupRulePGStore persists shield rule sets in the append-only
// cleanup.rule_set_versions table. Every save inserts a new version row
// for the exact scope key; reads select the latest version. Tenancy is
// enforced both by predicate and by app.current_tenant for RLS.
type CleanupRulePGStore struct {
	pool pgBeginner
}

func NewCleanupRulePGStore(pool pgBeginner) ports.CleanupRuleStore {
	return &CleanupRulePGStore{pool: pool}
}

var ruleSetVersionNamespace = uuid.Must(uuid.Parse("b4f2a9d1-3c57-4e8a-9f61-2d0c8aa4e7b5"))

func deterministicRuleSetVersionID(tenantID, storeID, kind, subjectID, docType string, savedAtUnixNano int64) string {
	name := fmt.Sprintf("cleanup.rule_set_version:%s:%s:%s:%s:%s:%d", tenantID, storeID, kind, subjectID, docType, savedAtUnixNano)
	return uuid.NewSHA1(ruleSetVersionNamespace, []byte(name)).String()
}

func (s *CleanupRulePGStore) SaveVendorRules(ctx context.Context, tenantID string, storeID string, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error {
	return s.saveRules(ctx, tenantID, storeID, ruleKindVendor, vendorID, vendorID, docType, shields, updatedBy)
}

func (s *CleanupRulePGStore) GetVendorRules(ctx context.Context, tenantID string, storeID string, vendorID string, docType *string) ([]types.CleanupShield, error) {
	return s.getRules(ctx, tenantID, storeID, ruleKindVendor, vendorID, docType)
}

func (s *CleanupRulePGStore) SaveTemplateRules(ctx context.Context, tenantID string, storeID string, templateID string, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error {
	return s.saveRules(ctx, tenantID, storeID, ruleKindTemplate, templateID, vendorID, docType, shields, updatedBy)
}

func (s *CleanupRulePGStore) GetTemplateRules(ctx context.Context, tenantID string, storeID string, templateID string, docType *string) ([]types.CleanupShield, error) {
	return s.getRules(ctx, tenantID, storeID, ruleKindTemplate, templateID, docType)
}

func (s *CleanupRulePGStore) saveRules(ctx context.Context, tenantID, storeID, kind, subjectID, vendorID string, docType *string, shields []types.CleanupShield, updatedBy string) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return errors.New("CLEANUP_TENANT_REQUIRED")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return errors.New("CLEANUP_STORE_REQUIRED")
	}
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return errors.New("CLEANUP_RULE_SUBJECT_REQUIRED")
	}
	updatedBy = strings.TrimSpace(updatedBy)
	if updatedBy == "" {
		return errors.New("CLEANUP_UPDATED_BY_REQUIRED")
	}

	payload, err := encodeShields(shields)
	if err != nil {
		return err
	}

	docTypeKey := ""
	if docType != nil {
		docTypeKey = *docType
	}
	versionID := deterministicRuleSetVersionID(tenantID, storeID, kind, subjectID, docTypeKey, time.Now().UnixNano())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return httperr.NewUnavailable("cleanup: rule store unavailable", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return httperr.NewUnavailable("cleanup: rule store unavailable", err)
	}

	if _, err := tx.Exec(ctx, `
	INSERT INTO cleanup.rule_set_versions (
	  version_id,
	  tenant_id,
	  store_id,
	  rule_kind,
	  subject_id,
	  vendor_id,
	  doc_type,
	  version_no,
	  shields,
	  updated_by
	)
	SELECT
	  $1::uuid,
	  $2::uuid,
	  $3::text,
	  $4::text,
	  $5::text,
	  $6::text,
	  $7::text,
	  COALESCE((
	    SELECT max(version_no)
	    FROM cleanup.rule_set_versions
	    WHERE tenant_id = $2::uuid
	      AND store_id = $3::text
	      AND rule_kind = $4::text
	      AND subject_id = $5::text
	      AND doc_type IS NOT DISTINCT FROM $7::text
	  ), 0) + 1,
	  $8::jsonb,
	  $9::text
	`, versionID, tenantID, storeID, kind, subjectID, vendorID, docType, payload, updatedBy); err != nil {
		return httperr.NewUnavailable("cleanup: rule store unavailable", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return httperr.NewUnavailable("cleanup: rule store unavailable", err)
	}
	return nil
}

func (s *CleanupRulePGStore) getRules(ctx context.Context, tenantID, storeID, kind, subjectID string, docType *string) ([]types.CleanupShield, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("CLEANUP_TENANT_REQUIRED")
	}
	storeID = strings.TrimSpace(storeID)
	subjectID = strings.TrimSpace(subjectID)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, httperr.NewUnavailable("cleanup: rule store unavailable", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, httperr.NewUnavailable("cleanup: rule store unavailable", err)
	}

	var payload []byte
	err = tx.QueryRow(ctx, `
	SELECT shields
	FROM cleanup.rule_set_versions
	WHERE tenant_id = $1::uuid
	  AND store_id = $2::text
	  AND rule_kind = $3::text
	  AND subject_id = $4::text
	  AND doc_type IS NOT DISTINCT FROM $5::text
	ORDER BY version_no DESC
	LIMIT 1
	`, tenantID, storeID, kind, subjectID, docType).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown scope key is empty rules, not an error.
			return []types.CleanupShield{}, nil
		}
		return nil, httperr.NewUnavailable("cleanup: rule store unavailable", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperr.NewUnavailable("cleanup: rule store unavailable", err)
	}
	return decodeShields(payload)
}
