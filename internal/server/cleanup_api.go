package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rowanvale/Ledgers-And-Lanterns/internal/routing"
	cleanuptypes "github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/services"
	"github.com/rowanvale/Ledgers-And-Lanterns/pkg/httperr"
)

// ruleSetAPI is a list of masks plus an optional CEL guard. A rule set
// whose applies_if evaluates false against doc_context is skipped whole.
type ruleSetAPI struct {
	AppliesIf string          `json:"applies_if,omitempty"`
	Masks     []maskRegionAPI `json:"masks"`
}

type mergePreviewRequest struct {
	DocContext       map[string]string `json:"doc_context,omitempty"`
	AutoDetected     []maskRegionAPI   `json:"auto_detected"`
	VendorRules      ruleSetAPI        `json:"vendor_rules"`
	TemplateRules    ruleSetAPI        `json:"template_rules"`
	SessionOverrides []maskRegionAPI   `json:"session_overrides"`
	CriticalZones    []criticalZoneAPI `json:"critical_zones"`
}

type explanationAPIItem struct {
	MaskID            string   `json:"mask_id"`
	WinningOrigin     string   `json:"winning_origin"`
	OverriddenOrigins []string `json:"overridden_origins"`
	Reason            string   `json:"reason"`
}

type zoneConflictAPIItem struct {
	MaskID       string  `json:"mask_id"`
	ZoneID       string  `json:"zone_id"`
	OverlapRatio float64 `json:"overlap_ratio"`
	Action       string  `json:"action"`
}

func handleCleanupMergePreviewAPI(w http.ResponseWriter, r *http.Request, engine services.PrecedenceEngine) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}
	if r.Method != http.MethodPost {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var req mergePreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
		return
	}

	auto, err := shieldsFromMasks(req.AutoDetected)
	if err != nil {
		writeCleanupError(w, r, err)
		return
	}
	vendor, err := applicableShields(req.VendorRules, req.DocContext)
	if err != nil {
		writeCleanupError(w, r, err)
		return
	}
	template, err := applicableShields(req.TemplateRules, req.DocContext)
	if err != nil {
		writeCleanupError(w, r, err)
		return
	}
	session, err := shieldsFromMasks(req.SessionOverrides)
	if err != nil {
		writeCleanupError(w, r, err)
		return
	}

	result := engine.Merge(auto, vendor, template, session, zonesFromAPI(req.CriticalZones))

	explanations := make([]explanationAPIItem, 0, len(result.Explanations))
	for _, e := range result.Explanations {
		overridden := make([]string, 0, len(e.OverriddenSources))
		for _, s := range e.OverriddenSources {
			overridden = append(overridden, s.String())
		}
		explanations = append(explanations, explanationAPIItem{
			MaskID:            e.ShieldID,
			WinningOrigin:     e.WinningSource.String(),
			OverriddenOrigins: overridden,
			Reason:            e.Reason,
		})
	}
	conflicts := make([]zoneConflictAPIItem, 0, len(result.ZoneConflicts))
	for _, c := range result.ZoneConflicts {
		conflicts = append(conflicts, zoneConflictAPIItem{
			MaskID:       c.ShieldID,
			ZoneID:       c.ZoneID,
			OverlapRatio: c.OverlapRatio,
			Action:       c.Action,
		})
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tenant_id":      tenant.ID,
		"masks":          masksFromShields(result.Shields),
		"explanations":   explanations,
		"zone_conflicts": conflicts,
		"warnings":       warnings,
	})
}

func applicableShields(set ruleSetAPI, docCtx map[string]string) ([]cleanuptypes.CleanupShield, error) {
	applies, err := services.EvaluateRuleCondition(set.AppliesIf, docCtx)
	if err != nil {
		return nil, err
	}
	if !applies {
		return nil, nil
	}
	return shieldsFromMasks(set.Masks)
}

type ruleSaveRequest struct {
	StoreID    string          `json:"store_id"`
	VendorID   string          `json:"vendor_id,omitempty"`
	TemplateID string          `json:"template_id,omitempty"`
	DocType    string          `json:"doc_type,omitempty"`
	Masks      []maskRegionAPI `json:"masks"`
}

func handleCleanupVendorRulesAPI(w http.ResponseWriter, r *http.Request, rules services.CleanupRulesFacade) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}

	switch r.Method {
	case http.MethodGet:
		storeID := strings.TrimSpace(r.URL.Query().Get("store_id"))
		vendorID := strings.TrimSpace(r.URL.Query().Get("vendor_id"))
		docType := optionalQueryParam(r, "doc_type")
		if storeID == "" || vendorID == "" {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "store_id and vendor_id required")
			return
		}

		shields, err := rules.GetVendorRules(r.Context(), tenant.ID, storeID, vendorID, docType)
		if err != nil {
			writeCleanupError(w, r, err)
			return
		}
		writeRuleSetResponse(w, tenant.ID, storeID, shields)

	case http.MethodPut:
		var req ruleSaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		req.StoreID = strings.TrimSpace(req.StoreID)
		req.VendorID = strings.TrimSpace(req.VendorID)
		if req.StoreID == "" || req.VendorID == "" {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "store_id and vendor_id required")
			return
		}

		shields, err := shieldsFromMasks(req.Masks)
		if err != nil {
			writeCleanupError(w, r, err)
			return
		}
		if err := rules.SaveVendorRules(r.Context(), tenant.ID, req.StoreID, req.VendorID, optionalDocType(req.DocType), shields, actorID(r)); err != nil {
			writeCleanupError(w, r, err)
			return
		}
		writeRuleSetResponse(w, tenant.ID, req.StoreID, shields)

	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func handleCleanupTemplateRulesAPI(w http.ResponseWriter, r *http.Request, rules services.CleanupRulesFacade) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}

	switch r.Method {
	case http.MethodGet:
		storeID := strings.TrimSpace(r.URL.Query().Get("store_id"))
		templateID := strings.TrimSpace(r.URL.Query().Get("template_id"))
		docType := optionalQueryParam(r, "doc_type")
		if storeID == "" || templateID == "" {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "store_id and template_id required")
			return
		}

		shields, err := rules.GetTemplateRules(r.Context(), tenant.ID, storeID, templateID, docType)
		if err != nil {
			writeCleanupError(w, r, err)
			return
		}
		writeRuleSetResponse(w, tenant.ID, storeID, shields)

	case http.MethodPut:
		var req ruleSaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		req.StoreID = strings.TrimSpace(req.StoreID)
		req.TemplateID = strings.TrimSpace(req.TemplateID)
		req.VendorID = strings.TrimSpace(req.VendorID)
		if req.StoreID == "" || req.TemplateID == "" {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "store_id and template_id required")
			return
		}

		shields, err := shieldsFromMasks(req.Masks)
		if err != nil {
			writeCleanupError(w, r, err)
			return
		}
		if err := rules.SaveTemplateRules(r.Context(), tenant.ID, req.StoreID, req.TemplateID, req.VendorID, optionalDocType(req.DocType), shields, actorID(r)); err != nil {
			writeCleanupError(w, r, err)
			return
		}
		writeRuleSetResponse(w, tenant.ID, req.StoreID, shields)

	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func writeRuleSetResponse(w http.ResponseWriter, tenantID, storeID string, shields []cleanuptypes.CleanupShield) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tenant_id": tenantID,
		"store_id":  storeID,
		"masks":     masksFromShields(shields),
	})
}

// writeCleanupError maps domain and storage failures onto the routing
// error envelope. Validation sentinels surface their stable code verbatim.
func writeCleanupError(w http.ResponseWriter, r *http.Request, err error) {
	if httperr.IsUnavailable(err) {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusServiceUnavailable, "rule_store_unavailable", "rule store unavailable")
		return
	}
	if httperr.IsDecode(err) {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "rule_set_corrupt", "rule set corrupt")
		return
	}
	code := stableCleanupCode(err)
	if code != "" {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, code, "invalid cleanup payload")
		return
	}
	routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "cleanup_error", "cleanup error")
}

// stableCleanupCode returns the stable CLEANUP_* code carried by domain
// validation sentinels, or "" when err is not one of them.
func stableCleanupCode(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		if strings.HasPrefix(msg, "CLEANUP_") && !strings.ContainsAny(msg, " \t\n") {
			return msg
		}
	}
	return ""
}

func optionalQueryParam(r *http.Request, key string) *string {
	if !r.URL.Query().Has(key) {
		return nil
	}
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func optionalDocType(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

func actorID(r *http.Request) string {
	if p, ok := currentPrincipal(r.Context()); ok && p.ID != "" {
		return p.ID
	}
	return "anonymous"
}
