package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rowanvale/Ledgers-And-Lanterns/internal/routing"
	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/ports"
	cleanuppersistence "github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/infrastructure/persistence"
	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/services"
)

func NewHandler() (http.Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

type HandlerOptions struct {
	TenancyResolver TenancyResolver
	RuleStore       ports.CleanupRuleStore
	Policy          *services.Policy

	// DegradeOnLookupError serves empty rule sets when the store is down
	// instead of failing the request. Off by default.
	DegradeOnLookupError bool
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	allowlistPath := os.Getenv("ALLOWLIST_PATH")
	if allowlistPath == "" {
		p, err := defaultAllowlistPath()
		if err != nil {
			return nil, err
		}
		allowlistPath = p
	}

	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}

	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	var policy services.Policy
	if opts.Policy != nil {
		policy = *opts.Policy
	} else {
		p, err := services.LoadPolicy()
		if err != nil {
			return nil, err
		}
		policy = p
	}

	engine, err := services.NewPrecedenceEngine(policy)
	if err != nil {
		return nil, err
	}

	ruleStore := opts.RuleStore
	if ruleStore == nil {
		if dsn := dbDSNFromEnv(); strings.TrimSpace(os.Getenv("DATABASE_URL")) != "" || strings.TrimSpace(os.Getenv("DB_HOST")) != "" {
			pool, err := pgxpool.New(context.Background(), dsn)
			if err != nil {
				return nil, err
			}
			ruleStore = cleanuppersistence.NewCleanupRulePGStore(pool)
		} else {
			ruleStore = cleanuppersistence.NewCleanupRuleMemoryStore()
		}
	}

	rules := services.NewCleanupRulesFacade(ruleStore, services.RulesFacadeOptions{
		DegradeOnLookupError: opts.DegradeOnLookupError,
	})

	tenancyResolver := opts.TenancyResolver
	if tenancyResolver == nil {
		tr, err := newTenancyResolverFromConfig()
		if err != nil {
			return nil, err
		}
		tenancyResolver = tr
	}

	authorizer, err := loadAuthorizer()
	if err != nil {
		return nil, err
	}

	router := routing.NewRouter(classifier)

	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))

	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/cleanup/api/merge-preview", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCleanupMergePreviewAPI(w, r, engine)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/cleanup/api/vendor-rules", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCleanupVendorRulesAPI(w, r, rules)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPut, "/cleanup/api/vendor-rules", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCleanupVendorRulesAPI(w, r, rules)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/cleanup/api/template-rules", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCleanupTemplateRulesAPI(w, r, rules)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPut, "/cleanup/api/template-rules", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCleanupTemplateRulesAPI(w, r, rules)
	}))

	return withTenantAndIdentity(classifier, tenancyResolver, withAuthz(classifier, authorizer, router)), nil
}

func MustNewHandler() http.Handler {
	h, err := NewHandler()
	if err != nil {
		panic(errors.New("server: failed to build handler: " + err.Error()))
	}
	return h
}

func defaultAllowlistPath() (string, error) {
	path := "config/routing/allowlist.yaml"
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: allowlist not found")
}

const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

// withTenantAndIdentity resolves the tenant from the request host and the
// acting principal from the trusted gateway headers. Requests for unknown
// hosts never reach a handler.
func withTenantAndIdentity(classifier *routing.Classifier, tenants TenancyResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassInternalAPI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		if path == "/health" || path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		t, ok, err := tenants.ResolveTenant(r.Context(), hostWithoutPort(r.Host))
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenant_resolve_error", "tenant resolve error")
			return
		}
		if !ok {
			routing.WriteError(w, r, rc, http.StatusNotFound, "tenant_not_found", "tenant not found")
			return
		}
		ctx := withTenant(r.Context(), t)

		if id := strings.TrimSpace(r.Header.Get(actorIDHeader)); id != "" {
			ctx = withPrincipal(ctx, Principal{
				ID:       id,
				RoleSlug: strings.TrimSpace(r.Header.Get(actorRoleHeader)),
			})
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
