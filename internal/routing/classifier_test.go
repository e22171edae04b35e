package routing

import "testing"

func testAllowlist() Allowlist {
	return Allowlist{
		Version: 1,
		Entrypoints: map[string]Entrypoint{
			"server": {Routes: []Route{
				{Path: "/cleanup/api/merge-preview", Methods: []string{"POST"}, RouteClass: "internal_api"},
				{Path: "/cleanup/api/vendor-rules", Methods: []string{"GET", "PUT"}, RouteClass: "internal_api"},
				{Path: "/cleanup/api/template-rules", Methods: []string{"GET", "PUT"}, RouteClass: "internal_api"},
				{Path: "/webhooks/{provider}", Methods: []string{"POST"}, RouteClass: "webhook"},
				{Path: "/health", Methods: []string{"GET"}, RouteClass: "ops"},
			}},
		},
	}
}

func TestNewClassifier_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewClassifier(testAllowlist(), "missing"); err == nil {
		t.Fatal("expected missing entrypoint error")
	}

	empty := Allowlist{Version: 1, Entrypoints: map[string]Entrypoint{"server": {}}}
	if _, err := NewClassifier(empty, "server"); err == nil {
		t.Fatal("expected empty routes error")
	}

	bad := Allowlist{Version: 1, Entrypoints: map[string]Entrypoint{"server": {Routes: []Route{{Path: "", RouteClass: "ops"}}}}}
	if _, err := NewClassifier(bad, "server"); err == nil {
		t.Fatal("expected invalid route error")
	}
}

func TestClassifier_ExactAndPattern(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(testAllowlist(), "server")
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}

	if got := c.Classify("/cleanup/api/vendor-rules"); got != RouteClassInternalAPI {
		t.Fatalf("got %q", got)
	}
	if got := c.Classify("/webhooks/stripe"); got != RouteClassWebhook {
		t.Fatalf("got %q", got)
	}
	if got := c.Classify("/health"); got != RouteClassOps {
		t.Fatalf("got %q", got)
	}
}

func TestClassifier_Fallbacks(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(testAllowlist(), "server")
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}

	cases := map[string]RouteClass{
		"/api/v1/gift-cards":        RouteClassPublicAPI,
		"/workorders/api/queue":     RouteClassInternalAPI,
		"/webhooks/unlisted":        RouteClassWebhook,
		"/healthz":                  RouteClassOps,
		"/ops/backups":              RouteClassOps,
		"/assets/app.css":           RouteClassStatic,
		"/static/logo.png":          RouteClassStatic,
		"/app/settings":             RouteClassUI,
		"/":                         RouteClassUI,
		"/cleanupapi/notapi":        RouteClassUI,
	}
	for path, want := range cases {
		if got := c.Classify(path); got != want {
			t.Fatalf("Classify(%q)=%q, want %q", path, got, want)
		}
	}
}
