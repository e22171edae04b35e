package server

import (
	"context"
	"testing"
)

func TestParseTenantsYAML(t *testing.T) {
	t.Parallel()

	m, err := parseTenantsYAML([]byte(`
version: 1
tenants:
  - id: t1
    domain: a.example
    name: A
  - id: t2
    domain: b.example
    name: B
`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(m) != 2 {
		t.Fatalf("len=%d", len(m))
	}
	if m["a.example"].ID != "t1" {
		t.Fatalf("tenant=%+v", m["a.example"])
	}
}

func TestParseTenantsYAML_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad version":    "version: 2\ntenants:\n  - id: t1\n    domain: a.example\n",
		"empty tenants":  "version: 1\ntenants: []\n",
		"missing domain": "version: 1\ntenants:\n  - id: t1\n    name: A\n",
		"missing id":     "version: 1\ntenants:\n  - domain: a.example\n",
	}
	for name, raw := range cases {
		if _, err := parseTenantsYAML([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestStaticTenancyResolver(t *testing.T) {
	t.Parallel()

	r := staticTenancyResolver{byDomain: map[string]Tenant{
		"a.example": {ID: "t1", Domain: "a.example"},
	}}

	tn, ok, err := r.ResolveTenant(context.Background(), "a.example")
	if err != nil || !ok || tn.ID != "t1" {
		t.Fatalf("tn=%+v ok=%v err=%v", tn, ok, err)
	}
	_, ok, err = r.ResolveTenant(context.Background(), "z.example")
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestHostWithoutPort(t *testing.T) {
	t.Parallel()

	if got := hostWithoutPort("a.example:8080"); got != "a.example" {
		t.Fatalf("got=%q", got)
	}
	if got := hostWithoutPort("a.example"); got != "a.example" {
		t.Fatalf("got=%q", got)
	}
}
