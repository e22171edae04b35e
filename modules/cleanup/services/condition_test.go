package services

import "testing"

func TestEvaluateRuleCondition_EmptyAlwaysApplies(t *testing.T) {
	t.Parallel()

	got, err := EvaluateRuleCondition("", map[string]string{"doc_type": "invoice"})
	if err != nil {
		t.Fatalf("EvaluateRuleCondition: %v", err)
	}
	if !got {
		t.Fatal("empty condition must apply")
	}

	got, err = EvaluateRuleCondition("   ", nil)
	if err != nil || !got {
		t.Fatalf("blank condition: got=%v err=%v", got, err)
	}
}

func TestEvaluateRuleCondition_ContextMatch(t *testing.T) {
	t.Parallel()

	expr := `ctx["doc_type"] == "invoice" && ctx["vendor_id"] == "acme"`

	got, err := EvaluateRuleCondition(expr, map[string]string{"doc_type": "invoice", "vendor_id": "acme"})
	if err != nil {
		t.Fatalf("EvaluateRuleCondition: %v", err)
	}
	if !got {
		t.Fatal("expected condition to match")
	}

	got, err = EvaluateRuleCondition(expr, map[string]string{"doc_type": "receipt", "vendor_id": "acme"})
	if err != nil {
		t.Fatalf("EvaluateRuleCondition: %v", err)
	}
	if got {
		t.Fatal("expected condition to not match")
	}
}

func TestEvaluateRuleCondition_CachedProgramStable(t *testing.T) {
	t.Parallel()

	expr := `ctx["doc_type"] == "invoice"`
	docCtx := map[string]string{"doc_type": "invoice"}
	first, err := EvaluateRuleCondition(expr, docCtx)
	if err != nil {
		t.Fatalf("first eval: %v", err)
	}
	for range 5 {
		again, err := EvaluateRuleCondition(expr, docCtx)
		if err != nil {
			t.Fatalf("cached eval: %v", err)
		}
		if again != first {
			t.Fatalf("cached result drifted: %v vs %v", again, first)
		}
	}
}

func TestEvaluateRuleCondition_Errors(t *testing.T) {
	t.Parallel()

	if _, err := EvaluateRuleCondition(`ctx[`, nil); err == nil {
		t.Fatal("expected compile error")
	}
	if _, err := EvaluateRuleCondition(`ctx["doc_type"]`, map[string]string{"doc_type": "invoice"}); err == nil {
		t.Fatal("expected non-bool output error")
	}
}
