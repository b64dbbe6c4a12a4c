package zsk

import (
	"reflect"
	"testing"
)

// setWith arma un set clasificado sin pasar por Classify, para controlar edades.
func setWith(prepubAge int64, maxTTL int64, deactivatedAges ...int64) *Set {
	set := &Set{
		Active:       Key{ID: "active", Activated: true, MaxTTL: maxTTL},
		PrePublished: Key{ID: "prepub", CreatedAgo: prepubAge},
		MaxTTL:       maxTTL,
	}
	for i, age := range deactivatedAges {
		k := deactivatedKey(string(rune('A'+i)), age)
		set.Deactivated = append(set.Deactivated, k)
	}
	return set
}

func TestPlan_WorkedExample(t *testing.T) {
	// safetyFactor=10, maxTtl=3600 → umbral 36000 s.
	// B (prepub) con 40000 s dispara rollover; C (50000 s) expira; D (1000 s) queda.
	now := func(id string, ago int64) Key { return deactivatedKey(id, ago) }
	set := &Set{
		Active:       Key{ID: "1", Activated: true, MaxTTL: 3600},
		PrePublished: Key{ID: "2", CreatedAgo: 40000},
		Deactivated:  []Key{now("3", 50000), now("4", 1000)},
		MaxTTL:       3600,
	}

	got := Plan(set, Policy{SafetyFactor: 10})
	want := []Action{
		Activate{ID: "2"},
		Create{Algorithm: "RSASHA256", Bits: 1024, Role: "ZSK"},
		Deactivate{ID: "1"},
		Delete{ID: "3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("plan mismatch:\n got  %v\n want %v", got, want)
	}
}

func TestPlan_StrictInequality(t *testing.T) {
	// Edad exactamente igual al umbral: no dispara.
	set := setWith(36000, 3600)
	if got := Plan(set, Policy{SafetyFactor: 10}); len(got) != 0 {
		t.Fatalf("equal-to-threshold must not trigger, got %v", got)
	}

	// Un segundo por encima: dispara.
	set = setWith(36001, 3600)
	got := Plan(set, Policy{SafetyFactor: 10})
	if len(got) != 3 {
		t.Fatalf("expected 3 rollover actions, got %v", got)
	}
}

func TestPlan_RolloverActionOrder(t *testing.T) {
	set := setWith(100, 1)
	got := Plan(set, Policy{SafetyFactor: 10})
	if len(got) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(got))
	}
	if _, ok := got[0].(Activate); !ok {
		t.Errorf("action 0: got %T want Activate", got[0])
	}
	if c, ok := got[1].(Create); !ok || c.ActivateNow {
		t.Errorf("action 1: got %v want inactive Create", got[1])
	}
	if _, ok := got[2].(Deactivate); !ok {
		t.Errorf("action 2: got %T want Deactivate", got[2])
	}
}

func TestPlan_ExpiryPerKeyIndependence(t *testing.T) {
	// umbral = 5×10 = 50; solo las desactivadas con edad > 50 se eliminan.
	set := setWith(0, 10, 60, 50, 49, 51)
	got := Plan(set, Policy{SafetyFactor: 5})

	var ids []string
	for _, a := range got {
		d, ok := a.(Delete)
		if !ok {
			t.Fatalf("unexpected action %v", a)
		}
		ids = append(ids, d.ID)
	}
	want := []string{"A", "D"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("deletes: got %v want %v", ids, want)
	}
}

func TestPlan_NoOp(t *testing.T) {
	set := setWith(100, 3600, 200)
	got := Plan(set, Policy{SafetyFactor: 10})
	if len(got) != 0 {
		t.Fatalf("expected empty plan, got %v", got)
	}
}

func TestPlan_DegenerateZeroThreshold(t *testing.T) {
	// safetyFactor=0 y maxTtl=0: umbral 0, se acepta. Toda edad positiva califica;
	// la comparación sigue siendo estricta, así que edad 0 no.
	set := setWith(1, 0, 1, 0)
	got := Plan(set, Policy{SafetyFactor: 0})
	if len(got) != 4 {
		t.Fatalf("expected rollover + 1 delete (4 actions), got %v", got)
	}
	if d, ok := got[3].(Delete); !ok || d.ID != "A" {
		t.Fatalf("expected Delete(A) last, got %v", got[3])
	}
}

func TestPolicy_Threshold(t *testing.T) {
	p := Policy{SafetyFactor: 10}
	if got := p.Threshold(3600); got != 36000 {
		t.Fatalf("threshold: got %d want 36000", got)
	}
	if got := (Policy{}).Threshold(3600); got != 0 {
		t.Fatalf("zero factor threshold: got %d want 0", got)
	}
}
