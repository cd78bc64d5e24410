package quota

import (
	"encoding/json"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestFromNullable(t *testing.T) {
	if !FromNullable(nil).IsUnlimited() {
		t.Error("nil should be unlimited")
	}

	q := FromNullable(intPtr(3))
	if n, ok := q.Limit(); !ok || n != 3 {
		t.Errorf("expected Limited(3), got %v", q)
	}

	if n, ok := FromNullable(intPtr(-2)).Limit(); !ok || n != 0 {
		t.Errorf("expected negative to clamp to Limited(0), got %d", n)
	}

	if FromNullable(intPtr(0)).IsUnlimited() {
		t.Error("zero must not be read as unlimited")
	}
}

func TestRemaining(t *testing.T) {
	if Unlimited().Remaining(10) != nil {
		t.Error("unlimited should have no remaining count")
	}
	if left := Limited(5).Remaining(2); left == nil || *left != 3 {
		t.Errorf("expected 3 left, got %v", left)
	}
	if left := Limited(5).Remaining(9); left == nil || *left != 0 {
		t.Errorf("expected over-used quota to clamp to 0, got %v", left)
	}
}

func TestAllows(t *testing.T) {
	tests := []struct {
		name  string
		q     Quota
		usage int64
		want  bool
	}{
		{"unlimited any usage", Unlimited(), 999, true},
		{"under limit", Limited(5), 4, true},
		{"at limit", Limited(5), 5, false},
		{"over limit", Limited(5), 7, false},
		{"zero limit", Limited(0), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Allows(tt.usage); got != tt.want {
				t.Errorf("Allows(%d) = %v, want %v", tt.usage, got, tt.want)
			}
		})
	}
}

func TestLimitsHasQuota(t *testing.T) {
	limits := Limits{
		ResourceBudgets: FromNullable(nil),
		ResourceClients: Limited(2),
	}

	if !limits.HasQuota(ResourceBudgets, 999) {
		t.Error("null budget quota should allow any usage")
	}
	if limits.HasQuota(ResourceClients, 2) {
		t.Error("client quota of 2 should be exhausted at usage 2")
	}
	if !limits.HasQuota(ResourceEdits, 1000) {
		t.Error("absent resource should be unlimited")
	}
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Quota{"a": Unlimited(), "b": Limited(7)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":null,"b":7}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded map[string]Quota
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded["a"].IsUnlimited() {
		t.Error("null should decode as unlimited")
	}
	if n, _ := decoded["b"].Limit(); n != 7 {
		t.Errorf("expected 7, got %d", n)
	}
}

func TestDefaultLimits(t *testing.T) {
	free := DefaultLimits(TierFree)
	free[ResourceBudgets] = Unlimited()
	if DefaultLimits(TierFree)[ResourceBudgets].IsUnlimited() {
		t.Error("DefaultLimits must return a copy")
	}

	if !DefaultLimits(TierBusiness).For(ResourceBudgets).IsUnlimited() {
		t.Error("business tier should have unlimited budgets")
	}

	unknown := DefaultLimits(Tier("platinum"))
	if n, _ := unknown.For(ResourceBudgets).Limit(); n != 5 {
		t.Errorf("unknown tier should fall back to free limits, got %d", n)
	}

	if ValidTier("platinum") || !ValidTier(TierExpert) {
		t.Error("ValidTier mismatch")
	}
}
