// Package quota models per-plan resource ceilings.
//
// A ceiling is either Unlimited or Limited(n). Nullable database columns are converted
// with FromNullable as soon as they are read so callers never test for nil themselves.
package quota

import (
	"encoding/json"
	"strconv"
)

// Resource names a countable thing a plan limits.
type Resource string

const (
	ResourceBudgets Resource = "orçamentos"
	ResourceClients Resource = "clientes"
	ResourceUsers   Resource = "usuários"
	ResourceEdits   Resource = "edições"
)

// Tier is a billing plan level.
type Tier string

const (
	TierFree     Tier = "free"
	TierBasic    Tier = "basic"
	TierExpert   Tier = "expert"
	TierBusiness Tier = "business"
)

// Quota is a ceiling on a resource count. The zero value is Limited(0).
type Quota struct {
	limit     uint32
	unlimited bool
}

// Unlimited returns a quota without ceiling.
func Unlimited() Quota {
	return Quota{unlimited: true}
}

// Limited returns a quota allowing n units.
func Limited(n uint32) Quota {
	return Quota{limit: n}
}

// FromNullable converts a nullable column value. nil is unlimited; negatives are zero.
func FromNullable(v *int) Quota {
	if v == nil {
		return Unlimited()
	}
	if *v < 0 {
		return Limited(0)
	}
	return Limited(uint32(*v))
}

// Nullable is the inverse of FromNullable.
func (q Quota) Nullable() *int {
	if q.unlimited {
		return nil
	}
	n := int(q.limit)
	return &n
}

// IsUnlimited reports whether the quota has no ceiling.
func (q Quota) IsUnlimited() bool {
	return q.unlimited
}

// Limit returns the ceiling and false when the quota is unlimited.
func (q Quota) Limit() (uint32, bool) {
	return q.limit, !q.unlimited
}

// Remaining returns how many more units fit given usage, or nil when the quota is unlimited.
func (q Quota) Remaining(usage int64) *int64 {
	if q.IsUnlimited() {
		return nil
	}
	n, _ := q.Limit()
	left := int64(n) - usage
	if left < 0 {
		left = 0
	}
	return &left
}

// Allows reports whether one more unit may be created given the current usage.
func (q Quota) Allows(usage int64) bool {
	if q.unlimited {
		return true
	}
	return usage < int64(q.limit)
}

func (q Quota) String() string {
	if q.unlimited {
		return "unlimited"
	}
	return strconv.FormatUint(uint64(q.limit), 10)
}

// MarshalJSON renders unlimited as null and limited quotas as their number.
func (q Quota) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Nullable())
}

// UnmarshalJSON accepts null or a number.
func (q *Quota) UnmarshalJSON(data []byte) error {
	var v *int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*q = FromNullable(v)
	return nil
}

// Limits holds the quotas of a plan. Resources absent from the map are unlimited.
type Limits map[Resource]Quota

// HasQuota reports whether usage of resource may grow by one.
func (l Limits) HasQuota(resource Resource, currentUsage int64) bool {
	q, ok := l[resource]
	if !ok {
		return true
	}
	return q.Allows(currentUsage)
}

// For returns the quota of resource, unlimited when absent.
func (l Limits) For(resource Resource) Quota {
	if q, ok := l[resource]; ok {
		return q
	}
	return Unlimited()
}

var tierDefaults = map[Tier]Limits{
	TierFree: {
		ResourceBudgets: Limited(5),
		ResourceClients: Limited(5),
		ResourceUsers:   Limited(1),
		ResourceEdits:   Limited(3),
	},
	TierBasic: {
		ResourceBudgets: Limited(30),
		ResourceClients: Limited(50),
		ResourceUsers:   Limited(2),
		ResourceEdits:   Limited(10),
	},
	TierExpert: {
		ResourceBudgets: Limited(100),
		ResourceClients: Unlimited(),
		ResourceUsers:   Limited(5),
		ResourceEdits:   Unlimited(),
	},
	TierBusiness: {
		ResourceBudgets: Unlimited(),
		ResourceClients: Unlimited(),
		ResourceUsers:   Unlimited(),
		ResourceEdits:   Unlimited(),
	},
}

// DefaultLimits returns a copy of the default quotas of tier. Unknown tiers get free limits.
func DefaultLimits(tier Tier) Limits {
	src, ok := tierDefaults[tier]
	if !ok {
		src = tierDefaults[TierFree]
	}
	out := make(Limits, len(src))
	for r, q := range src {
		out[r] = q
	}
	return out
}

// ValidTier reports whether t is a known tier.
func ValidTier(t Tier) bool {
	_, ok := tierDefaults[t]
	return ok
}
