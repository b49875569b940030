package commission

import (
	"sort"
	"strings"

	"tattoostudio/internal/pkg/money"
)

// ValidateRule normalizes r in place and checks it is usable by the engine.
// Tiers are sorted by MinRevenue and renumbered; fields that do not belong to
// the rule's type are cleared.
func ValidateRule(r *Rule) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return invalidRule("name is required")
	}
	if r.IsDefault && !r.IsActive {
		return invalidRule("default rule must be active")
	}

	switch r.CommissionType {
	case TypePercentage:
		if r.Percentage == nil {
			return invalidRule("percentage is required for percentage rules")
		}
		if !money.ValidPercentage(*r.Percentage) {
			return invalidRule("percentage must be between 0 and 100")
		}
		r.FlatFeeAmount = nil
		r.Tiers = nil
	case TypeFlatFee:
		if r.FlatFeeAmount == nil {
			return invalidRule("flat_fee_amount is required for flat_fee rules")
		}
		if *r.FlatFeeAmount < 0 {
			return invalidRule("flat_fee_amount must not be negative")
		}
		r.Percentage = nil
		r.Tiers = nil
	case TypeTiered:
		sortTiers(r.Tiers)
		if err := validateTiers(r.Tiers); err != nil {
			return err
		}
		for i := range r.Tiers {
			r.Tiers[i].Position = i
		}
		r.Percentage = nil
		r.FlatFeeAmount = nil
	default:
		return invalidRule("unknown commission type %q", r.CommissionType)
	}
	return nil
}

func sortTiers(tiers []Tier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinRevenue < tiers[j].MinRevenue
	})
}

// validateTiers expects tiers sorted by MinRevenue. Together they must cover
// [0, +inf) with no gaps or overlaps.
func validateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return invalidRule("tiered rules need at least one tier")
	}
	if tiers[0].MinRevenue != 0 {
		return invalidRule("first tier must start at 0")
	}
	for i, t := range tiers {
		if !money.ValidPercentage(t.Percentage) {
			return invalidRule("tier %d percentage must be between 0 and 100", i)
		}
		last := i == len(tiers)-1
		if t.MaxRevenue == nil {
			if !last {
				return invalidRule("only the last tier may be open-ended")
			}
			continue
		}
		if *t.MaxRevenue <= t.MinRevenue {
			return invalidRule("tier %d max_revenue must be greater than min_revenue", i)
		}
		if last {
			return invalidRule("last tier must be open-ended")
		}
		if tiers[i+1].MinRevenue != *t.MaxRevenue {
			return invalidRule("tier %d must start where tier %d ends", i+1, i)
		}
	}
	return nil
}
