package commission

import (
	"github.com/shopspring/decimal"

	"tattoostudio/internal/pkg/money"
)

const (
	tierBasisServiceTotal = "service_total"
	roundingPolicy        = "artist share rounded half-up to the cent; studio keeps the remainder"
)

// Calculate splits totalCents according to rule. It does not touch rule and
// is safe for concurrent use.
//
// Tiered rules select the single tier containing the service total and apply
// its percentage to the whole amount.
func Calculate(rule Rule, totalCents int64) (Calculation, error) {
	if totalCents < 0 {
		return Calculation{}, invalidInput("service total must not be negative")
	}

	calc := Calculation{
		ServiceTotal: totalCents,
		Details: Details{
			CommissionType: rule.CommissionType,
			RoundingPolicy: roundingPolicy,
		},
	}

	switch rule.CommissionType {
	case TypePercentage:
		if rule.Percentage == nil || !money.ValidPercentage(*rule.Percentage) {
			return Calculation{}, invalidRule("rule %d has no valid percentage", rule.ID)
		}
		pct := *rule.Percentage
		calc.ArtistPayout, calc.CommissionAmount = money.SplitByShare(totalCents, pct)
		calc.Details.ArtistPercentage = &pct

	case TypeFlatFee:
		if rule.FlatFeeAmount == nil || *rule.FlatFeeAmount < 0 {
			return Calculation{}, invalidRule("rule %d has no valid flat fee", rule.ID)
		}
		fee := *rule.FlatFeeAmount
		calc.CommissionAmount = fee
		if fee > totalCents {
			calc.CommissionAmount = totalCents
			calc.Details.FlatFeeCapped = true
		}
		calc.ArtistPayout = totalCents - calc.CommissionAmount
		calc.Details.FlatFeeAmount = &fee

	case TypeTiered:
		tier, err := selectTier(rule, totalCents)
		if err != nil {
			return Calculation{}, err
		}
		pct := tier.Percentage
		calc.ArtistPayout, calc.CommissionAmount = money.SplitByShare(totalCents, pct)
		snap := snapshotTier(tier)
		calc.Details.ArtistPercentage = &pct
		calc.Details.AppliedTier = &snap
		calc.Details.TierBasis = tierBasisServiceTotal

	default:
		return Calculation{}, invalidRule("unknown commission type %q", rule.CommissionType)
	}

	return calc, nil
}

func selectTier(rule Rule, totalCents int64) (Tier, error) {
	tiers := make([]Tier, len(rule.Tiers))
	copy(tiers, rule.Tiers)
	sortTiers(tiers)
	if err := validateTiers(tiers); err != nil {
		return Tier{}, err
	}
	for _, t := range tiers {
		if t.contains(totalCents) {
			return t, nil
		}
	}
	return Tier{}, invalidRule("no tier of rule %d covers %d", rule.ID, totalCents)
}

func snapshotTier(t Tier) TierSnapshot {
	s := TierSnapshot{MinRevenue: t.MinRevenue, Percentage: t.Percentage}
	if t.MaxRevenue != nil {
		hi := *t.MaxRevenue
		s.MaxRevenue = &hi
	}
	return s
}

// Snapshot freezes the parameters of rule that produced calc.
func Snapshot(rule Rule, calc Calculation) RuleSnapshot {
	s := RuleSnapshot{
		RuleID:         rule.ID,
		Name:           rule.Name,
		CommissionType: rule.CommissionType,
		AppliedTier:    calc.Details.AppliedTier,
	}
	if rule.Percentage != nil {
		pct := *rule.Percentage
		s.Percentage = &pct
	}
	if rule.FlatFeeAmount != nil {
		fee := *rule.FlatFeeAmount
		s.FlatFeeAmount = &fee
	}
	if len(rule.Tiers) > 0 {
		tiers := make([]Tier, len(rule.Tiers))
		copy(tiers, rule.Tiers)
		sortTiers(tiers)
		s.Tiers = make([]TierSnapshot, 0, len(tiers))
		for _, t := range tiers {
			s.Tiers = append(s.Tiers, snapshotTier(t))
		}
	}
	return s
}

// Percent is a convenience for building rules in code.
func Percent(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
