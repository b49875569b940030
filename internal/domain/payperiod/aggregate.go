package payperiod

import (
	"sort"

	"tattoostudio/internal/domain/commission"
)

// AggregateByArtist sums commissions per artist. The result is sorted by
// artist id and does not depend on input order.
func AggregateByArtist(items []commission.EarnedCommission) ([]ArtistTotal, PeriodTotals) {
	byArtist := make(map[int64]*ArtistTotal)
	var totals PeriodTotals
	for _, e := range items {
		row, ok := byArtist[e.ArtistID]
		if !ok {
			row = &ArtistTotal{ArtistID: e.ArtistID}
			byArtist[e.ArtistID] = row
		}
		row.CommissionCount++
		row.ServiceTotal += e.ServiceTotal
		row.CommissionAmount += e.CommissionAmount
		row.ArtistPayout += e.ArtistPayout

		totals.CommissionCount++
		totals.ServiceTotal += e.ServiceTotal
		totals.CommissionAmount += e.CommissionAmount
		totals.ArtistPayout += e.ArtistPayout
	}

	out := make([]ArtistTotal, 0, len(byArtist))
	for _, row := range byArtist {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArtistID < out[j].ArtistID })
	return out, totals
}
