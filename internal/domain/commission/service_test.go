package commission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tattoostudio/internal/pkg/apperr"
	"tattoostudio/internal/testutil"
)

const studio = int64(7)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &Rule{}, &Tier{}, &ArtistAssignment{}, &EarnedCommission{})
	return NewService(NewRepository(db), zap.NewNop())
}

func pctInput(name, pct string, isDefault bool) RuleInput {
	return RuleInput{Name: name, CommissionType: TypePercentage, Percentage: Percent(pct), IsDefault: isDefault}
}

func TestService_CreateRuleRejectsBadTiers(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateRule(context.Background(), studio, RuleInput{
		Name:           "broken",
		CommissionType: TypeTiered,
		Tiers:          []TierInput{{MinRevenue: 100, Percentage: *Percent("50")}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRuleConfiguration, apperr.KindOf(err))

	rules, err := svc.ListRules(context.Background(), studio, false)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestService_TieredRuleRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRule(ctx, studio, RuleInput{
		Name:           "volume",
		CommissionType: TypeTiered,
		Tiers: []TierInput{
			{MinRevenue: 50000, Percentage: *Percent("50")},
			{MinRevenue: 0, MaxRevenue: i64(50000), Percentage: *Percent("40")},
		},
	})
	require.NoError(t, err)

	got, err := svc.GetRule(ctx, studio, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Tiers, 2)
	assert.Equal(t, int64(0), got.Tiers[0].MinRevenue)
	assert.Nil(t, got.Tiers[1].MaxRevenue)

	calc, err := svc.CalculateForRule(ctx, studio, created.ID, 60000)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), calc.ArtistPayout)
}

func TestService_SingleDefaultPerStudio(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateRule(ctx, studio, pctInput("a", "50", true))
	require.NoError(t, err)
	b, err := svc.CreateRule(ctx, studio, pctInput("b", "60", true))
	require.NoError(t, err)
	other, err := svc.CreateRule(ctx, studio+1, pctInput("other", "70", true))
	require.NoError(t, err)

	a, _ = svc.GetRule(ctx, studio, a.ID)
	b, _ = svc.GetRule(ctx, studio, b.ID)
	assert.False(t, a.IsDefault)
	assert.True(t, b.IsDefault)

	_, err = svc.SetDefault(ctx, studio, a.ID)
	require.NoError(t, err)
	a, _ = svc.GetRule(ctx, studio, a.ID)
	b, _ = svc.GetRule(ctx, studio, b.ID)
	assert.True(t, a.IsDefault)
	assert.False(t, b.IsDefault)

	other, _ = svc.GetRule(ctx, studio+1, other.ID)
	assert.True(t, other.IsDefault, "other studios keep their default")
}

func TestService_SetDefaultRequiresActiveRule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	inactive := false
	in := pctInput("old", "50", false)
	in.IsActive = &inactive
	r, err := svc.CreateRule(ctx, studio, in)
	require.NoError(t, err)

	_, err = svc.SetDefault(ctx, studio, r.ID)
	assert.True(t, errors.Is(err, ErrRuleInactive))
}

func TestService_ResolveRule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.ResolveRule(ctx, studio, 11)
	assert.True(t, errors.Is(err, ErrNoApplicableRule))

	def, err := svc.CreateRule(ctx, studio, pctInput("default", "50", true))
	require.NoError(t, err)
	special, err := svc.CreateRule(ctx, studio, pctInput("senior", "70", false))
	require.NoError(t, err)

	got, err := svc.ResolveRule(ctx, studio, 11)
	require.NoError(t, err)
	assert.Equal(t, def.ID, got.ID)

	_, err = svc.AssignArtist(ctx, studio, 11, special.ID)
	require.NoError(t, err)
	got, err = svc.ResolveRule(ctx, studio, 11)
	require.NoError(t, err)
	assert.Equal(t, special.ID, got.ID)

	// reassigning replaces the previous assignment
	_, err = svc.AssignArtist(ctx, studio, 11, def.ID)
	require.NoError(t, err)
	list, err := svc.ListAssignments(ctx, studio)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, def.ID, list[0].RuleID)

	require.NoError(t, svc.UnassignArtist(ctx, studio, 11))
	assert.True(t, errors.Is(svc.UnassignArtist(ctx, studio, 11), ErrAssignmentNotFound))
}

func TestService_DeleteRuleInUse(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	r, err := svc.CreateRule(ctx, studio, pctInput("r", "50", false))
	require.NoError(t, err)
	_, err = svc.AssignArtist(ctx, studio, 3, r.ID)
	require.NoError(t, err)

	err = svc.DeleteRule(ctx, studio, r.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	require.NoError(t, svc.UnassignArtist(ctx, studio, 3))
	require.NoError(t, svc.DeleteRule(ctx, studio, r.ID))
	_, err = svc.GetRule(ctx, studio, r.ID)
	assert.True(t, errors.Is(err, ErrRuleNotFound))
}

func TestService_RecordEarnedIsIdempotentAndFrozen(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	r, err := svc.CreateRule(ctx, studio, pctInput("default", "60", true))
	require.NoError(t, err)

	in := RecordInput{
		StudioID:         studio,
		ArtistID:         5,
		BookingRequestID: 100,
		ServiceTotal:     20000,
		EarnedAt:         time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	first, err := svc.RecordEarned(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), first.ArtistPayout)
	assert.Equal(t, int64(8000), first.CommissionAmount)

	_, err = svc.UpdateRule(ctx, studio, r.ID, pctInput("default", "80", true))
	require.NoError(t, err)

	again, err := svc.RecordEarned(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(12000), again.ArtistPayout)

	stored, err := svc.GetEarned(ctx, studio, first.ID)
	require.NoError(t, err)
	snap := stored.Snapshot()
	require.NotNil(t, snap.Percentage)
	assert.Equal(t, "60", snap.Percentage.String())
	assert.Equal(t, r.ID, snap.RuleID)

	list, err := svc.ListEarned(ctx, studio, EarnedFilter{UnassignedOnly: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_RecordEarnedWithoutRule(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RecordEarned(context.Background(), RecordInput{StudioID: studio, ArtistID: 1, BookingRequestID: 1, ServiceTotal: 100})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
