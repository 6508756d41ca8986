package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/internal/platform/db/dbtest"
	"github.com/fatflowers/seatledger/pkg/types"
)

type seeded struct {
	seatA, seatB, subID string
}

func seed(t *testing.T, fx *dbtest.Fixture) seeded {
	t.Helper()
	d := dbtest.Date(2026, 3, 1)

	platform := fx.Platform("owner-1", "StreamCo")
	plan := fx.Plan(platform.ID, "Family", "20.00", nil)
	sub := fx.Subscription(plan.ID, "family-1", d)
	alice := fx.Client("owner-1", "Alice")
	bob := fx.Client("owner-1", "Bob")
	seatA := fx.Seat(sub.ID, alice.ID, "10.00", d, types.SeatStatusActive)
	seatB := fx.Seat(sub.ID, bob.ID, "12.00", d, types.SeatStatusActive)

	fx.RenewalLog(seatA.ID, "10.00", dbtest.Date(2026, 1, 1))
	fx.RenewalLog(seatA.ID, "10.00", dbtest.Date(2026, 2, 1))
	fx.RenewalLog(seatA.ID, "30.00", dbtest.Date(2026, 2, 20))
	fx.RenewalLog(seatB.ID, "12.00", dbtest.Date(2026, 2, 5))
	fx.PlatformRenewal(sub.ID, "20.00", dbtest.Date(2026, 1, 1))
	fx.PlatformRenewal(sub.ID, "20.00", dbtest.Date(2026, 2, 1))

	// another owner's ledger
	otherPlatform := fx.Platform("owner-2", "StreamCo")
	otherPlan := fx.Plan(otherPlatform.ID, "Solo", "5.00", nil)
	otherSub := fx.Subscription(otherPlan.ID, "solo", d)
	carol := fx.Client("owner-2", "Carol")
	otherSeat := fx.Seat(otherSub.ID, carol.ID, "5.00", d, types.SeatStatusActive)
	fx.RenewalLog(otherSeat.ID, "5.00", dbtest.Date(2026, 2, 1))
	fx.PlatformRenewal(otherSub.ID, "5.00", dbtest.Date(2026, 2, 1))

	return seeded{seatA: seatA.ID, seatB: seatB.ID, subID: sub.ID}
}

func TestScanRenewalLogs_ScopedAndNewestFirst(t *testing.T) {
	gdb := dbtest.Open(t)
	ids := seed(t, dbtest.NewFixture(t, gdb))
	s := NewService(gdb, zap.NewNop().Sugar())

	resp, err := s.ScanRenewalLogs(context.Background(), "owner-1", &ScanRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(4), resp.Total)
	require.Len(t, resp.Items, 4)
	require.True(t, resp.Items[0].PaidOn.Equal(dbtest.Date(2026, 2, 20)))
	require.True(t, resp.Items[3].PaidOn.Equal(dbtest.Date(2026, 1, 1)))
	for _, item := range resp.Items {
		require.Contains(t, []string{ids.seatA, ids.seatB}, item.ClientSubscriptionID)
	}

	resp, err = s.ScanRenewalLogs(context.Background(), "owner-3", &ScanRequest{})
	require.NoError(t, err)
	require.Zero(t, resp.Total)
	require.Empty(t, resp.Items)
}

func TestScanRenewalLogs_FilterSortPage(t *testing.T) {
	gdb := dbtest.Open(t)
	ids := seed(t, dbtest.NewFixture(t, gdb))
	s := NewService(gdb, zap.NewNop().Sugar())

	req := &ScanRequest{
		Filters: []*types.CommonFilter{
			{Field: "seatId", Operator: types.CommonFilterOperatorEq, Values: []any{ids.seatA}},
			{Field: "amountPaid", Operator: types.CommonFilterOperatorLte, Values: []any{20}},
		},
		From:      1,
		Size:      1,
		SortBy:    "paidOn",
		SortOrder: "asc",
	}
	resp, err := s.ScanRenewalLogs(context.Background(), "owner-1", req)
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Items, 1)
	require.True(t, resp.Items[0].PaidOn.Equal(dbtest.Date(2026, 2, 1)))
}

func TestScanRenewalLogs_RejectsUnknownFields(t *testing.T) {
	s := NewService(dbtest.Open(t), zap.NewNop().Sugar())
	ctx := context.Background()

	cases := map[string]*ScanRequest{
		"filters":   {Filters: []*types.CommonFilter{{Field: "owner_id", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}}},
		"sortBy":    {SortBy: "client.name"},
		"sortOrder": {SortOrder: "sideways"},
		"size":      {Size: MaxPageSize + 1},
		"request":   nil,
	}
	for field, req := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := s.ScanRenewalLogs(ctx, "owner-1", req)
			require.ErrorIs(t, err, renewal.ErrInvalidInput)
			var verr *renewal.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.FieldMap(), field)
		})
	}
}

func TestScanPlatformRenewals_Scoped(t *testing.T) {
	gdb := dbtest.Open(t)
	ids := seed(t, dbtest.NewFixture(t, gdb))
	s := NewService(gdb, zap.NewNop().Sugar())

	resp, err := s.ScanPlatformRenewals(context.Background(), "owner-1", &ScanRequest{
		Filters: []*types.CommonFilter{
			{Field: "source", Operator: types.CommonFilterOperatorEq, Values: []any{string(types.RenewalSourceManual)}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.Total)
	for _, item := range resp.Items {
		require.Equal(t, ids.subID, item.SubscriptionID)
	}
	require.True(t, resp.Items[0].PaidOn.Equal(dbtest.Date(2026, 2, 1)))
}
