package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/seatledger/pkg/types"
)

func TestTableNames(t *testing.T) {
	require.Equal(t, "platform", Platform{}.TableName())
	require.Equal(t, "plan", Plan{}.TableName())
	require.Equal(t, "subscription", Subscription{}.TableName())
	require.Equal(t, "client", Client{}.TableName())
	require.Equal(t, "client_subscription", ClientSubscription{}.TableName())
	require.Equal(t, "renewal_log", RenewalLog{}.TableName())
	require.Equal(t, "platform_renewal", PlatformRenewal{}.TableName())
	require.Equal(t, "autopay_run", AutopayRun{}.TableName())
}

func TestSubscription_AutopayDue(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due := &Subscription{IsAutopayable: true, Status: types.SubscriptionStatusActive, ActiveUntil: today}

	tests := []struct {
		name string
		mod  func(s Subscription) *Subscription
		want bool
	}{
		{"due today", func(s Subscription) *Subscription { return &s }, true},
		{"overdue", func(s Subscription) *Subscription { s.ActiveUntil = today.AddDate(0, 0, -3); return &s }, true},
		{"not yet", func(s Subscription) *Subscription { s.ActiveUntil = today.AddDate(0, 0, 1); return &s }, false},
		{"manual", func(s Subscription) *Subscription { s.IsAutopayable = false; return &s }, false},
		{"cancelled", func(s Subscription) *Subscription { s.Status = types.SubscriptionStatusCancelled; return &s }, false},
		{"nil", func(Subscription) *Subscription { return nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.mod(*due).AutopayDue(today))
		})
	}
}
