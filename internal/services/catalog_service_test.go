package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard-api/internal/channels"
	"retail-dashboard-api/internal/listing"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/repository"
	"retail-dashboard-api/internal/validation"
)

func TestProductService(t *testing.T) {
	env := newTestEnv(t)
	s := NewProductService(env.products, 10)
	ctx := englishContext(t)

	resp, err := s.List(ctx, listing.Query{
		Criteria: listing.Criteria{Equals: map[string]string{"category": "apparel"}},
		Sort:     listing.Sort{Key: "price", Direction: listing.Desc},
	})
	require.NoError(t, err)
	require.Equal(t, 4, resp.Pagination.TotalItems)
	assert.Equal(t, "P-1002", resp.Items[0].ID)
	assert.Contains(t, resp.Items[0].PriceDisplay, "1,280.00")

	bySKU, err := s.List(ctx, listing.Query{Criteria: listing.Criteria{Equals: map[string]string{"sku": "CS-BLK"}}})
	require.NoError(t, err)
	require.Len(t, bySKU.Items, 1)
	assert.Equal(t, "P-1005", bySKU.Items[0].ID)

	_, err = s.Get(ctx, "P-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCustomerService_Statistics(t *testing.T) {
	env := newTestEnv(t)
	s := NewCustomerService(env.customers, env.orders, 10)

	view, err := s.Get(englishContext(t), "C-001")

	require.NoError(t, err)
	assert.Equal(t, 2, view.OrderCount)
	assert.True(t, view.TotalSpent.Equal(decimal.RequireFromString("2707")), "got %s", view.TotalSpent)
	assert.Contains(t, view.TotalSpentDisplay, "2,707.00")
}

func TestCustomerService_SortByOrderCount(t *testing.T) {
	env := newTestEnv(t)
	s := NewCustomerService(env.customers, env.orders, 10)

	resp, err := s.List(context.Background(), listing.Query{Sort: listing.Sort{Key: "orderCount", Direction: listing.Desc}})

	require.NoError(t, err)
	require.NotEmpty(t, resp.Items)
	assert.Equal(t, "C-001", resp.Items[0].ID)
	for i := 1; i < len(resp.Items); i++ {
		assert.GreaterOrEqual(t, resp.Items[i-1].OrderCount, resp.Items[i].OrderCount)
	}
}

func TestChannelService_SyncRecordsOutcome(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	metrics := &countingMetrics{}
	s := NewChannelService(env.channels, env.queue, ChannelServiceConfig{
		PageSize: 10,
		Sync:     channels.Config{Duration: 20 * time.Millisecond, Steps: 2},
		Metrics:  metrics,
	})
	t.Cleanup(s.Close)
	ctx := context.Background()

	// Act
	job, err := s.StartSync(ctx, channels.SyncRequest{ChannelID: "CH-XHS"})
	require.NoError(t, err)

	// Assert
	require.Eventually(t, func() bool {
		got, err := s.GetJob(ctx, job.ID)
		return err == nil && got.State == channels.JobSucceeded
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		c, err := env.channels.Get(ctx, "CH-XHS")
		return err == nil && c.SyncOutcome == models.SyncOutcomeSuccess
	}, time.Second, 5*time.Millisecond)

	c, err := env.channels.Get(ctx, "CH-XHS")
	require.NoError(t, err)
	assert.True(t, c.LastSyncAt.After(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, metrics.syncs)
}

func TestChannelService_CancelledSyncKeepsChannel(t *testing.T) {
	env := newTestEnv(t)
	s := NewChannelService(env.channels, env.queue, ChannelServiceConfig{
		PageSize: 10,
		Sync:     channels.Config{Duration: 200 * time.Millisecond, Steps: 4},
	})
	t.Cleanup(s.Close)
	ctx := context.Background()
	before, err := env.channels.Get(ctx, "CH-DY")
	require.NoError(t, err)

	job, err := s.StartSync(ctx, channels.SyncRequest{ChannelID: "CH-DY"})
	require.NoError(t, err)
	_, err = s.StartSync(ctx, channels.SyncRequest{ChannelID: "CH-DY"})
	assert.ErrorIs(t, err, channels.ErrSyncInProgress)

	cancelled, err := s.CancelJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, channels.JobCancelled, cancelled.State)

	time.Sleep(300 * time.Millisecond)
	after, err := env.channels.Get(ctx, "CH-DY")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, s.SyncStatus().Cancelled)
}

func TestChannelService_UnknownChannel(t *testing.T) {
	env := newTestEnv(t)
	s := NewChannelService(env.channels, env.queue, ChannelServiceConfig{PageSize: 10})
	t.Cleanup(s.Close)

	_, err := s.StartSync(context.Background(), channels.SyncRequest{ChannelID: "CH-404"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = s.GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, channels.ErrJobNotFound)
}

func TestChannelService_ListLabels(t *testing.T) {
	env := newTestEnv(t)
	s := NewChannelService(env.channels, env.queue, ChannelServiceConfig{PageSize: 10})
	t.Cleanup(s.Close)

	resp, err := s.List(englishContext(t), listing.Query{
		Criteria: listing.Criteria{Equals: map[string]string{"status": models.ChannelStatusInactive}},
	})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "CH-OFF", resp.Items[0].ID)
	assert.Equal(t, "Inactive", resp.Items[0].StatusLabel)
}

func TestDashboardService_Summary(t *testing.T) {
	env := newTestEnv(t)
	s := NewDashboardService(env.orders, env.inventory, 42)
	ctx := englishContext(t)

	summary, err := s.Summary(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 11, summary.OrderCount, "cancelled orders are excluded")
	assert.Len(t, summary.Trend, DefaultTrendDays)
	assert.Len(t, summary.StatusCounts, len(models.OrderStatuses))
	assert.Equal(t, 3, summary.LowStockItems)
	assert.LessOrEqual(t, len(summary.TopProducts), 5)

	statusTotal := 0
	for _, sc := range summary.StatusCounts {
		statusTotal += sc.Count
	}
	assert.Equal(t, 12, statusTotal)

	channelTotal := decimal.Zero
	for _, cr := range summary.ChannelRevenue {
		channelTotal = channelTotal.Add(cr.Revenue)
	}
	assert.True(t, channelTotal.Equal(summary.Revenue))

	again, err := s.Summary(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, summary.Trend, again.Trend, "the trend is deterministic per seed")
}

func TestDashboardService_Days(t *testing.T) {
	env := newTestEnv(t)
	s := NewDashboardService(env.orders, env.inventory, 7)

	tests := []struct {
		days    int
		wantLen int
		wantErr bool
	}{
		{days: 1, wantLen: 1},
		{days: 30, wantLen: 30},
		{days: MaxTrendDays, wantLen: MaxTrendDays},
		{days: MaxTrendDays + 1, wantErr: true},
		{days: -3, wantErr: true},
	}

	for _, tt := range tests {
		summary, err := s.Summary(context.Background(), tt.days)
		if tt.wantErr {
			_, ok := validation.As(err)
			assert.True(t, ok, "days=%d", tt.days)
			continue
		}
		require.NoError(t, err)
		assert.Len(t, summary.Trend, tt.wantLen)
	}
}

func TestIncentiveService_Validate(t *testing.T) {
	valid := func() models.IncentivePlan {
		return models.IncentivePlan{
			Name:       " 夏季冲刺 ",
			Type:       models.PlanTypeBasic,
			ValidFrom:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:    time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC),
			StoreScope: models.StoreScopeAll,
			Stores:     []string{"STORE-SH"},
			Rules: []models.IncentiveRule{{
				Trigger:   models.TriggerSalesAmount,
				Threshold: decimal.NewFromInt(10000),
				Reward:    models.Reward{Kind: models.RewardPercentage, Value: decimal.NewFromInt(5)},
			}},
		}
	}

	tests := []struct {
		name      string
		mutate    func(p *models.IncentivePlan)
		wantField string
		wantIssue string
	}{
		{name: "valid"},
		{name: "name required", mutate: func(p *models.IncentivePlan) { p.Name = "" }, wantField: "name", wantIssue: "validation.required"},
		{name: "unknown type", mutate: func(p *models.IncentivePlan) { p.Type = "bonus" }, wantField: "type", wantIssue: "validation.enum"},
		{name: "reversed dates", mutate: func(p *models.IncentivePlan) { p.ValidFrom, p.ValidTo = p.ValidTo, p.ValidFrom }, wantField: "validTo", wantIssue: "validation.date_range"},
		{name: "explicit scope without stores", mutate: func(p *models.IncentivePlan) { p.StoreScope = models.StoreScopeExplicit; p.Stores = nil }, wantField: "stores", wantIssue: "validation.min_stores"},
		{name: "no rules", mutate: func(p *models.IncentivePlan) { p.Rules = nil }, wantField: "rules", wantIssue: "validation.min_rules"},
		{name: "zero reward", mutate: func(p *models.IncentivePlan) { p.Rules[0].Reward.Value = decimal.Zero }, wantField: "rules[0].reward.value", wantIssue: "validation.positive"},
		{name: "percentage over 100", mutate: func(p *models.IncentivePlan) { p.Rules[0].Reward.Value = decimal.NewFromInt(101) }, wantField: "rules[0].reward.value", wantIssue: "validation.percentage_max"},
		{name: "unknown reward kind", mutate: func(p *models.IncentivePlan) { p.Rules[0].Reward.Kind = "coupon" }, wantField: "rules[0].reward.kind", wantIssue: "validation.enum"},
	}

	env := newTestEnv(t)
	s := NewIncentiveService(env.incentives, 10)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			plan := valid()
			if tt.mutate != nil {
				tt.mutate(&plan)
			}

			// Act
			got, err := s.Validate(context.Background(), plan)

			// Assert
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, "夏季冲刺", got.Name)
				assert.Equal(t, models.PlanStatusDraft, got.Status)
				assert.Nil(t, got.Stores, "all-stores scope drops the store list")
				assert.Equal(t, "R1", got.Rules[0].ID)
				return
			}
			verr, ok := validation.As(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Contains(t, verr.Fields, validation.FieldError{Field: tt.wantField, Issue: tt.wantIssue})
		})
	}
}

func TestIncentiveService_ListSeededPlans(t *testing.T) {
	env := newTestEnv(t)
	s := NewIncentiveService(env.incentives, 10)

	resp, err := s.List(context.Background(), listing.Query{})

	require.NoError(t, err)
	assert.Equal(t, 3, resp.Pagination.TotalItems)
	for _, plan := range resp.Items {
		_, err := s.Validate(context.Background(), plan)
		assert.NoError(t, err, "seeded plan %s is valid", plan.ID)
	}
}
