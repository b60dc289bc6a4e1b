package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"retail-dashboard-api/internal/channels"
	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/listing"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/money"
	"retail-dashboard-api/internal/repository"
)

// ChannelService lists sales channels and drives their simulated syncs
type ChannelService struct {
	channels repository.Repository[models.Channel]
	syncs    *channels.Manager
	metrics  Metrics
	schema   *listing.Schema[models.Channel]
}

// ChannelServiceConfig configures the channel service
type ChannelServiceConfig struct {
	PageSize int
	Sync     channels.Config
	Metrics  Metrics
}

// NewChannelService creates the service and its sync manager. Completed
// syncs are written back through RecordSync.
func NewChannelService(repo repository.Repository[models.Channel], publisher Publisher, cfg ChannelServiceConfig) *ChannelService {
	s := &ChannelService{
		channels: repo,
		metrics:  metricsOrNoop(cfg.Metrics),
		schema:   ChannelSchema(cfg.PageSize),
	}
	s.syncs = channels.NewManager(s, publisher, cfg.Sync)
	return s
}

// ChannelSchema registers the filterable and sortable channel fields
func ChannelSchema(pageSize int) *listing.Schema[models.Channel] {
	return listing.NewSchema[models.Channel](pageSize).
		String("name", func(c models.Channel) string { return c.Name }).
		Enum("type", func(c models.Channel) string { return c.Type }).
		Enum("status", func(c models.Channel) string { return c.Status }).
		Enum("syncOutcome", func(c models.Channel) string { return c.SyncOutcome }).
		Number("revenue", func(c models.Channel) float64 { return c.Revenue.InexactFloat64() }).
		Number("orderCount", func(c models.Channel) float64 { return float64(c.OrderCount) }).
		Number("lastSyncAt", func(c models.Channel) float64 { return float64(c.LastSyncAt.Unix()) })
}

func (s *ChannelService) Schema() *listing.Schema[models.Channel] {
	return s.schema
}

func (s *ChannelService) List(ctx context.Context, q listing.Query) (models.ListResponse[models.ChannelView], error) {
	all, err := s.channels.List(ctx, nil)
	if err != nil {
		return models.ListResponse[models.ChannelView]{}, err
	}
	result, err := listing.Apply(s.schema, all, q)
	if err != nil {
		return models.ListResponse[models.ChannelView]{}, err
	}

	items := make([]models.ChannelView, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, channelView(ctx, c))
	}
	return models.ListResponse[models.ChannelView]{Items: items, Pagination: result.Pagination()}, nil
}

func (s *ChannelService) Get(ctx context.Context, id string) (models.ChannelView, error) {
	c, err := s.channels.Get(ctx, id)
	if err != nil {
		return models.ChannelView{}, fmt.Errorf("channel %s: %w", id, err)
	}
	return channelView(ctx, c), nil
}

// StartSync launches a simulated sync of one channel. Empty options select
// everything.
func (s *ChannelService) StartSync(ctx context.Context, req channels.SyncRequest) (channels.Job, error) {
	c, err := s.channels.Get(ctx, req.ChannelID)
	if err != nil {
		return channels.Job{}, fmt.Errorf("channel %s: %w", req.ChannelID, err)
	}
	job, err := s.syncs.Start(ctx, req)
	if err != nil {
		slog.Warn("Channel sync rejected", "channel_id", req.ChannelID, "error", err)
		return job, err
	}
	s.metrics.RecordChannelSyncStarted(ctx, c.Type)
	return job, nil
}

func (s *ChannelService) GetJob(_ context.Context, jobID string) (channels.Job, error) {
	return s.syncs.Get(jobID)
}

// CancelJob stops a running sync; the channel keeps its previous sync state
func (s *ChannelService) CancelJob(_ context.Context, jobID string) (channels.Job, error) {
	return s.syncs.Cancel(jobID)
}

// SyncStatus summarizes sync activity for health reporting
func (s *ChannelService) SyncStatus() channels.SyncStatus {
	return s.syncs.GetSyncStatus()
}

// RecordSync stores a successful sync on the channel
func (s *ChannelService) RecordSync(ctx context.Context, channelID string, finishedAt time.Time) error {
	_, err := s.channels.Update(ctx, channelID, func(c *models.Channel) error {
		c.LastSyncAt = finishedAt.UTC()
		c.SyncOutcome = models.SyncOutcomeSuccess
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record sync for channel %s: %w", channelID, err)
	}
	return nil
}

// Close cancels running syncs and waits for them to stop
func (s *ChannelService) Close() {
	s.syncs.Stop()
}

func channelView(ctx context.Context, c models.Channel) models.ChannelView {
	tr := i18n.FromContext(ctx)
	return models.ChannelView{
		Channel:        c,
		StatusLabel:    tr.T("channel.status." + c.Status),
		RevenueDisplay: money.Format(tr.Tag(), c.Revenue),
	}
}
