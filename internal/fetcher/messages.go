package fetcher

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/internal/resilience"
	"github.com/sells-group/health-score/pkg/whatsapp"
)

// Message sources reported by Collect.
const (
	SourceNone        = "none"
	SourceCache       = "cache"
	SourceLive        = "live"
	SourceUnavailable = "unavailable"
)

// MessageCache is the local message store consulted before the provider.
type MessageCache interface {
	GetCachedMessages(ctx context.Context, groupID string, since time.Time, limit int) ([]model.ChatMessage, error)
	CacheMessages(ctx context.Context, groupID string, msgs []model.ChatMessage) error
}

// MessageSource fetches messages live from the messaging provider.
type MessageSource interface {
	FetchMessages(ctx context.Context, groupID string, creds *model.AgencyCredentials, since time.Time, limit int) ([]model.ChatMessage, error)
}

// WhatsAppSource reads group messages through the WhatsApp gateway.
type WhatsAppSource struct {
	newClient func(token string) whatsapp.Client
}

// NewWhatsAppSource creates a live message source.
func NewWhatsAppSource(newClient func(token string) whatsapp.Client) *WhatsAppSource {
	return &WhatsAppSource{newClient: newClient}
}

// FetchMessages implements MessageSource.
func (s *WhatsAppSource) FetchMessages(ctx context.Context, groupID string, creds *model.AgencyCredentials, since time.Time, limit int) ([]model.ChatMessage, error) {
	if creds == nil || creds.MessagingToken == "" {
		return nil, ErrMissingCredential
	}
	raw, err := s.newClient(creds.MessagingToken).GroupMessages(ctx, groupID, since, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.ChatMessage, 0, len(raw))
	for _, m := range raw {
		out = append(out, NormalizeWhatsApp(m))
	}
	return out, nil
}

// MessageCollector gathers a group's recent messages, preferring the cache.
type MessageCollector struct {
	cache       MessageCache
	live        MessageSource
	windowDays  int
	maxMessages int
	timeout     time.Duration
	retry       resilience.RetryConfig
}

// NewMessageCollector creates a collector. live may be nil, in which case
// only the cache is read.
func NewMessageCollector(cache MessageCache, live MessageSource, windowDays, maxMessages int, timeout time.Duration, retry resilience.RetryConfig) *MessageCollector {
	if windowDays <= 0 {
		windowDays = 60
	}
	if maxMessages <= 0 {
		maxMessages = 1000
	}
	return &MessageCollector{
		cache:       cache,
		live:        live,
		windowDays:  windowDays,
		maxMessages: maxMessages,
		timeout:     timeout,
		retry:       retry,
	}
}

// Collect returns the group's messages within the window, oldest first, and
// where they came from. The live provider is only queried when the cache has
// nothing for the window; live results are written back to the cache.
// Failures degrade to an empty list.
func (c *MessageCollector) Collect(ctx context.Context, groupID *string, creds *model.AgencyCredentials, now time.Time) ([]model.ChatMessage, string) {
	if groupID == nil || *groupID == "" {
		return nil, SourceNone
	}
	since := now.AddDate(0, 0, -c.windowDays)
	log := zap.L().With(zap.String("group_id", *groupID))

	if c.cache != nil {
		cached, err := c.cache.GetCachedMessages(ctx, *groupID, since, c.maxMessages)
		if err != nil {
			log.Warn("fetcher: message cache read failed", zap.Error(err))
		} else if len(cached) > 0 {
			return bound(cached, since, c.maxMessages), SourceCache
		}
	}

	if c.live == nil {
		return nil, SourceUnavailable
	}

	live, err := c.fetchLive(ctx, *groupID, creds, since)
	if err != nil {
		log.Warn("fetcher: live message fetch failed",
			zap.String("error_type", resilience.ClassifyError(err)),
			zap.Error(err),
		)
		return nil, SourceUnavailable
	}
	msgs := bound(live, since, c.maxMessages)

	if c.cache != nil && len(msgs) > 0 {
		if err := c.cache.CacheMessages(ctx, *groupID, msgs); err != nil {
			log.Warn("fetcher: message cache write failed", zap.Error(err))
		}
	}
	return msgs, SourceLive
}

func (c *MessageCollector) fetchLive(ctx context.Context, groupID string, creds *model.AgencyCredentials, since time.Time) ([]model.ChatMessage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	retry := c.retry
	retry.ShouldRetry = func(err error) bool {
		return !eris.Is(err, ErrMissingCredential) && resilience.IsTransient(err)
	}
	return resilience.DoVal(ctx, retry, func(ctx context.Context) ([]model.ChatMessage, error) {
		return c.live.FetchMessages(ctx, groupID, creds, since, c.maxMessages)
	})
}

// bound drops messages older than since, sorts oldest first and keeps the
// most recent limit.
func bound(msgs []model.ChatMessage, since time.Time, limit int) []model.ChatMessage {
	cutoff := since.Unix()
	out := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.TimestampUnix >= cutoff {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampUnix < out[j].TimestampUnix
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
