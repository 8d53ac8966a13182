package macrofeed

import (
	"context"
	"sync"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	pkghttp "DemandCast/pkg/http"
	applogger "DemandCast/pkg/logger"
)

// Poller periodically pulls sentiment/outlook signals for the configured
// commodities from an external macro feed and stores them for the adjuster.
type Poller struct {
	client      *pkghttp.Client
	sink        domrepo.SignalSink
	metrics     domrepo.Metrics
	baseURL     string
	apiKey      string
	commodities []string
	interval    time.Duration
	l           *applogger.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewPoller(client *pkghttp.Client, sink domrepo.SignalSink, metrics domrepo.Metrics, baseURL, apiKey string, commodities []string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Poller{
		client:      client,
		sink:        sink,
		metrics:     metrics,
		baseURL:     baseURL,
		apiKey:      apiKey,
		commodities: commodities,
		interval:    interval,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// SetLogger injects a structured logger.
func (p *Poller) SetLogger(l *applogger.Logger) { p.l = l }

// Start launches the polling loop. One immediate poll, then on the interval.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		p.pollAll(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.pollAll(ctx)
			}
		}
	}()
}

// Stop halts polling and waits for the loop to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.done
}

// feed response schema: {sentiment, growth_forecast, as_of}
type feedSignal struct {
	Sentiment      string `json:"sentiment"`
	GrowthForecast string `json:"growth_forecast"`
	AsOf           int64  `json:"as_of"` // unix sec
}

func (p *Poller) pollAll(ctx context.Context) {
	for _, commodity := range p.commodities {
		if err := p.pollOne(ctx, commodity); err != nil {
			p.metrics.RecordError("macrofeed_poll")
			if p.l != nil {
				p.l.Warn("macro feed poll failed",
					applogger.String("commodity", commodity),
					applogger.Error(err),
				)
			}
		}
	}
}

func (p *Poller) pollOne(ctx context.Context, commodity string) error {
	start := time.Now()
	var sig feedSignal
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    p.baseURL + "/v1/outlook",
		QueryParams: map[string][]string{
			"commodity": {commodity},
			"token":     {p.apiKey},
		},
	}, &sig)
	p.metrics.RecordLatency("macrofeed_poll", time.Since(start).Seconds())
	if err != nil {
		return err
	}

	ts := time.Now().UTC()
	if sig.AsOf > 0 {
		ts = time.Unix(sig.AsOf, 0).UTC()
	}
	return p.sink.StoreSentiment(ctx, commodity, models.SentimentSignal{
		Timestamp:      ts,
		Sentiment:      normalizeSentiment(sig.Sentiment),
		GrowthForecast: normalizeGrowth(sig.GrowthForecast),
	})
}

func normalizeSentiment(s string) string {
	switch s {
	case models.SentimentPositive, models.SentimentNegative:
		return s
	default:
		return models.SentimentNeutral
	}
}

func normalizeGrowth(g string) string {
	switch g {
	case models.GrowthIncreasing, models.GrowthDecreasing:
		return g
	default:
		return models.GrowthStable
	}
}
