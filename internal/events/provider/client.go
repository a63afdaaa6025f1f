package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	ev "github.com/radieske/opinion-trade-platform/pkg/contracts/events"
)

// ClientInterface define o contrato do cliente do feed externo de partidas.
type ClientInterface interface {
	LiveFixtures(ctx context.Context) ([]ev.EventUpdated, error)
}

// Client consome a API de futebol (api-football v3 ou o feed-simulator local).
type Client struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ ClientInterface = (*Client)(nil)

// NewClient cria o cliente com rate limit conservador
// O plano gratuito da api-football permite ~10 req/min
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Client{
		client:  rc,
		apiKey:  apiKey,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(6*time.Second), 1),
	}
}

// fixturesResponse espelha o payload de GET /fixtures?live=all
type fixturesResponse struct {
	Response []fixtureEntry `json:"response"`
}

type fixtureEntry struct {
	Fixture struct {
		ID     int64     `json:"id"`
		Date   time.Time `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		Name string `json:"name"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
	// Preenchido pelo feed-simulator; a api-football real entrega odds
	// em outro endpoint, então aqui o bloco é opcional
	Odds *ev.Odds `json:"odds,omitempty"`
}

// LiveFixtures busca as partidas ao vivo e converte para o contrato interno
func (c *Client) LiveFixtures(ctx context.Context) ([]ev.EventUpdated, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out fixturesResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-apisports-key", c.apiKey).
		SetQueryParam("live", "all").
		SetResult(&out).
		Get("/fixtures")
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch fixtures: http %d", resp.StatusCode())
	}

	updates := make([]ev.EventUpdated, 0, len(out.Response))
	now := time.Now().UTC()
	for _, f := range out.Response {
		u := ev.EventUpdated{
			EventID:   fmt.Sprintf("%d", f.Fixture.ID),
			Name:      f.Teams.Home.Name + " vs " + f.Teams.Away.Name,
			Category:  f.League.Name,
			Status:    mapStatus(f.Fixture.Status.Short),
			StartTime: f.Fixture.Date,
			UpdatedAt: now,
		}
		if f.Odds != nil {
			u.Odds = *f.Odds
		}
		updates = append(updates, u)
	}

	c.logger.Debug("fixtures fetched", zap.Int("count", len(updates)))
	return updates, nil
}

// mapStatus normaliza os códigos curtos do provedor pro vocabulário interno
func mapStatus(short string) string {
	switch short {
	case "NS", "TBD", "PST":
		return "scheduled"
	case "FT", "AET", "PEN", "CANC", "ABD", "AWD", "WO":
		return "finished"
	default:
		// 1H, HT, 2H, ET, BT, P, LIVE...
		return "live"
	}
}
