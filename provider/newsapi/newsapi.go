package newsapi

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/echukwudebere/kachifo/config"
	"github.com/echukwudebere/kachifo/models"
	"github.com/echukwudebere/kachifo/provider"
)

// Adapter queries the NewsAPI /v2/everything endpoint.
type Adapter struct {
	cfg    config.ProviderConfig
	client *provider.Client
}

func New(cfg config.ProviderConfig) *Adapter {
	return &Adapter{cfg: cfg, client: provider.NewClient(models.SourceNewsAPI, cfg.Timeout)}
}

func (a *Adapter) Source() models.Source { return models.SourceNewsAPI }

func (a *Adapter) Fetch(ctx context.Context, query string) ([]models.RawItem, error) {
	max := provider.Cap(a.cfg.MaxResults)

	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(max))
	params.Set("apiKey", a.cfg.APIKey)

	var raw struct {
		Status   string `json:"status"`
		Articles []struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			URL         string    `json:"url"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := a.client.GetJSON(ctx, a.cfg.Endpoint+"?"+params.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	var out []models.RawItem
	for _, article := range raw.Articles {
		if len(out) >= max {
			break
		}
		published := article.PublishedAt
		out = append(out, models.RawItem{
			Source:      models.SourceNewsAPI,
			Title:       article.Title,
			Body:        article.Description,
			URL:         article.URL,
			PublishedAt: &published,
		})
	}
	return out, nil
}
