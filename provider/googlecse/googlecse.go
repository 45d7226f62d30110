package googlecse

import (
	"context"
	"net/url"

	"github.com/echukwudebere/kachifo/config"
	"github.com/echukwudebere/kachifo/models"
	"github.com/echukwudebere/kachifo/provider"
)

// Adapter queries the Google Custom Search JSON API. ExtraID carries the
// search engine id (cx).
type Adapter struct {
	cfg    config.ProviderConfig
	client *provider.Client
}

func New(cfg config.ProviderConfig) *Adapter {
	return &Adapter{cfg: cfg, client: provider.NewClient(models.SourceGoogle, cfg.Timeout)}
}

func (a *Adapter) Source() models.Source { return models.SourceGoogle }

func (a *Adapter) Fetch(ctx context.Context, query string) ([]models.RawItem, error) {
	max := provider.Cap(a.cfg.MaxResults)

	params := url.Values{}
	params.Set("q", query)
	params.Set("cx", a.cfg.ExtraID)
	params.Set("key", a.cfg.APIKey)

	var raw struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := a.client.GetJSON(ctx, a.cfg.Endpoint+"?"+params.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	var out []models.RawItem
	for _, item := range raw.Items {
		if len(out) >= max {
			break
		}
		out = append(out, models.RawItem{
			Source: models.SourceGoogle,
			Title:  item.Title,
			Body:   item.Snippet,
			URL:    item.Link,
		})
	}
	return out, nil
}
