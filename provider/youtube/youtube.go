package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/echukwudebere/kachifo/config"
	"github.com/echukwudebere/kachifo/models"
	"github.com/echukwudebere/kachifo/provider"
)

// Adapter queries the YouTube Data API v3 search endpoint for videos.
type Adapter struct {
	cfg    config.ProviderConfig
	client *provider.Client
}

func New(cfg config.ProviderConfig) *Adapter {
	return &Adapter{cfg: cfg, client: provider.NewClient(models.SourceYouTube, cfg.Timeout)}
}

func (a *Adapter) Source() models.Source { return models.SourceYouTube }

func (a *Adapter) Fetch(ctx context.Context, query string) ([]models.RawItem, error) {
	max := provider.Cap(a.cfg.MaxResults)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(max))
	params.Set("key", a.cfg.APIKey)

	var raw struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string    `json:"title"`
				Description string    `json:"description"`
				PublishedAt time.Time `json:"publishedAt"`
			} `json:"snippet"`
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
		published := item.Snippet.PublishedAt
		out = append(out, models.RawItem{
			Source:      models.SourceYouTube,
			Title:       item.Snippet.Title,
			Body:        item.Snippet.Description,
			URL:         fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.ID.VideoID),
			PublishedAt: &published,
		})
	}
	return out, nil
}
