package reddit

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/echukwudebere/kachifo/config"
	"github.com/echukwudebere/kachifo/internal/helpers"
	"github.com/echukwudebere/kachifo/models"
	"github.com/echukwudebere/kachifo/provider"
)

// Adapter queries Reddit's public search endpoint, sorted by top. ExtraID
// carries the User-Agent Reddit requires for API consumers.
type Adapter struct {
	cfg    config.ProviderConfig
	client *provider.Client
}

func New(cfg config.ProviderConfig) *Adapter {
	return &Adapter{cfg: cfg, client: provider.NewClient(models.SourceReddit, cfg.Timeout)}
}

func (a *Adapter) Source() models.Source { return models.SourceReddit }

func (a *Adapter) Fetch(ctx context.Context, query string) ([]models.RawItem, error) {
	max := provider.Cap(a.cfg.MaxResults)

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "top")
	params.Set("limit", strconv.Itoa(max))

	headers := map[string]string{}
	if a.cfg.ExtraID != "" {
		headers["User-Agent"] = a.cfg.ExtraID
	}

	var raw struct {
		Data struct {
			Children []struct {
				Data struct {
					Title       string  `json:"title"`
					URL         string  `json:"url"`
					SelfText    string  `json:"selftext"`
					Score       int64   `json:"score"`
					NumComments int64   `json:"num_comments"`
					CreatedUTC  float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := a.client.GetJSON(ctx, a.cfg.Endpoint+"?"+params.Encode(), headers, &raw); err != nil {
		return nil, err
	}

	var out []models.RawItem
	for _, child := range raw.Data.Children {
		if len(out) >= max {
			break
		}
		post := child.Data
		body := helpers.Truncate(post.SelfText, 200)
		if body == "" {
			body = post.Title
		}
		var published *time.Time
		if post.CreatedUTC > 0 {
			t := time.Unix(int64(post.CreatedUTC), 0).UTC()
			published = &t
		}
		out = append(out, models.RawItem{
			Source:      models.SourceReddit,
			Title:       post.Title,
			Body:        body,
			URL:         post.URL,
			PublishedAt: published,
			Engagement: &models.Engagement{
				Likes:    post.Score,
				Comments: post.NumComments,
			},
		})
	}
	return out, nil
}
