package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/echukwudebere/kachifo/config"
	"github.com/echukwudebere/kachifo/models"
	"github.com/echukwudebere/kachifo/provider"
)

// Adapter queries the Twitter v2 recent search endpoint. APIKey carries the
// bearer token; the tweet text doubles as title and body, matching how the
// results are rendered.
type Adapter struct {
	cfg    config.ProviderConfig
	client *provider.Client
}

func New(cfg config.ProviderConfig) *Adapter {
	return &Adapter{cfg: cfg, client: provider.NewClient(models.SourceTwitter, cfg.Timeout)}
}

func (a *Adapter) Source() models.Source { return models.SourceTwitter }

func (a *Adapter) Fetch(ctx context.Context, query string) ([]models.RawItem, error) {
	max := provider.Cap(a.cfg.MaxResults)

	params := url.Values{}
	params.Set("query", query)
	// the endpoint rejects max_results below 10; trim client-side
	params.Set("max_results", strconv.Itoa(maxInt(max, 10)))
	params.Set("tweet.fields", "public_metrics,created_at")

	headers := map[string]string{"Authorization": "Bearer " + a.cfg.APIKey}

	var raw struct {
		Data []struct {
			ID            string `json:"id"`
			Text          string `json:"text"`
			PublicMetrics struct {
				RetweetCount int64 `json:"retweet_count"`
				ReplyCount   int64 `json:"reply_count"`
				LikeCount    int64 `json:"like_count"`
				QuoteCount   int64 `json:"quote_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := a.client.GetJSON(ctx, a.cfg.Endpoint+"?"+params.Encode(), headers, &raw); err != nil {
		return nil, err
	}

	var out []models.RawItem
	for _, tweet := range raw.Data {
		if len(out) >= max {
			break
		}
		out = append(out, models.RawItem{
			Source: models.SourceTwitter,
			Title:  tweet.Text,
			Body:   tweet.Text,
			URL:    fmt.Sprintf("https://twitter.com/statuses/%s", tweet.ID),
			Engagement: &models.Engagement{
				Likes:   tweet.PublicMetrics.LikeCount,
				Shares:  tweet.PublicMetrics.RetweetCount + tweet.PublicMetrics.QuoteCount,
				Replies: tweet.PublicMetrics.ReplyCount,
			},
		})
	}
	return out, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
