package rank

import (
	"sort"

	"github.com/echukwudebere/kachifo/config"
	"github.com/echukwudebere/kachifo/models"
)

// engagementCeiling caps the engagement contribution so one viral item
// cannot dominate purely on volume.
const engagementCeiling = 1000.0

// Ranker scores enriched items by source trust and engagement and sorts
// them descending. Equal scores keep their incoming order.
type Ranker struct {
	cfg config.RankingConfig
}

func New(cfg config.RankingConfig) *Ranker {
	return &Ranker{cfg: cfg}
}

// Rank assigns RankScore to every item and stably sorts the slice in
// place, highest first.
func (r *Ranker) Rank(items []models.EnrichedItem) {
	for i := range items {
		items[i].RankScore = r.Score(items[i])
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RankScore > items[j].RankScore
	})
}

// Score is source weight times an engagement multiplier in [1, 2]. An
// unknown source weighs 0.5 so it ranks below configured ones without
// disappearing.
func (r *Ranker) Score(item models.EnrichedItem) float64 {
	weight, ok := r.cfg.SourceWeights[string(item.Source)]
	if !ok {
		weight = 0.5
	}
	return weight * (1 + r.engagementFactor(item.Engagement))
}

func (r *Ranker) engagementFactor(e *models.Engagement) float64 {
	if e == nil {
		return 0
	}
	w := r.cfg.EngagementWeights
	total := w.Likes*float64(e.Likes) +
		w.Shares*float64(e.Shares) +
		w.Replies*float64(e.Replies) +
		w.Comments*float64(e.Comments)
	if total <= 0 {
		return 0
	}
	factor := total / engagementCeiling
	if factor > 1 {
		factor = 1
	}
	return factor
}
