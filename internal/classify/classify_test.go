package classify

import (
	"testing"

	"github.com/echukwudebere/kachifo/models"
)

func TestClassifyKinds(t *testing.T) {
	cases := []struct {
		in   string
		want models.InputKind
	}{
		{"what's trending in tech?", models.KindQuery},
		{"show me top stories", models.KindQuery},
		{"search for electric vehicles", models.KindQuery},
		{"what is quantum computing", models.KindQuery},
		{"what's happening now in nigeria", models.KindWebSearch},
		{"breaking news on the election", models.KindWebSearch},
		{"compare android and ios adoption", models.KindAnalysis},
		{"why is the naira falling", models.KindAnalysis},
		{"hello there", models.KindConversation},
		{"thanks, that was helpful", models.KindConversation},
		{"", models.KindConversation},
	}
	for _, c := range cases {
		if got := Classify(c.in, ""); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestClassifyTopicKeywordsOutrankLiveMarkers(t *testing.T) {
	if got := Classify("what's trending right now", ""); got != models.KindQuery {
		t.Fatalf("got %v, want query", got)
	}
}

func TestClassifyLiveMarkersOutrankSearchVerbs(t *testing.T) {
	if got := Classify("find what is happening now", ""); got != models.KindWebSearch {
		t.Fatalf("got %v, want web_search", got)
	}
}

func TestClassifyFollowUpInheritsRecentKind(t *testing.T) {
	if got := Classify("tell me more", models.KindWebSearch); got != models.KindWebSearch {
		t.Fatalf("got %v, want inherited web_search", got)
	}
	if got := Classify("what about sports", models.KindQuery); got != models.KindQuery {
		t.Fatalf("got %v, want inherited query", got)
	}
	// Pronoun openers, "why", comparisons and acknowledgements inherit too.
	inherit := []string{"why", "compared to last year", "ok thanks", "they are interesting", "that one", "it sounds big"}
	for _, in := range inherit {
		if got := Classify(in, models.KindQuery); got != models.KindQuery {
			t.Errorf("Classify(%q, query) = %v, want inherited query", in, got)
		}
	}
	// No prior routed input: classified on content.
	if got := Classify("tell me more", ""); got != models.KindQuery {
		t.Fatalf("got %v, want query from the search-verb rule", got)
	}
	if got := Classify("ok thanks", ""); got != models.KindConversation {
		t.Fatalf("got %v, want conversation without a routed turn", got)
	}
	// Long inputs classify on their own content even after a routed turn.
	if got := Classify("and can you explain why the market dropped so sharply", models.KindQuery); got != models.KindAnalysis {
		t.Fatalf("got %v, want analysis", got)
	}
}

func TestClassifyWordBoundaries(t *testing.T) {
	if got := Classify("the finder window froze", ""); got != models.KindConversation {
		t.Fatalf("'finder' must not trigger the find rule, got %v", got)
	}
	if got := Classify("castles made of sand", ""); got != models.KindConversation {
		t.Fatalf("'sand' must not trigger a rule, got %v", got)
	}
}
