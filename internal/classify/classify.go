package classify

import (
	"strings"

	"github.com/echukwudebere/kachifo/models"
)

// Rule maps trigger phrases to an input kind. Rules are checked in order;
// the first phrase match wins.
type Rule struct {
	Kind    models.InputKind
	Phrases []string
}

// Rules is the routing table, most specific first. Topic keywords outrank
// live markers so "what's trending right now" still runs the full
// pipeline; live markers outrank analysis and search verbs because
// recency beats everything once the user asks for "now".
var Rules = []Rule{
	{Kind: models.KindQuery, Phrases: []string{
		"trending", "trends", "whats hot", "whats popular", "top stories",
	}},
	{Kind: models.KindWebSearch, Phrases: []string{
		"right now", "happening now", "breaking", "today", "currently", "this week",
	}},
	{Kind: models.KindAnalysis, Phrases: []string{
		"compare", "analyze", "analyse", "explain", "why is", "why are",
		"summarize", "summarise", "break down",
	}},
	{Kind: models.KindQuery, Phrases: []string{
		"search", "find", "look up", "what is", "what are", "tell me",
		"give me", "show me",
	}},
}

// followUps are short continuations that inherit the previous routing
// instead of being classified on their own: continuations, pronoun
// openers, "why", comparisons and acknowledgements.
var followUps = []string{
	"more", "tell me more", "what about", "how about", "and", "go on",
	"anything else", "what else", "continue",
	"it", "they", "that", "those", "these",
	"why", "compared to",
	"ok", "okay", "thanks", "thank you", "cool", "nice", "interesting", "great",
}

// Classify routes text to a kind. recent is the kind of the session's
// previous non-conversation input; a short follow-up phrase inherits it.
// Anything no rule claims is conversation.
func Classify(text string, recent models.InputKind) models.InputKind {
	t := normalize(text)
	if t == "" {
		return models.KindConversation
	}

	if recent != "" && recent != models.KindConversation && isFollowUp(t) {
		return recent
	}
	for _, rule := range Rules {
		for _, p := range rule.Phrases {
			if containsPhrase(t, p) {
				return rule.Kind
			}
		}
	}
	return models.KindConversation
}

// isFollowUp matches only short inputs so "more details on the election"
// still classifies on its own content.
func isFollowUp(t string) bool {
	if len(strings.Fields(t)) > 4 {
		return false
	}
	for _, f := range followUps {
		if t == f || strings.HasPrefix(t, f+" ") {
			return true
		}
	}
	return false
}

// containsPhrase matches phrase on word boundaries, so "sand" does not
// trigger "and" and "finder" does not trigger "find".
func containsPhrase(t, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(t[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		startOK := start == 0 || t[start-1] == ' '
		endOK := end == len(t) || t[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

// normalize lower-cases and strips punctuation so "What's trending?"
// matches "whats trending".
func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
