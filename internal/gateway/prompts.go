package gateway

import (
	"fmt"
	"strings"
)

// buildQueryPrompt frames the caller's raw question as a web-analytics
// assistant task so the model answers in the dashboard's voice.
func buildQueryPrompt(query string, context []string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant for a web analytics dashboard. ")
	b.WriteString("Answer the user's question about their website's performance, traffic and conversions. ")
	b.WriteString("Be concise, specific and actionable.\n\n")
	if len(context) > 0 {
		b.WriteString("Context:\n")
		for _, c := range context {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}

// anomalyPrompt asks for a JSON array of anomaly objects over an
// illustrative metrics snapshot. The metrics are fixed; the model's job is
// the shape of the output, not live data access.
const anomalyPrompt = `You are an AI assistant analyzing web analytics data for anomalies.

Current metrics snapshot:
- Page views: 15,420 (last 7 days, +8% vs prior week)
- Unique visitors: 4,832 (-2% vs prior week)
- Average load time: 2.4s (up from 1.8s)
- Bounce rate: 47% (up from 41%)
- Conversion rate: 2.1% (down from 2.8%)
- Error rate: 0.9% (up from 0.3%)

Identify anomalies in this data. Respond ONLY with a JSON array of objects, each with these fields:
"type" (one of: traffic, performance, conversion, error, security),
"severity" (one of: low, medium, high, critical),
"title" (short summary),
"description" (one or two sentences),
"suggested_actions" (array of strings),
"confidence" (number between 0 and 1).`

// recommendationPrompt asks for a JSON array of improvement suggestions.
const recommendationPrompt = `You are an AI assistant generating improvement recommendations for a website based on its analytics.

Site profile:
- Marketing site with a project portfolio and contact forms
- Average load time 2.4s, largest contentful paint 3.1s
- Organic search is 38% of traffic, direct 41%
- Mobile is 56% of sessions with a 52% bounce rate
- Contact form conversion rate 2.1%

Respond ONLY with a JSON array of objects, each with these fields:
"category" (one of: performance, seo, conversion, content, security),
"priority" (low, medium or high),
"impact" (low, medium or high),
"effort" (low, medium or high),
"title" (short summary),
"description" (one or two sentences),
"estimated_improvement" (short text like "15-20% faster loads"),
"action_items" (array of strings),
"resources" (array of strings).`

// followups maps query topics to canned follow-up suggestions. The topic is
// matched against the original query, not the model's answer.
var followups = map[string][]string{
	"traffic": {
		"What were my top traffic sources this week?",
		"How does my traffic compare to last month?",
		"Which pages are gaining the most visitors?",
	},
	"conversion": {
		"Which pages have the highest conversion rates?",
		"What is causing visitors to drop off before converting?",
		"How can I improve my contact form completion rate?",
	},
	"performance": {
		"Which pages are the slowest to load?",
		"How does my load time affect bounce rate?",
		"What quick wins would speed up my site?",
	},
	"seo": {
		"Which keywords are driving the most organic traffic?",
		"What pages need better meta descriptions?",
		"How is my site performing in search rankings?",
	},
	"default": {
		"How is my site traffic trending?",
		"What can I do to improve conversions?",
		"Are there any performance issues I should know about?",
	},
}

// topicKeywords maps keywords in the query to a followups topic.
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"traffic", []string{"traffic", "visitor", "pageview", "page view", "session", "audience"}},
	{"conversion", []string{"conversion", "convert", "lead", "form", "signup", "sale"}},
	{"performance", []string{"performance", "speed", "slow", "load", "latency"}},
	{"seo", []string{"seo", "search", "ranking", "keyword", "google"}},
}

// suggestFollowups returns up to three canned follow-ups for the topic the
// original query matches, falling back to the default set.
func suggestFollowups(query string) []string {
	q := strings.ToLower(query)
	for _, tk := range topicKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(q, kw) {
				return limitSuggestions(followups[tk.topic])
			}
		}
	}
	return limitSuggestions(followups["default"])
}

func limitSuggestions(s []string) []string {
	if len(s) > 3 {
		return s[:3]
	}
	return s
}

// improvementWords are verbs/signals that make an answer look actionable.
var improvementWords = []string{"improve", "increase", "optimize", "reduce", "boost", "grow"}

// recommendationWords signal the answer contains concrete advice.
var recommendationWords = []string{"recommend", "suggest", "should", "consider"}

// scoreConfidence derives a heuristic confidence from the shape of the
// answer: base 0.7, boosted for length, advice words, analytics vocabulary
// and quantified statements, capped at 0.95.
func scoreConfidence(answer string) float64 {
	score := 0.7
	lower := strings.ToLower(answer)

	if len(answer) > 100 {
		score += 0.1
	}
	for _, w := range recommendationWords {
		if strings.Contains(lower, w) {
			score += 0.1
			break
		}
	}
	if strings.Contains(lower, "data") || strings.Contains(lower, "analytics") {
		score += 0.05
	}
	quantified := strings.Contains(answer, "%")
	if !quantified {
		for _, w := range improvementWords {
			if strings.Contains(lower, w) {
				quantified = true
				break
			}
		}
	}
	if quantified {
		score += 0.05
	}

	if score > 0.95 {
		score = 0.95
	}
	return score
}
