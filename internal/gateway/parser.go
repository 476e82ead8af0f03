package gateway

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"sitemind/internal/core"
)

// extractJSONArray finds the first balanced [...] substring in free-form
// model output. Models frequently wrap the requested JSON in prose or code
// fences, so this is a best-effort scan, not a full parse.
func extractJSONArray(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// validAnomalyTypes guards against the model inventing categories.
var validAnomalyTypes = map[string]core.AnomalyType{
	"traffic":     core.AnomalyTraffic,
	"performance": core.AnomalyPerformance,
	"conversion":  core.AnomalyConversion,
	"error":       core.AnomalyError,
	"security":    core.AnomalySecurity,
}

var validSeverities = map[string]core.Severity{
	"low":      core.SeverityLow,
	"medium":   core.SeverityMedium,
	"high":     core.SeverityHigh,
	"critical": core.SeverityCritical,
}

var validLevels = map[string]core.Level{
	"low":    core.LevelLow,
	"medium": core.LevelMedium,
	"high":   core.LevelHigh,
}

var validCategories = map[string]core.RecommendationCategory{
	"performance": core.RecommendPerformance,
	"seo":         core.RecommendSEO,
	"conversion":  core.RecommendConversion,
	"content":     core.RecommendContent,
	"security":    core.RecommendSecurity,
}

// metricKeywords maps description vocabulary to affected-metric tags.
var metricKeywords = []struct {
	metric   string
	keywords []string
}{
	{"page_views", []string{"page view", "pageview", "traffic", "visit"}},
	{"load_time", []string{"load time", "slow", "latency", "speed", "performance"}},
	{"bounce_rate", []string{"bounce"}},
	{"conversion_rate", []string{"conversion", "convert"}},
	{"error_rate", []string{"error", "failure", "5xx", "4xx"}},
}

// inferMetrics keyword-scans an anomaly description for the metrics it
// affects.
func inferMetrics(description string) []string {
	lower := strings.ToLower(description)
	var out []string
	for _, mk := range metricKeywords {
		for _, kw := range mk.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, mk.metric)
				break
			}
		}
	}
	return out
}

// parseAnomalies maps the model's JSON reply into typed anomalies. Missing
// or unrecognized type/severity values default rather than fail; a reply
// with no parseable array is an error the caller substitutes a fallback for.
func parseAnomalies(reply string, now time.Time) ([]core.AIAnomaly, error) {
	raw, ok := extractJSONArray(reply)
	if !ok {
		return nil, core.NewParseError("no JSON array in model reply", nil)
	}
	if !gjson.Valid(raw) {
		return nil, core.NewParseError("extracted array is not valid JSON", nil)
	}

	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, core.NewParseError("extracted JSON is not an array", nil)
	}

	var anomalies []core.AIAnomaly
	parsed.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}

		a := core.AIAnomaly{
			ID:          uuid.NewString(),
			Type:        core.AnomalyPerformance,
			Severity:    core.SeverityMedium,
			Title:       item.Get("title").String(),
			Description: item.Get("description").String(),
			DetectedAt:  now,
			Confidence:  0.7,
		}
		if t, ok := validAnomalyTypes[strings.ToLower(item.Get("type").String())]; ok {
			a.Type = t
		}
		if s, ok := validSeverities[strings.ToLower(item.Get("severity").String())]; ok {
			a.Severity = s
		}
		if c := item.Get("confidence"); c.Exists() {
			a.Confidence = clamp01(c.Float())
		}
		for _, action := range item.Get("suggested_actions").Array() {
			if s := action.String(); s != "" {
				a.SuggestedActions = append(a.SuggestedActions, s)
			}
		}
		a.AffectedMetrics = inferMetrics(a.Description)

		anomalies = append(anomalies, a)
		return true
	})

	if len(anomalies) == 0 {
		return nil, core.NewParseError("model reply contained no anomaly objects", nil)
	}
	return anomalies, nil
}

// parseRecommendations maps the model's JSON reply into typed
// recommendations. Status is always "new"; the caller owns it afterwards.
func parseRecommendations(reply string, now time.Time) ([]core.AIRecommendation, error) {
	raw, ok := extractJSONArray(reply)
	if !ok {
		return nil, core.NewParseError("no JSON array in model reply", nil)
	}
	if !gjson.Valid(raw) {
		return nil, core.NewParseError("extracted array is not valid JSON", nil)
	}

	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, core.NewParseError("extracted JSON is not an array", nil)
	}

	var recs []core.AIRecommendation
	parsed.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}

		r := core.AIRecommendation{
			ID:                   uuid.NewString(),
			Category:             core.RecommendPerformance,
			Priority:             core.LevelMedium,
			Impact:               core.LevelMedium,
			Effort:               core.LevelMedium,
			Title:                item.Get("title").String(),
			Description:          item.Get("description").String(),
			EstimatedImprovement: item.Get("estimated_improvement").String(),
			CreatedAt:            now,
			Status:               core.StatusNew,
		}
		if c, ok := validCategories[strings.ToLower(item.Get("category").String())]; ok {
			r.Category = c
		}
		if l, ok := validLevels[strings.ToLower(item.Get("priority").String())]; ok {
			r.Priority = l
		}
		if l, ok := validLevels[strings.ToLower(item.Get("impact").String())]; ok {
			r.Impact = l
		}
		if l, ok := validLevels[strings.ToLower(item.Get("effort").String())]; ok {
			r.Effort = l
		}
		for _, action := range item.Get("action_items").Array() {
			if s := action.String(); s != "" {
				r.ActionItems = append(r.ActionItems, s)
			}
		}
		for _, res := range item.Get("resources").Array() {
			if s := res.String(); s != "" {
				r.Resources = append(r.Resources, s)
			}
		}

		recs = append(recs, r)
		return true
	})

	if len(recs) == 0 {
		return nil, core.NewParseError("model reply contained no recommendation objects", nil)
	}
	return recs, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// fallbackAnomaly is returned when anomaly detection cannot produce real
// results (provider failure or unparseable reply) while the feature is on.
// The dashboard always gets something to render.
func fallbackAnomaly(now time.Time) core.AIAnomaly {
	return core.AIAnomaly{
		ID:          uuid.NewString(),
		Type:        core.AnomalyPerformance,
		Severity:    core.SeverityLow,
		Title:       "Monitoring active",
		Description: "AI anomaly monitoring is running. No anomalies were identified in the current analysis window.",
		DetectedAt:  now,
		AffectedMetrics: []string{
			"page_views", "load_time",
		},
		SuggestedActions: []string{"Continue monitoring", "Review metrics weekly"},
		Confidence:       0.5,
	}
}

// fallbackRecommendations are returned when recommendation generation
// cannot parse real results: one performance and one conversion item.
func fallbackRecommendations(now time.Time) []core.AIRecommendation {
	return []core.AIRecommendation{
		{
			ID:                   uuid.NewString(),
			Category:             core.RecommendPerformance,
			Priority:             core.LevelHigh,
			Impact:               core.LevelHigh,
			Effort:               core.LevelMedium,
			Title:                "Optimize image loading",
			Description:          "Compress and lazy-load images to reduce initial page weight and improve load times on slower connections.",
			EstimatedImprovement: "20-30% faster page loads",
			ActionItems: []string{
				"Convert images to WebP",
				"Add loading=\"lazy\" to below-the-fold images",
				"Serve responsive image sizes",
			},
			CreatedAt: now,
			Status:    core.StatusNew,
		},
		{
			ID:                   uuid.NewString(),
			Category:             core.RecommendConversion,
			Priority:             core.LevelMedium,
			Impact:               core.LevelHigh,
			Effort:               core.LevelLow,
			Title:                "Simplify the contact form",
			Description:          "Reduce the contact form to the essential fields and move it above the fold on key landing pages.",
			EstimatedImprovement: "10-15% more form completions",
			ActionItems: []string{
				"Drop optional fields",
				"Add a clear call-to-action",
				"Show the form on every project page",
			},
			CreatedAt: now,
			Status:    core.StatusNew,
		},
	}
}
