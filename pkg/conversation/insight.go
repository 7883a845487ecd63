package conversation

import (
	"fmt"
	"strings"

	"github.com/txn2/moodchat/pkg/emotion"
)

// Trend describes how the mood moved across the retained window.
type Trend string

const (
	TrendImproving    Trend = "improving"
	TrendDeclining    Trend = "declining"
	TrendStable       Trend = "stable"
	TrendInsufficient Trend = "insufficient_data"
)

// RiskLevel is a coarse wellbeing risk derived from the current mood.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// trendThreshold is the minimum change in mean polarity score between the
// earlier and the recent part of the window that counts as movement.
const trendThreshold = 0.25

// Balance counts retained emotions by polarity.
type Balance struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// MoodInsight is a read-only summary of a session's emotional state.
type MoodInsight struct {
	DominantEmotion          emotion.Category         `json:"dominant_emotion"`
	Distribution             map[emotion.Category]int `json:"distribution"`
	Trend                    Trend                    `json:"trend"`
	CurrentMood              emotion.Category         `json:"current_mood"`
	RiskLevel                RiskLevel                `json:"risk_level"`
	EmotionalBalance         Balance                  `json:"emotional_balance"`
	Suggestions              []string                 `json:"suggestions"`
	UrgentInterventionNeeded bool                     `json:"urgent_intervention_needed"`
	SampleSize               int                      `json:"sample_size"`
}

// Analyze computes a MoodInsight from h. An empty history yields the
// default category as dominant and current mood, an empty distribution and
// TrendInsufficient.
func Analyze(h *History, set *emotion.Set) MoodInsight {
	emotions := h.emotions()

	insight := MoodInsight{
		DominantEmotion: dominant(emotions, h.tally, set.Default()),
		Distribution:    h.Tally(),
		Trend:           trend(emotions, set),
		CurrentMood:     set.Default(),
		SampleSize:      len(emotions),
	}
	if last, ok := h.LastEmotion(); ok {
		insight.CurrentMood = last
	}

	for _, c := range emotions {
		switch set.Polarity(c) {
		case emotion.PolarityPositive:
			insight.EmotionalBalance.Positive++
		case emotion.PolarityNegative:
			insight.EmotionalBalance.Negative++
		default:
			insight.EmotionalBalance.Neutral++
		}
	}

	insight.RiskLevel, insight.UrgentInterventionNeeded = risk(insight.CurrentMood, set)
	insight.Suggestions = suggestions(insight.CurrentMood, insight.RiskLevel, set)
	return insight
}

// dominant picks the category with the highest count. Ties go to the
// category that first appears among the retained turns.
func dominant(ordered []emotion.Category, tally map[emotion.Category]int, def emotion.Category) emotion.Category {
	best := def
	bestCount := 0
	seen := make(map[emotion.Category]bool, len(tally))
	for _, c := range ordered {
		if seen[c] {
			continue
		}
		seen[c] = true
		if n := tally[c]; n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// trend compares the mean polarity of the most recent third of the emotions
// against the earlier two thirds.
func trend(ordered []emotion.Category, set *emotion.Set) Trend {
	n := len(ordered)
	if n < 2 {
		return TrendInsufficient
	}

	recentLen := n / 3
	if recentLen < 1 {
		recentLen = 1
	}
	split := n - recentLen

	delta := meanScore(ordered[split:], set) - meanScore(ordered[:split], set)
	switch {
	case delta > trendThreshold:
		return TrendImproving
	case delta < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func meanScore(cs []emotion.Category, set *emotion.Set) float64 {
	if len(cs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cs {
		sum += set.Polarity(c).Score()
	}
	return sum / float64(len(cs))
}

func risk(current emotion.Category, set *emotion.Set) (RiskLevel, bool) {
	switch {
	case set.IsCrisis(current):
		return RiskHigh, true
	case set.Polarity(current) == emotion.PolarityNegative:
		return RiskModerate, false
	default:
		return RiskLow, false
	}
}

func suggestions(current emotion.Category, level RiskLevel, set *emotion.Set) []string {
	switch {
	case level == RiskHigh:
		return []string{
			"Please reach out to a crisis hotline immediately.",
			"Your life has value, and there is help available.",
			"Consider speaking with a mental health professional.",
		}
	case level == RiskModerate:
		feeling := strings.ReplaceAll(string(current), "_", " ")
		return []string{
			fmt.Sprintf("It's okay to feel %s. Try to take a few deep breaths.", feeling),
			"Consider taking some time for self-care today.",
			"Reach out to someone you trust to talk.",
		}
	case set.Polarity(current) == emotion.PolarityPositive:
		return []string{
			"That's wonderful! What can you do to keep this positive feeling going?",
			"Remember to savor these moments of joy.",
			"Keep practicing self-awareness and gratitude.",
		}
	default:
		return []string{
			"How you're feeling is valid and important.",
			"I'm here to listen to whatever you'd like to share.",
			"Sometimes just having someone to talk to can be helpful.",
		}
	}
}
