package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/moodchat/pkg/emotion"
)

func historyOf(limit int, cats ...emotion.Category) *History {
	h := NewHistory(limit)
	for _, c := range cats {
		h.Append(userTurn(string(c), c))
		h.Append(Turn{Role: RoleAssistant, Text: "reply"})
	}
	return h
}

func TestAnalyze_Empty(t *testing.T) {
	set := emotion.MustDefaultSet()
	in := Analyze(NewHistory(4), set)

	assert.Equal(t, emotion.Neutral, in.DominantEmotion)
	assert.Equal(t, emotion.Neutral, in.CurrentMood)
	require.NotNil(t, in.Distribution)
	assert.Empty(t, in.Distribution)
	assert.Equal(t, TrendInsufficient, in.Trend)
	assert.Equal(t, RiskLow, in.RiskLevel)
	assert.False(t, in.UrgentInterventionNeeded)
	assert.NotEmpty(t, in.Suggestions)
	assert.Zero(t, in.SampleSize)
	assert.Equal(t, Balance{}, in.EmotionalBalance)
}

func TestAnalyze_DominantTieBreak(t *testing.T) {
	set := emotion.MustDefaultSet()
	h := historyOf(20, emotion.Anxiety, emotion.Positive, emotion.Positive, emotion.Anxiety)

	in := Analyze(h, set)
	assert.Equal(t, emotion.Anxiety, in.DominantEmotion, "anxiety appears first among the tied categories")
	assert.Equal(t, map[emotion.Category]int{emotion.Anxiety: 2, emotion.Positive: 2}, in.Distribution)
}

func TestAnalyze_DominantAfterEviction(t *testing.T) {
	set := emotion.MustDefaultSet()
	// Window of 4 turns keeps the last two exchanges: positive, anxiety.
	h := historyOf(4, emotion.Anxiety, emotion.Anxiety, emotion.Positive, emotion.Anxiety)

	in := Analyze(h, set)
	assert.Equal(t, map[emotion.Category]int{emotion.Positive: 1, emotion.Anxiety: 1}, in.Distribution)
	assert.Equal(t, emotion.Positive, in.DominantEmotion)
	assert.Equal(t, 2, in.SampleSize)
}

func TestAnalyze_Trend(t *testing.T) {
	set := emotion.MustDefaultSet()

	tests := []struct {
		name string
		cats []emotion.Category
		want Trend
	}{
		{"single", []emotion.Category{emotion.Anxiety}, TrendInsufficient},
		{"improving", []emotion.Category{emotion.Depression, emotion.Depression, emotion.Anxiety, emotion.Positive, emotion.Positive, emotion.Positive}, TrendImproving},
		{"declining", []emotion.Category{emotion.Positive, emotion.Positive, emotion.Positive, emotion.Anger}, TrendDeclining},
		{"stable neutral", []emotion.Category{emotion.Neutral, emotion.Neutral, emotion.Neutral}, TrendStable},
		{"stable small change", []emotion.Category{emotion.Anxiety, emotion.Neutral, emotion.Anxiety, emotion.Neutral, emotion.Neutral, emotion.Anxiety}, TrendStable},
		{"two entries improving", []emotion.Category{emotion.Anger, emotion.Positive}, TrendImproving},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := historyOf(40, tt.cats...)
			assert.Equal(t, tt.want, Analyze(h, set).Trend)
		})
	}
}

func TestAnalyze_RiskLevels(t *testing.T) {
	set := emotion.MustDefaultSet()

	crisis := Analyze(historyOf(10, emotion.Positive, emotion.SelfHarm), set)
	assert.Equal(t, emotion.SelfHarm, crisis.CurrentMood)
	assert.Equal(t, RiskHigh, crisis.RiskLevel)
	assert.True(t, crisis.UrgentInterventionNeeded)
	assert.Contains(t, crisis.Suggestions[0], "crisis hotline")

	moderate := Analyze(historyOf(10, emotion.Anxiety), set)
	assert.Equal(t, RiskModerate, moderate.RiskLevel)
	assert.False(t, moderate.UrgentInterventionNeeded)
	assert.Equal(t, "It's okay to feel anxiety. Try to take a few deep breaths.", moderate.Suggestions[0])

	positive := Analyze(historyOf(10, emotion.Positive), set)
	assert.Equal(t, RiskLow, positive.RiskLevel)
	assert.Contains(t, positive.Suggestions[0], "wonderful")

	neutral := Analyze(historyOf(10, emotion.Neutral), set)
	assert.Equal(t, RiskLow, neutral.RiskLevel)
	assert.Contains(t, neutral.Suggestions[0], "valid and important")
}

func TestAnalyze_Balance(t *testing.T) {
	set := emotion.MustDefaultSet()
	h := historyOf(20, emotion.Positive, emotion.Anger, emotion.Neutral, emotion.Depression, emotion.Positive)

	in := Analyze(h, set)
	assert.Equal(t, Balance{Positive: 2, Neutral: 1, Negative: 2}, in.EmotionalBalance)
	assert.Equal(t, 5, in.SampleSize)
}

func TestAnalyze_DistributionIsCopy(t *testing.T) {
	set := emotion.MustDefaultSet()
	h := historyOf(10, emotion.Anger)

	in := Analyze(h, set)
	in.Distribution[emotion.Anger] = 42
	assert.Equal(t, 1, h.Tally()[emotion.Anger])
}
