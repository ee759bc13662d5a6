package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

func TestScoreWeightedFormula(t *testing.T) {
	tests := []struct {
		name         string
		record       types.ActivityRecord
		wantRaw      float64
		wantScore    float64
		wantCategory string
	}{
		{
			name: "heavy focused day clamps to 100",
			record: types.ActivityRecord{
				TaskHours: 9, IdleHours: 0.5, SocialMediaHours: 0.5,
				BreakFrequency: 2, TasksCompleted: 15,
			},
			wantRaw:      136.5,
			wantScore:    100,
			wantCategory: types.CategoryHighlyProductive,
		},
		{
			name: "distracted day clamps to 0",
			record: types.ActivityRecord{
				TaskHours: 3, IdleHours: 4, SocialMediaHours: 3,
				BreakFrequency: 10, TasksCompleted: 2,
			},
			wantRaw:      -31,
			wantScore:    0,
			wantCategory: types.CategoryFakeProductivity,
		},
		{
			name: "average day lands in the middle band",
			record: types.ActivityRecord{
				TaskHours: 6, IdleHours: 1.5, SocialMediaHours: 1,
				BreakFrequency: 3, TasksCompleted: 8,
			},
			wantRaw:      66,
			wantScore:    66,
			wantCategory: types.CategoryModeratelyProductive,
		},
		{
			name:         "all zeros",
			record:       types.ActivityRecord{},
			wantRaw:      0,
			wantScore:    0,
			wantCategory: types.CategoryFakeProductivity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.record)

			assert.InDelta(t, tt.wantRaw, result.RawScore, 1e-9)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
			assert.Equal(t, tt.wantCategory, result.Category)
		})
	}
}

func TestScoreBounds(t *testing.T) {
	extremes := []types.ActivityRecord{
		{TaskHours: 24, TasksCompleted: 100},
		{IdleHours: 24, SocialMediaHours: 24, BreakFrequency: 50},
		{},
	}

	for _, record := range extremes {
		result := Score(record)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 100.0)
	}
}

func TestScoreMonotonicInTaskHours(t *testing.T) {
	base := types.ActivityRecord{TaskHours: 2, IdleHours: 2, TasksCompleted: 2}
	more := base
	more.TaskHours = 4

	assert.GreaterOrEqual(t, Score(more).Score, Score(base).Score)
}

func TestScoreDeterministic(t *testing.T) {
	record := types.ActivityRecord{
		TaskHours: 5.5, IdleHours: 1.25, SocialMediaHours: 0.75,
		BreakFrequency: 4, TasksCompleted: 7,
	}

	first := Score(record)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(record))
	}
}

func TestScoreBreakdown(t *testing.T) {
	record := types.ActivityRecord{
		TaskHours: 6, IdleHours: 1, SocialMediaHours: 2,
		BreakFrequency: 4, TasksCompleted: 5,
	}

	breakdown := Score(record).Breakdown

	assert.Equal(t, 6.0, breakdown.ProductiveHours)
	assert.Equal(t, 1.0, breakdown.IdleHours)
	assert.Equal(t, 2.0, breakdown.SocialMediaHours)
	// four breaks at half an hour each
	assert.Equal(t, 2.0, breakdown.BreakHours)
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, types.CategoryHighlyProductive},
		{80, types.CategoryHighlyProductive},
		{79.999, types.CategoryModeratelyProductive},
		{50, types.CategoryModeratelyProductive},
		{49.999, types.CategoryFakeProductivity},
		{0, types.CategoryFakeProductivity},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %v", tt.score)
	}
}
