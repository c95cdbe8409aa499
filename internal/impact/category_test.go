package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		your    float64
		team    float64
		want    Category
	}{
		{"won and carried", Victory, 10, 5, ImpactWins},
		{"lost and underperformed", Defeat, 5, 10, ImpactLosses},
		{"won despite underperforming", Victory, 5, 10, GuaranteedWins},
		{"lost despite outperforming", Defeat, 10, 5, GuaranteedLosses},
		{"victory tie is not higher", Victory, 5, 5, GuaranteedWins},
		{"defeat tie is not higher", Defeat, 5, 5, ImpactLosses},
		{"negative scores", Defeat, -12.5, -20, GuaranteedLosses},
		{"unknown outcome falls through", Outcome(""), 10, 5, GuaranteedLosses},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.outcome, tt.your, tt.team))
		})
	}
}

func TestCountCategories(t *testing.T) {
	counts := CountCategories([]Category{
		ImpactWins, ImpactWins, ImpactLosses, GuaranteedLosses, Category("bogus"),
	})

	assert.Equal(t, Counts{ImpactWins: 2, ImpactLosses: 1, GuaranteedLosses: 1}, counts)
	assert.Equal(t, 4, counts.Total())
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, Category("impactDraws").Valid())
}
