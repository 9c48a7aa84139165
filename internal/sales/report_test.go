package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Gen", MonthLabel(1))
	assert.Equal(t, "Mag", MonthLabel(5))
	assert.Equal(t, "Dic", MonthLabel(12))
	assert.Equal(t, "", MonthLabel(0))
	assert.Equal(t, "", MonthLabel(13))
}

func TestExcludeMarkedIsCaseInsensitive(t *testing.T) {
	records := []Record{
		{ArticleCode: "TB-1"},
		{ArticleCode: "raee-forno"},
		{ArticleCode: "X-RAEE"},
	}
	kept := excludeMarked(records, "RAEE")
	require.Len(t, kept, 1)
	assert.Equal(t, "TB-1", kept[0].ArticleCode)

	assert.Len(t, excludeMarked(records, " "), 3)
}

func TestMonthlySeriesSkipsOutOfRangeMonths(t *testing.T) {
	series := monthlySeries([]Record{
		{Month: 3, NetAmount: amount("10")},
		{Month: 3, NetAmount: amount("5.5")},
		{Month: 0, NetAmount: amount("99")},
	})
	require.Len(t, series, 12)
	assert.True(t, series[2].Amount.Equal(amount("15.5")))
	assert.Equal(t, "Mar", series[2].Label)
	for i, point := range series {
		if i != 2 {
			assert.True(t, point.Amount.IsZero(), "month %d", point.Month)
		}
	}
}

func TestGroupOrdering(t *testing.T) {
	records := []Record{
		{AgentName: "B", Category: "Zeta", NetAmount: amount("10")},
		{AgentName: "A", Category: "Alfa", NetAmount: amount("10")},
		{AgentName: "C", Category: "Beta", NetAmount: amount("30")},
	}

	agents := byAgent(records)
	assert.Equal(t, []string{"C", "A", "B"}, names(agents))

	categories := byCategory(records)
	assert.Equal(t, []string{"Alfa", "Zeta", "Beta"}, names(categories))
}

func TestAgentDirectoryIsDistinctAndSorted(t *testing.T) {
	directory := agentDirectory([]Record{
		{AgentID: "AG02", AgentName: "Bruno"},
		{AgentID: "AG01", AgentName: "Anna"},
		{AgentID: "AG02", AgentName: "Bruno"},
		{AgentID: "", AgentName: "Senza codice"},
	})
	assert.Equal(t, []Agent{{ID: "AG01", Name: "Anna"}, {ID: "AG02", Name: "Bruno"}}, directory)

	found, ok := resolveAgent(directory, "  bruno ")
	require.True(t, ok)
	assert.Equal(t, "AG02", found.ID)
	_, ok = resolveAgent(directory, "Carla")
	assert.False(t, ok)
}

func TestDistinctYearsMonthsCustomers(t *testing.T) {
	records := []Record{
		{Year: 2024, Month: 5, Customer: "Beta"},
		{Year: 2026, Month: 1, Customer: "Alfa"},
		{Year: 2024, Month: 1, Customer: ""},
		{Year: 2025, Month: 5, Customer: "Beta"},
	}
	assert.Equal(t, []int{2026, 2025, 2024}, years(records))
	assert.Equal(t, []int{1, 5}, months(records))
	assert.Equal(t, []string{"Alfa", "Beta"}, distinctCustomers(records))
}

func names(groups []GroupAmount) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Name)
	}
	return out
}
