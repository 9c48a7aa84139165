package sales

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var monthLabels = [12]string{"Gen", "Feb", "Mar", "Apr", "Mag", "Giu", "Lug", "Ago", "Set", "Ott", "Nov", "Dic"}

// MonthAmount is one point of the monthly series.
type MonthAmount struct {
	Month  int             `json:"month"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// GroupAmount is a named total, by agent or by category.
type GroupAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Agent is an entry of the agent directory.
type Agent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MonthLabel returns the short Italian month name, or "" outside 1..12.
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthLabels[month-1]
}

// excludeMarked drops rows whose article code contains marker, case-insensitively.
func excludeMarked(records []Record, marker string) []Record {
	marker = strings.ToUpper(strings.TrimSpace(marker))
	if marker == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToUpper(r.ArticleCode), marker) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func sumAmounts(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.NetAmount)
	}
	return total
}

// monthlySeries always has twelve points; months without sales are zero.
func monthlySeries(records []Record) []MonthAmount {
	series := make([]MonthAmount, 12)
	for i := range series {
		series[i] = MonthAmount{Month: i + 1, Label: monthLabels[i], Amount: decimal.Zero}
	}
	for _, r := range records {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		series[r.Month-1].Amount = series[r.Month-1].Amount.Add(r.NetAmount)
	}
	return series
}

func groupBy(records []Record, key func(Record) string, descending bool) []GroupAmount {
	totals := map[string]decimal.Decimal{}
	for _, r := range records {
		k := key(r)
		totals[k] = totals[k].Add(r.NetAmount)
	}
	out := make([]GroupAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, GroupAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			if descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func byAgent(records []Record) []GroupAmount {
	return groupBy(records, func(r Record) string { return r.AgentName }, true)
}

func byCategory(records []Record) []GroupAmount {
	return groupBy(records, func(r Record) string { return r.Category }, false)
}

// agentDirectory lists every distinct agent, sorted by name then id.
func agentDirectory(records []Record) []Agent {
	seen := map[string]Agent{}
	for _, r := range records {
		if r.AgentID == "" {
			continue
		}
		if _, ok := seen[r.AgentID]; !ok {
			seen[r.AgentID] = Agent{ID: r.AgentID, Name: r.AgentName}
		}
	}
	out := make([]Agent, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func resolveAgent(directory []Agent, name string) (Agent, bool) {
	name = strings.TrimSpace(name)
	for _, a := range directory {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Agent{}, false
}

func years(records []Record) []int {
	return distinctInts(records, func(r Record) int { return r.Year }, true)
}

func months(records []Record) []int {
	return distinctInts(records, func(r Record) int { return r.Month }, false)
}

func distinctInts(records []Record, pick func(Record) int, descending bool) []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, r := range records {
		v := pick(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i] > out[j]
		}
		return out[i] < out[j]
	})
	return out
}

func distinctCustomers(records []Record) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range records {
		if r.Customer == "" {
			continue
		}
		if _, ok := seen[r.Customer]; ok {
			continue
		}
		seen[r.Customer] = struct{}{}
		out = append(out, r.Customer)
	}
	sort.Strings(out)
	return out
}

func filterRecords(records []Record, keep func(Record) bool) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
