package sales

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

// DefaultExcludedMarker tags article codes that never count as revenue (disposal levies).
const DefaultExcludedMarker = "RAEE"

// PerformanceFilter selects the dashboard slice. Nil Year means the latest year with data.
type PerformanceFilter struct {
	Year      *int
	Month     *int
	AgentName string
}

// Performance is the revenue dashboard for one year.
type Performance struct {
	Year       int             `json:"year"`
	Month      *int            `json:"month,omitempty"`
	AgentID    string          `json:"agent_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Monthly    []MonthAmount   `json:"monthly"`
	ByAgent    []GroupAmount   `json:"by_agent,omitempty"`
	ByCategory []GroupAmount   `json:"by_category"`
	Years      []int           `json:"years"`
	Months     []int           `json:"months"`
}

// CustomerReport tracks one customer's revenue against the target.
type CustomerReport struct {
	Customer   string          `json:"customer"`
	Revenue    decimal.Decimal `json:"revenue"`
	Target     decimal.Decimal `json:"target"`
	Remaining  decimal.Decimal `json:"remaining"`
	Reached    bool            `json:"reached"`
	Progress   decimal.Decimal `json:"progress"`
	ByCategory []GroupAmount   `json:"by_category"`
}

// Service aggregates the sales history for dashboards and customer tracking.
type Service interface {
	Performance(ctx context.Context, op auth.Operator, filter PerformanceFilter) (*Performance, error)
	Agents(ctx context.Context, op auth.Operator) ([]Agent, error)
	Customers(ctx context.Context, op auth.Operator, agentID string) ([]string, error)
	CustomerReport(ctx context.Context, op auth.Operator, customer string) (*CustomerReport, error)
}

// ServiceParams wires the sales service.
type ServiceParams struct {
	Source         Source
	Target         decimal.Decimal
	ExcludedMarker string
}

type service struct {
	source Source
	target decimal.Decimal
	marker string
}

// NewService builds the sales service.
func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, errors.New("sales source required")
	}
	if !params.Target.IsPositive() {
		return nil, errors.New("sales target must be positive")
	}
	marker := strings.TrimSpace(params.ExcludedMarker)
	if marker == "" {
		marker = DefaultExcludedMarker
	}
	return &service{source: params.Source, target: params.Target, marker: marker}, nil
}

func (s *service) Performance(ctx context.Context, op auth.Operator, filter PerformanceFilter) (*Performance, error) {
	if filter.Month != nil && (*filter.Month < 1 || *filter.Month > 12) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "month must be between 1 and 12").
			WithDetails(map[string]any{"month": *filter.Month})
	}
	if !op.IsAdmin() && strings.TrimSpace(filter.AgentName) != "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "agent filter is reserved to admins")
	}

	agentID, err := scopeOf(op)
	if err != nil {
		return nil, err
	}
	base, err := s.load(ctx, Query{AgentID: agentID})
	if err != nil {
		return nil, err
	}
	base = excludeMarked(base, s.marker)

	// The directory is derived from the whole base before any name lookup.
	directory := agentDirectory(base)
	if name := strings.TrimSpace(filter.AgentName); name != "" {
		agent, ok := resolveAgent(directory, name)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown agent").
				WithDetails(map[string]any{"agent": name})
		}
		agentID = agent.ID
	}

	out := &Performance{
		Month:      filter.Month,
		AgentID:    agentID,
		Total:      decimal.Zero,
		Monthly:    monthlySeries(nil),
		ByCategory: []GroupAmount{},
		Years:      years(base),
		Months:     []int{},
	}
	if len(out.Years) == 0 {
		return out, nil
	}
	out.Year = out.Years[0]
	if filter.Year != nil {
		out.Year = *filter.Year
	}

	inYear := filterRecords(base, func(r Record) bool { return r.Year == out.Year })
	out.Months = months(inYear)
	selected := filterRecords(inYear, func(r Record) bool {
		if filter.Month != nil && r.Month != *filter.Month {
			return false
		}
		return agentID == "" || r.AgentID == agentID
	})

	out.Total = sumAmounts(selected)
	out.Monthly = monthlySeries(selected)
	out.ByCategory = byCategory(selected)
	if op.IsAdmin() {
		out.ByAgent = byAgent(selected)
	}
	return out, nil
}

func (s *service) Agents(ctx context.Context, op auth.Operator) ([]Agent, error) {
	if !op.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "agent directory is reserved to admins")
	}
	base, err := s.load(ctx, Query{})
	if err != nil {
		return nil, err
	}
	return agentDirectory(excludeMarked(base, s.marker)), nil
}

// Customers lists distinct customer names. Agents always see their own customers only.
func (s *service) Customers(ctx context.Context, op auth.Operator, agentID string) ([]string, error) {
	scope, err := scopeOf(op)
	if err != nil {
		return nil, err
	}
	if op.IsAdmin() {
		scope = strings.TrimSpace(agentID)
	}
	records, err := s.load(ctx, Query{AgentID: scope})
	if err != nil {
		return nil, err
	}
	return distinctCustomers(records), nil
}

func (s *service) CustomerReport(ctx context.Context, op auth.Operator, customer string) (*CustomerReport, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is required")
	}
	scope, err := scopeOf(op)
	if err != nil {
		return nil, err
	}
	records, err := s.load(ctx, Query{AgentID: scope, Customer: customer})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer has no sales history")
	}
	records = excludeMarked(records, s.marker)

	revenue := sumAmounts(records)
	remaining := s.target.Sub(revenue)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	progress := revenue.Div(s.target)
	if progress.GreaterThan(decimal.NewFromInt(1)) {
		progress = decimal.NewFromInt(1)
	}
	if progress.IsNegative() {
		progress = decimal.Zero
	}
	return &CustomerReport{
		Customer:   customer,
		Revenue:    revenue,
		Target:     s.target,
		Remaining:  remaining,
		Reached:    revenue.GreaterThanOrEqual(s.target),
		Progress:   progress.Round(4),
		ByCategory: byCategory(records),
	}, nil
}

func (s *service) load(ctx context.Context, q Query) ([]Record, error) {
	records, err := s.source.Records(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales history")
	}
	return records, nil
}

// scopeOf returns the agent id an operator is restricted to, or "" for admins.
func scopeOf(op auth.Operator) (string, error) {
	scope := op.AgentScope()
	if scope == nil {
		return "", nil
	}
	if *scope == "" {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "operator has no agent assigned")
	}
	return *scope, nil
}
