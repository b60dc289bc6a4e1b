package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"retail-dashboard-api/internal/listing"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/repository"
	"retail-dashboard-api/internal/validation"
)

var (
	planTypes      = []string{models.PlanTypeBasic, models.PlanTypeTiered, models.PlanTypePerformance, models.PlanTypeMixed}
	planStatuses   = []string{models.PlanStatusDraft, models.PlanStatusActive, models.PlanStatusExpired}
	ruleTriggers   = []string{models.TriggerSalesAmount, models.TriggerOrderCount, models.TriggerNewCustomer, models.TriggerProduct}
	rewardKinds    = []string{models.RewardPercentage, models.RewardFixed, models.RewardPoints}
	percentCeiling = decimal.NewFromInt(100)
)

// IncentiveService lists incentive plans and validates the plan form.
// Validated plans are never stored.
type IncentiveService struct {
	plans  repository.Repository[models.IncentivePlan]
	schema *listing.Schema[models.IncentivePlan]
}

func NewIncentiveService(plans repository.Repository[models.IncentivePlan], pageSize int) *IncentiveService {
	return &IncentiveService{
		plans: plans,
		schema: listing.NewSchema[models.IncentivePlan](pageSize).
			String("name", func(p models.IncentivePlan) string { return p.Name }).
			Enum("type", func(p models.IncentivePlan) string { return p.Type }).
			Enum("status", func(p models.IncentivePlan) string { return p.Status }).
			Number("rules", func(p models.IncentivePlan) float64 { return float64(len(p.Rules)) }),
	}
}

func (s *IncentiveService) Schema() *listing.Schema[models.IncentivePlan] {
	return s.schema
}

func (s *IncentiveService) List(ctx context.Context, q listing.Query) (models.ListResponse[models.IncentivePlan], error) {
	all, err := s.plans.List(ctx, nil)
	if err != nil {
		return models.ListResponse[models.IncentivePlan]{}, err
	}
	result, err := listing.Apply(s.schema, all, q)
	if err != nil {
		return models.ListResponse[models.IncentivePlan]{}, err
	}
	return models.ListResponse[models.IncentivePlan]{Items: result.Items, Pagination: result.Pagination()}, nil
}

// Validate checks a submitted plan and returns it normalized: trimmed name,
// draft status when unset, no store list for the all-stores scope, and rule
// ids filled in.
func (s *IncentiveService) Validate(_ context.Context, plan models.IncentivePlan) (models.IncentivePlan, error) {
	plan = plan.Clone()
	plan.Name = strings.TrimSpace(plan.Name)
	if plan.Status == "" {
		plan.Status = models.PlanStatusDraft
	}
	if plan.StoreScope == "" {
		plan.StoreScope = models.StoreScopeAll
	}

	verr := &validation.Error{}
	if plan.Name == "" {
		verr.Add("name", "validation.required")
	}
	if !slices.Contains(planTypes, plan.Type) {
		verr.Add("type", "validation.enum")
	}
	if !slices.Contains(planStatuses, plan.Status) {
		verr.Add("status", "validation.enum")
	}

	switch {
	case plan.ValidFrom.IsZero():
		verr.Add("validFrom", "validation.required")
	case plan.ValidTo.IsZero():
		verr.Add("validTo", "validation.required")
	case plan.ValidFrom.After(plan.ValidTo):
		verr.Add("validTo", "validation.date_range")
	}

	switch plan.StoreScope {
	case models.StoreScopeAll:
		plan.Stores = nil
	case models.StoreScopeExplicit:
		plan.Stores = slices.DeleteFunc(plan.Stores, func(s string) bool { return strings.TrimSpace(s) == "" })
		if len(plan.Stores) == 0 {
			verr.Add("stores", "validation.min_stores")
		}
	default:
		verr.Add("storeScope", "validation.enum")
	}

	if len(plan.Rules) == 0 {
		verr.Add("rules", "validation.min_rules")
	}
	for i := range plan.Rules {
		rule := &plan.Rules[i]
		field := fmt.Sprintf("rules[%d]", i)
		if rule.ID == "" {
			rule.ID = fmt.Sprintf("R%d", i+1)
		}
		if !slices.Contains(ruleTriggers, rule.Trigger) {
			verr.Add(field+".trigger", "validation.enum")
		}
		if rule.Threshold.IsNegative() {
			verr.Add(field+".threshold", "validation.number")
		}
		if !slices.Contains(rewardKinds, rule.Reward.Kind) {
			verr.Add(field+".reward.kind", "validation.enum")
		}
		switch {
		case !rule.Reward.Value.IsPositive():
			verr.Add(field+".reward.value", "validation.positive")
		case rule.Reward.Kind == models.RewardPercentage && rule.Reward.Value.GreaterThan(percentCeiling):
			verr.Add(field+".reward.value", "validation.percentage_max")
		}
	}

	if err := verr.OrNil(); err != nil {
		return models.IncentivePlan{}, err
	}
	return plan, nil
}
