package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Incentive plan types
const (
	PlanTypeBasic       = "basic"
	PlanTypeTiered      = "tiered"
	PlanTypePerformance = "performance"
	PlanTypeMixed       = "mixed"
)

// Incentive plan statuses
const (
	PlanStatusDraft   = "draft"
	PlanStatusActive  = "active"
	PlanStatusExpired = "expired"
)

// Store scopes
const (
	StoreScopeAll      = "all"
	StoreScopeExplicit = "explicit"
)

// Rule triggers
const (
	TriggerSalesAmount = "sales_amount"
	TriggerOrderCount  = "order_count"
	TriggerNewCustomer = "new_customer"
	TriggerProduct     = "product"
)

// Reward kinds
const (
	RewardPercentage = "percentage"
	RewardFixed      = "fixed"
	RewardPoints     = "points"
)

type Reward struct {
	Kind        string          `json:"kind" yaml:"kind"`
	Value       decimal.Decimal `json:"value" yaml:"value"`
	Description string          `json:"description,omitempty" yaml:"description"`
}

type IncentiveRule struct {
	ID        string          `json:"id" yaml:"id"`
	Trigger   string          `json:"trigger" yaml:"trigger"`
	Threshold decimal.Decimal `json:"threshold" yaml:"threshold"`
	Reward    Reward          `json:"reward" yaml:"reward"`
}

// IncentivePlan is a sales incentive scheme for stores
type IncentivePlan struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Type       string          `json:"type" yaml:"type"`
	Status     string          `json:"status" yaml:"status"`
	ValidFrom  time.Time       `json:"validFrom" yaml:"validFrom"`
	ValidTo    time.Time       `json:"validTo" yaml:"validTo"`
	StoreScope string          `json:"storeScope" yaml:"storeScope"`
	Stores     []string        `json:"stores,omitempty" yaml:"stores"`
	Rules      []IncentiveRule `json:"rules" yaml:"rules"`
}

func (p IncentivePlan) RecordID() string { return p.ID }

func (p IncentivePlan) Clone() IncentivePlan {
	p.Stores = slices.Clone(p.Stores)
	p.Rules = slices.Clone(p.Rules)
	return p
}
