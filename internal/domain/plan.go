package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Plans, subscriptions and billing periods
// ============================================================

// Plan is a subscription tier definition.
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"durationDays"`
	UserLimit    int             `json:"userLimit"`
	IsTrial      bool            `json:"isTrial"`
	IsActive     bool            `json:"isActive"`
}

// IsPaid reports whether activating the plan needs a payment setup.
func (p Plan) IsPaid() bool {
	return !p.IsTrial
}

// PlanRequest is the body for creating or updating a plan from the backoffice.
type PlanRequest struct {
	Name         string           `json:"name,omitempty" validate:"required_without=Partial,omitempty,min=2"`
	Description  string           `json:"description,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty" validate:"required_without=Partial"`
	DurationDays int              `json:"durationDays,omitempty" validate:"required_without=Partial,omitempty,min=1,max=3650"`
	UserLimit    int              `json:"userLimit,omitempty" validate:"omitempty,min=1"`
	IsTrial      *bool            `json:"isTrial,omitempty"`
	IsActive     *bool            `json:"isActive,omitempty"`

	// Partial marks a PATCH body, where Name is not required.
	Partial bool `json:"-"`
}

// ClientPlan records which Plan a Client is subscribed to.
type ClientPlan struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
	PlanID   string `json:"planId"`
	Current  bool   `json:"current"`
	Plan     *Plan  `json:"plan,omitempty"`
}

// CreateClientPlanRequest is the body for POST /client-plans.
type CreateClientPlanRequest struct {
	ClientID string `json:"clientId"`
	PlanID   string `json:"planId"`
	Current  bool   `json:"current"`
}

// ClientPeriodPlan is one billing/access interval under a ClientPlan.
type ClientPeriodPlan struct {
	ID           string    `json:"id"`
	ClientPlanID string    `json:"clientPlanId"`
	StartsAt     time.Time `json:"startsAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsTrial      bool      `json:"isTrial"`
	IsCurrent    bool      `json:"isCurrent"`
	WasConfirmed bool      `json:"wasConfirmed"`
}

// CreateClientPeriodPlanRequest is the body for POST /client-period-plans.
type CreateClientPeriodPlanRequest struct {
	ClientPlanID string    `json:"clientPlanId"`
	StartsAt     time.Time `json:"startsAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsTrial      bool      `json:"isTrial"`
	IsCurrent    bool      `json:"isCurrent"`
	WasConfirmed bool      `json:"wasConfirmed"`
}

// NewPeriodForPlan builds the first period of a freshly created ClientPlan.
// Trial periods are confirmed immediately; paid periods wait for payment.
func NewPeriodForPlan(clientPlanID string, plan Plan, startsAt time.Time) CreateClientPeriodPlanRequest {
	return CreateClientPeriodPlanRequest{
		ClientPlanID: clientPlanID,
		StartsAt:     startsAt,
		ExpiresAt:    CalculateExpirationDate(startsAt, plan.DurationDays),
		IsTrial:      plan.IsTrial,
		IsCurrent:    true,
		WasConfirmed: plan.IsTrial,
	}
}

// CalculateExpirationDate returns the end of a period that starts at start
// and lasts durationDays. Whole multiples of 365 are calendar years, so a
// yearly plan ends on the same day of the following year.
func CalculateExpirationDate(start time.Time, durationDays int) time.Time {
	if durationDays > 0 && durationDays%365 == 0 {
		return start.AddDate(durationDays/365, 0, 0)
	}
	return start.AddDate(0, 0, durationDays)
}

// Subscription is the client area view of the current plan.
type Subscription struct {
	ClientPlan    ClientPlan         `json:"clientPlan"`
	Plan          *Plan              `json:"plan,omitempty"`
	Periods       []ClientPeriodPlan `json:"periods"`
	CurrentPeriod *ClientPeriodPlan  `json:"currentPeriod,omitempty"`
}
