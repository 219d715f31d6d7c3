// Package billing resolves a user's subscription plan, which gates the AI
// model tier their requests run on.
package billing

import (
	"context"

	"github.com/google/uuid"

	"resumelens/internal/errors"
)

// Plan is a subscription tier
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// IsPro reports whether the plan allows premium model access
func (p Plan) IsPro() bool {
	return p == PlanPro
}

// SubscriptionSource looks up the stored plan for a user
type SubscriptionSource interface {
	GetSubscriptionPlan(ctx context.Context, userID uuid.UUID) (string, error)
}

// Resolver maps users to plans. Anonymous callers and lookup failures resolve
// to the free plan: a billing outage must never grant premium access.
type Resolver struct {
	source SubscriptionSource
	logger *errors.Logger
}

// NewResolver creates a plan resolver over a subscription source
func NewResolver(source SubscriptionSource, logger *errors.Logger) *Resolver {
	return &Resolver{source: source, logger: logger}
}

// PlanFor resolves the plan for a user ID. The zero UUID is the anonymous
// caller and always maps to the free plan.
func (r *Resolver) PlanFor(ctx context.Context, userID uuid.UUID) Plan {
	if userID == uuid.Nil || r.source == nil {
		return PlanFree
	}

	plan, err := r.source.GetSubscriptionPlan(ctx, userID)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("Subscription lookup failed, defaulting to free plan",
				"user_id", userID.String(), "error", err)
		}
		return PlanFree
	}

	switch Plan(plan) {
	case PlanPro:
		return PlanPro
	default:
		return PlanFree
	}
}
