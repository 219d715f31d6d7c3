package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeSource struct {
	plan string
	err  error
}

func (f *fakeSource) GetSubscriptionPlan(ctx context.Context, userID uuid.UUID) (string, error) {
	return f.plan, f.err
}

func TestPlanFor(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name   string
		source SubscriptionSource
		userID uuid.UUID
		want   Plan
	}{
		{"anonymous caller", &fakeSource{plan: "pro"}, uuid.Nil, PlanFree},
		{"no source", nil, userID, PlanFree},
		{"stored pro plan", &fakeSource{plan: "pro"}, userID, PlanPro},
		{"stored free plan", &fakeSource{plan: "free"}, userID, PlanFree},
		{"unknown plan value", &fakeSource{plan: "enterprise"}, userID, PlanFree},
		{"lookup failure", &fakeSource{err: errors.New("connection refused")}, userID, PlanFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.source, nil)
			if got := r.PlanFor(context.Background(), tt.userID); got != tt.want {
				t.Errorf("PlanFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlanIsPro(t *testing.T) {
	if PlanFree.IsPro() {
		t.Error("free plan reports premium access")
	}
	if !PlanPro.IsPro() {
		t.Error("pro plan does not report premium access")
	}
}
