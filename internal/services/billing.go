package services

import (
	"context"
	"time"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/policy"

	"github.com/google/uuid"
)

func (s *Service) ListSubscriptions(ctx context.Context, p policy.Principal) ([]models.Subscription, error) {
	return listScoped[models.Subscription](ctx, s, p, policy.KindSubscription, policy.MatchAll(), "t.created_at DESC")
}

func (s *Service) GetSubscription(ctx context.Context, p policy.Principal, id string) (*models.Subscription, error) {
	return getScoped[models.Subscription](ctx, s, p, policy.KindSubscription, id)
}

func (s *Service) ListPayments(ctx context.Context, p policy.Principal) ([]models.Payment, error) {
	return listScoped[models.Payment](ctx, s, p, policy.KindPayment, policy.MatchAll(), "t.paid_at DESC")
}

func (s *Service) GetPayment(ctx context.Context, p policy.Principal, id string) (*models.Payment, error) {
	return getScoped[models.Payment](ctx, s, p, policy.KindPayment, id)
}

type SubscriptionInput struct {
	OwnerGymID        *string                   `json:"ownerGymId"`
	OwnerUserID       *string                   `json:"ownerUserId"`
	PlanID            string                    `json:"planId" validate:"required"`
	Status            models.SubscriptionStatus `json:"status"`
	EndDate           *time.Time                `json:"endDate"`
	NextBillingDate   *time.Time                `json:"nextBillingDate"`
	CancelAtPeriodEnd bool                      `json:"cancelAtPeriodEnd"`
}

// subscriptionOwners resolves who a new subscription belongs to. Gym admins may
// subscribe their gym; everyone else subscribes themselves.
func subscriptionOwners(p policy.Principal, in SubscriptionInput) (gymID, userID *string, err error) {
	gymID, userID = nonEmpty(in.OwnerGymID), nonEmpty(in.OwnerUserID)
	if p.IsSuperAdmin() {
		if gymID == nil && userID == nil {
			return nil, nil, ErrValidation(map[string]string{"ownerUserId": "an owner gym or user is required"})
		}
		return gymID, userID, nil
	}
	if gymID != nil {
		if p.Role != policy.RoleGymAdmin || !p.InGym(gymID) {
			return nil, nil, ErrForbidden("only the gym's admin may subscribe a gym")
		}
		return gymID, nil, nil
	}
	if userID != nil && *userID != p.ID {
		return nil, nil, ErrForbidden("cannot subscribe another user")
	}
	id := p.ID
	return nil, &id, nil
}

func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func (s *Service) CreateSubscription(ctx context.Context, p policy.Principal, in SubscriptionInput) (*models.Subscription, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.SubscriptionIncomplete
	}
	if !models.SubscriptionTransitions.Known(in.Status) {
		return nil, ErrValidation(map[string]string{"status": "unknown status " + string(in.Status)})
	}
	if err := s.visible(ctx, p, policy.KindSubscriptionPlan, in.PlanID); err != nil {
		return nil, err
	}
	gymID, userID, err := subscriptionOwners(p, in)
	if err != nil {
		return nil, err
	}
	target := policy.Target{GymID: gymID}
	if userID != nil {
		target.OwnerID = *userID
	}
	if err := s.authorize(p, policy.KindSubscription, policy.ActionCreate, target); err != nil {
		return nil, err
	}
	now := s.now()
	sub := models.Subscription{
		ID:                uuid.NewString(),
		OwnerGymID:        gymID,
		OwnerUserID:       userID,
		PlanID:            in.PlanID,
		Status:            in.Status,
		StartDate:         now,
		EndDate:           in.EndDate,
		NextBillingDate:   in.NextBillingDate,
		CancelAtPeriodEnd: in.CancelAtPeriodEnd,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err = s.DB.NamedExecContext(ctx, `
INSERT INTO subscriptions (id, owner_gym_id, owner_user_id, plan_id, status, start_date, end_date,
  next_billing_date, cancel_at_period_end, created_at, updated_at)
VALUES (:id, :owner_gym_id, :owner_user_id, :plan_id, :status, :start_date, :end_date,
  :next_billing_date, :cancel_at_period_end, :created_at, :updated_at)`, &sub)
	if err != nil {
		return nil, storeError(err, "create subscription")
	}
	return &sub, nil
}

// UpdateSubscription changes plan, status and billing dates. Owners are
// fixed at creation.
func (s *Service) UpdateSubscription(ctx context.Context, p policy.Principal, id string, in SubscriptionInput) (*models.Subscription, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var before models.Subscription
	if err := s.DB.GetContext(ctx, &before, `SELECT * FROM subscriptions WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, policy.KindSubscription, "load subscription")
	}
	target, err := s.loadTarget(ctx, s.DB, policy.KindSubscription, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, policy.KindSubscription, policy.ActionUpdate, target); err != nil {
		return nil, err
	}
	status := string(in.Status)
	if err := transition(models.SubscriptionTransitions, string(before.Status), &status); err != nil {
		return nil, err
	}
	if in.PlanID != before.PlanID {
		if err := s.visible(ctx, p, policy.KindSubscriptionPlan, in.PlanID); err != nil {
			return nil, err
		}
	}
	after := before
	after.PlanID = in.PlanID
	after.Status = models.SubscriptionStatus(status)
	after.EndDate = in.EndDate
	after.NextBillingDate = in.NextBillingDate
	after.CancelAtPeriodEnd = in.CancelAtPeriodEnd
	after.UpdatedAt = s.now()
	_, err = s.DB.NamedExecContext(ctx, `
UPDATE subscriptions
SET plan_id = :plan_id, status = :status, end_date = :end_date, next_billing_date = :next_billing_date,
    cancel_at_period_end = :cancel_at_period_end, updated_at = :updated_at
WHERE id = :id`, &after)
	if err != nil {
		return nil, storeError(err, "update subscription")
	}
	return &after, nil
}

func (s *Service) DeleteSubscription(ctx context.Context, p policy.Principal, id string) error {
	target, err := s.loadTarget(ctx, s.DB, policy.KindSubscription, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, policy.KindSubscription, policy.ActionDelete, target); err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	return storeError(err, "delete subscription")
}
