package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	domainSub "github.com/liyaqa/billing/internal/domain/subscription"
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/logger"
	"github.com/liyaqa/billing/internal/postgres"
	"github.com/liyaqa/billing/internal/types"
)

const subscriptionColumns = `id, plan_id, billing_cycle, subscription_status,
	current_period_start, current_period_end, trial_ends_at,
	cancellation_reason, cancelled_at, tenant_id, status, created_at,
	updated_at, created_by, updated_by`

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) domainSub.Repository {
	return &subscriptionRepository{client: client, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domainSub.TenantSubscription) error {
	query := fmt.Sprintf(`
		INSERT INTO subscriptions (%s)
		VALUES (:id, :plan_id, :billing_cycle, :subscription_status,
			:current_period_start, :current_period_end, :trial_ends_at,
			:cancellation_reason, :cancelled_at, :tenant_id, :status, :created_at,
			:updated_at, :created_by, :updated_by)`, subscriptionColumns)

	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, sub); err != nil {
		return ierr.WithError(err).
			WithHintf("failed to create subscription %s", sub.ID).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*domainSub.TenantSubscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE id = $1`, subscriptionColumns)

	var sub domainSub.TenantSubscription
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &sub, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainSub.ErrSubscriptionNotFound
		}
		return nil, ierr.WithError(err).
			WithHintf("failed to get subscription %s", id).
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetActiveByTenant(ctx context.Context, tenantID string) (*domainSub.TenantSubscription, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM subscriptions
		WHERE tenant_id = $1 AND subscription_status IN ($2, $3)
		ORDER BY created_at DESC LIMIT 1`, subscriptionColumns)

	var sub domainSub.TenantSubscription
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &sub, query,
		tenantID, types.SubscriptionStatusTrial, types.SubscriptionStatusActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainSub.ErrSubscriptionNotFound
		}
		return nil, ierr.WithError(err).
			WithHintf("failed to get active subscription for tenant %s", tenantID).
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetLatestByTenant(ctx context.Context, tenantID string) (*domainSub.TenantSubscription, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM subscriptions
		WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT 1`, subscriptionColumns)

	var sub domainSub.TenantSubscription
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &sub, query, tenantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainSub.ErrSubscriptionNotFound
		}
		return nil, ierr.WithError(err).
			WithHintf("failed to get latest subscription for tenant %s", tenantID).
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *domainSub.TenantSubscription) error {
	sub.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE subscriptions SET
			plan_id = :plan_id,
			subscription_status = :subscription_status,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			trial_ends_at = :trial_ends_at,
			cancellation_reason = :cancellation_reason,
			cancelled_at = :cancelled_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("failed to update subscription %s", sub.ID).
			Mark(ierr.ErrDatabase)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return domainSub.ErrSubscriptionNotFound
	}
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*domainSub.TenantSubscription, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if len(filter.SubscriptionStatus) > 0 {
		statuses := lo.Map(filter.SubscriptionStatus, func(s types.SubscriptionStatus, _ int) string {
			return string(s)
		})
		args = append(args, "{"+strings.Join(statuses, ",")+"}")
		conditions = append(conditions, fmt.Sprintf("subscription_status = ANY($%d)", len(args)))
	}
	if filter.NextBillingDateLTE != nil {
		args = append(args, *filter.NextBillingDateLTE)
		conditions = append(conditions, fmt.Sprintf("current_period_end <= $%d", len(args)))
	}
	if filter.CurrentPeriodEndBefore != nil {
		args = append(args, *filter.CurrentPeriodEndBefore)
		conditions = append(conditions, fmt.Sprintf("current_period_end < $%d", len(args)))
	}
	if filter.CurrentPeriodEndWithin != nil {
		args = append(args, *filter.CurrentPeriodEndWithin)
		conditions = append(conditions, fmt.Sprintf("current_period_end <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE %s ORDER BY created_at`,
		subscriptionColumns, strings.Join(conditions, " AND "))

	var subs []*domainSub.TenantSubscription
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &subs, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}
