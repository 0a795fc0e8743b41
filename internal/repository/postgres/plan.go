package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	domainPlan "github.com/liyaqa/billing/internal/domain/plan"
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/logger"
	"github.com/liyaqa/billing/internal/postgres"
	"github.com/liyaqa/billing/internal/types"
)

const planColumns = `id, name, tier, monthly_price, annual_price, currency,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

type planRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) domainPlan.Repository {
	return &planRepository{client: client, logger: logger}
}

func (r *planRepository) Create(ctx context.Context, p *domainPlan.SubscriptionPlan) error {
	query := fmt.Sprintf(`
		INSERT INTO plans (%s)
		VALUES (:id, :name, :tier, :monthly_price, :annual_price, :currency,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`, planColumns)

	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, p); err != nil {
		return ierr.WithError(err).
			WithHintf("failed to create plan %s", p.Name).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*domainPlan.SubscriptionPlan, error) {
	query := fmt.Sprintf(`SELECT %s FROM plans WHERE id = $1`, planColumns)

	var p domainPlan.SubscriptionPlan
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainPlan.ErrPlanNotFound
		}
		return nil, ierr.WithError(err).
			WithHintf("failed to get plan %s", id).
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) List(ctx context.Context) ([]*domainPlan.SubscriptionPlan, error) {
	query := fmt.Sprintf(`SELECT %s FROM plans WHERE status = $1 ORDER BY monthly_price`, planColumns)

	var plans []*domainPlan.SubscriptionPlan
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &plans, query, types.StatusActive); err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}

func (r *planRepository) Update(ctx context.Context, p *domainPlan.SubscriptionPlan) error {
	p.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE plans SET
			name = :name,
			tier = :tier,
			monthly_price = :monthly_price,
			annual_price = :annual_price,
			currency = :currency,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, p)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("failed to update plan %s", p.ID).
			Mark(ierr.ErrDatabase)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return domainPlan.ErrPlanNotFound
	}
	return nil
}
