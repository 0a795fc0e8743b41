package repository

import (
	"github.com/liyaqa/billing/internal/domain/invoice"
	"github.com/liyaqa/billing/internal/domain/payment"
	"github.com/liyaqa/billing/internal/domain/plan"
	"github.com/liyaqa/billing/internal/domain/subscription"
	"github.com/liyaqa/billing/internal/logger"
	"github.com/liyaqa/billing/internal/postgres"
	postgresRepo "github.com/liyaqa/billing/internal/repository/postgres"
)

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(client, logger)
}

func NewSequenceRepository(client postgres.IClient, logger *logger.Logger) invoice.SequenceRepository {
	return postgresRepo.NewSequenceRepository(client, logger)
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(client, logger)
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(client, logger)
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(client, logger)
}
