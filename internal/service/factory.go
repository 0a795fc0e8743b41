package service

import (
	"github.com/liyaqa/billing/internal/config"
	"github.com/liyaqa/billing/internal/domain/invoice"
	"github.com/liyaqa/billing/internal/domain/payment"
	"github.com/liyaqa/billing/internal/domain/plan"
	"github.com/liyaqa/billing/internal/domain/proration"
	"github.com/liyaqa/billing/internal/domain/subscription"
	"github.com/liyaqa/billing/internal/logger"
	"github.com/liyaqa/billing/internal/postgres"
	"github.com/liyaqa/billing/internal/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	InvoiceRepo  invoice.Repository
	SequenceRepo invoice.SequenceRepository
	SubRepo      subscription.Repository
	PlanRepo     plan.Repository
	PaymentRepo  payment.Repository

	// Proration
	ProrationCalculator proration.Calculator

	// Publishers
	EventPublisher publisher.EventPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	invoiceRepo invoice.Repository,
	sequenceRepo invoice.SequenceRepository,
	subRepo subscription.Repository,
	planRepo plan.Repository,
	paymentRepo payment.Repository,
	prorationCalculator proration.Calculator,
	eventPublisher publisher.EventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:              logger,
		Config:              config,
		DB:                  db,
		InvoiceRepo:         invoiceRepo,
		SequenceRepo:        sequenceRepo,
		SubRepo:             subRepo,
		PlanRepo:            planRepo,
		PaymentRepo:         paymentRepo,
		ProrationCalculator: prorationCalculator,
		EventPublisher:      eventPublisher,
	}
}
