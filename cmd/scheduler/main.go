package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"github.com/liyaqa/billing/internal/config"
	"github.com/liyaqa/billing/internal/domain/proration"
	"github.com/liyaqa/billing/internal/logger"
	"github.com/liyaqa/billing/internal/postgres"
	"github.com/liyaqa/billing/internal/publisher"
	"github.com/liyaqa/billing/internal/pubsub/memory"
	"github.com/liyaqa/billing/internal/repository"
	"github.com/liyaqa/billing/internal/service"
	"github.com/liyaqa/billing/internal/types"
)

func init() {
	// Billing math runs on UTC calendar days
	time.Local = time.UTC
}

func main() {
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,

			postgres.NewDB,
			postgres.NewClient,
			func(c *postgres.Client) postgres.IClient { return c },

			memory.NewPubSub,
			publisher.NewPublisher,

			repository.NewInvoiceRepository,
			repository.NewSequenceRepository,
			repository.NewSubscriptionRepository,
			repository.NewPlanRepository,
			repository.NewPaymentRepository,

			proration.NewCalculator,

			service.NewServiceParams,
			service.NewInvoicingService,
			service.NewSubscriptionService,
		),
		fx.Invoke(startScheduler),
	)
	app.Run()
}

// startScheduler registers the three periodic sweeps. The sweeps are
// idempotent, so overlapping runs across instances only cost wasted work.
func startScheduler(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	log *logger.Logger,
	invoicingService service.InvoicingService,
	subscriptionService service.SubscriptionService,
) error {
	c := cron.New()

	sweepCtx := func() context.Context {
		ctx := context.Background()
		return types.SetUserID(ctx, types.DefaultUserID)
	}

	if _, err := c.AddFunc(cfg.Scheduler.MarkOverdueCron, func() {
		count, err := invoicingService.MarkOverdueInvoices(sweepCtx())
		if err != nil {
			log.Errorw("overdue sweep failed", "error", err)
			return
		}
		log.Infow("overdue sweep finished", "marked", count)
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc(cfg.Scheduler.AutoInvoiceCron, func() {
		count, err := invoicingService.GenerateAutoInvoices(sweepCtx())
		if err != nil {
			log.Errorw("auto-invoice sweep failed", "error", err)
			return
		}
		log.Infow("auto-invoice sweep finished", "invoiced", count)
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc(cfg.Scheduler.ExpireLapsedCron, func() {
		count, err := subscriptionService.ExpireLapsed(sweepCtx())
		if err != nil {
			log.Errorw("expiry sweep failed", "error", err)
			return
		}
		log.Infow("expiry sweep finished", "expired", count)
	}); err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting billing scheduler",
				"overdue_cron", cfg.Scheduler.MarkOverdueCron,
				"auto_invoice_cron", cfg.Scheduler.AutoInvoiceCron,
				"expire_cron", cfg.Scheduler.ExpireLapsedCron,
			)
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}
