package cmd

import (
	"context"
	"log/slog"

	inhttp "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/partnerapi"
	"dispatch/internal/adapters/out/postgres/merchantrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/config"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/scheduling"

	"github.com/benbjohnson/clock"
	"gorm.io/gorm"
)

// CompositionRoot wires the pipeline together. The scheduler and the partner
// client are singletons: timers and the cached auth token must be shared by
// every consumer.
type CompositionRoot struct {
	cfg    *config.Config
	gormDB *gorm.DB
	clk    clock.Clock
	logger *slog.Logger

	orderStore  *orderrepo.GormOrderStore
	merchantDir *merchantrepo.GormMerchantDirectory
	client      *partnerapi.Client
	sender      commands.SendOrderCommandHandler
	scheduler   *scheduling.DeliveryScheduler
}

// NewCompositionRoot builds the object graph from configuration.
func NewCompositionRoot(cfg *config.Config, gormDB *gorm.DB, logger *slog.Logger) *CompositionRoot {
	clk := clock.New()

	signer := partnerapi.NewCredentialSigner(partnerapi.Credentials{
		DeveloperID:   cfg.Partner.DeveloperID,
		KeyID:         cfg.Partner.KeyID,
		SigningSecret: cfg.Partner.SigningSecret,
	}, clk)
	client := partnerapi.NewClient(cfg.Partner.BaseURL, cfg.Partner.Timeout, signer, logger)

	orderStore := orderrepo.NewGormOrderStore(gormDB)
	merchantDir := merchantrepo.NewGormMerchantDirectory(gormDB)

	sender := commands.NewSendOrderCommandHandler(
		services.NewOrderTranslator(),
		merchantDir,
		client,
		orderStore,
		clk,
		logger,
	)

	var sink scheduling.DispatchSink = FuncDispatchSink(
		func(ctx context.Context, ord *order.Order, meta scheduling.Metadata) error {
			sendCmd, err := commands.NewSendOrderCommand(ord, meta)
			if err != nil {
				return err
			}
			_, err = sender.Handle(ctx, sendCmd)
			return err
		},
	)
	scheduler := scheduling.NewDeliveryScheduler(sink, cfg.Scheduler.Buffer, clk, logger)

	return &CompositionRoot{
		cfg:         cfg,
		gormDB:      gormDB,
		clk:         clk,
		logger:      logger,
		orderStore:  orderStore,
		merchantDir: merchantDir,
		client:      client,
		sender:      sender,
		scheduler:   scheduler,
	}
}

// Scheduler exposes the shared scheduler for shutdown.
func (c *CompositionRoot) Scheduler() *scheduling.DeliveryScheduler {
	return c.scheduler
}

// PartnerClient exposes the shared partner client for the startup
// connectivity check.
func (c *CompositionRoot) PartnerClient() ports.PartnerClient {
	return c.client
}

func (c *CompositionRoot) CreateDispatchOrderCommandHandler() commands.DispatchOrderCommandHandler {
	return commands.NewDispatchOrderCommandHandler(c.orderStore, c.scheduler, &c.sender, c.logger)
}

func (c *CompositionRoot) CreateReconcileOrdersCommandHandler() commands.ReconcileOrdersCommandHandler {
	return commands.NewReconcileOrdersCommandHandler(c.orderStore, c.client, c.clk, c.logger)
}

func (c *CompositionRoot) CreateRestoreSchedulesCommandHandler() commands.RestoreSchedulesCommandHandler {
	return commands.NewRestoreSchedulesCommandHandler(c.orderStore, c.scheduler, c.logger)
}

func (c *CompositionRoot) CreateGetPendingDispatchesQueryHandler() queries.GetPendingDispatchesQueryHandler {
	return queries.NewGetPendingDispatchesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateReconcileOrdersCommandHandler(),
		c.cfg.Reconciler.Interval,
		c.cfg.Reconciler.InitialDelay,
		c.cfg.Reconciler.BatchLimit,
		c.logger,
	)
}

func (c *CompositionRoot) CreateHTTPServer() *inhttp.Server {
	return inhttp.NewServer(
		c.CreateDispatchOrderCommandHandler(),
		c.CreateGetPendingDispatchesQueryHandler(),
		c.orderStore,
		c.client,
		c.scheduler,
		c.clk,
		c.logger,
	)
}

// FuncDispatchSink adapts a function to the scheduling.DispatchSink interface.
type FuncDispatchSink func(ctx context.Context, ord *order.Order, meta scheduling.Metadata) error

func (f FuncDispatchSink) DispatchNow(ctx context.Context, ord *order.Order, meta scheduling.Metadata) error {
	return f(ctx, ord, meta)
}
