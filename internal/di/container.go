package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/campusdocs/api/internal/logistics"
	"github.com/campusdocs/api/internal/notifications"
	"github.com/campusdocs/api/internal/payments"
	"github.com/campusdocs/api/internal/platform/config"
	"github.com/campusdocs/api/internal/platform/observability"
	"github.com/campusdocs/api/internal/repositories"
	"github.com/campusdocs/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Submissions services.SubmissionService
	Orders      services.OrderService
	Schedule    services.ScheduleService
}

// Container wires repositories, external providers, and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services

	Gateway   payments.Gateway
	Logistics logistics.Provider
	Notifier  notifications.Sender

	closers []func(ctx context.Context) error
}

// NewContainer constructs the runtime dependencies. External providers are
// selected by configuration: disabled integrations fall back to no-op
// implementations.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, logger *zap.Logger) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{
		Config:       cfg,
		Repositories: reg,
	}
	serviceLog := observability.ServiceLogger(logger)

	gateway, err := buildGateway(cfg.Gateway, serviceLog)
	if err != nil {
		return nil, err
	}
	c.Gateway = gateway

	courier, err := buildLogistics(cfg.Logistics, serviceLog)
	if err != nil {
		return nil, err
	}
	c.Logistics = courier

	notifier, err := c.buildNotifier(ctx, cfg.Notifications)
	if err != nil {
		return nil, err
	}
	c.Notifier = notifier

	submissions, err := services.NewSubmissionService(services.SubmissionServiceDeps{
		Orders:        reg.Orders(),
		Payments:      reg.Payments(),
		Selections:    reg.Selections(),
		DocumentTypes: reg.DocumentTypes(),
		Schedule:      reg.Schedule(),
		Users:         reg.Users(),
		Templates:     reg.Templates(),
		Counters:      reg.Counters(),
		UnitOfWork:    reg,
		Gateway:       c.Gateway,
		Notifier:      c.Notifier,
		Clock:         time.Now,
		Logger:        serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build submission service: %w", err)
	}
	c.Services.Submissions = submissions

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     reg.Orders(),
		Payments:   reg.Payments(),
		Selections: reg.Selections(),
		Users:      reg.Users(),
		Templates:  reg.Templates(),
		UnitOfWork: reg,
		Gateway:    c.Gateway,
		Logistics:  c.Logistics,
		Notifier:   c.Notifier,
		Clock:      time.Now,
		Logger:     serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build order service: %w", err)
	}
	c.Services.Orders = orders

	schedule, err := services.NewScheduleService(services.ScheduleServiceDeps{
		Orders:   reg.Orders(),
		Schedule: reg.Schedule(),
	})
	if err != nil {
		return nil, fmt.Errorf("build schedule service: %w", err)
	}
	c.Services.Schedule = schedule

	return c, nil
}

// Close releases provider clients and the repository registry.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildGateway(cfg config.GatewayConfig, logger payments.StripeLogger) (payments.Gateway, error) {
	if !cfg.Enabled {
		return payments.NoopGateway{}, nil
	}
	gateway, err := payments.NewStripeGateway(payments.StripeGatewayConfig{
		APIKey: cfg.StripeAPIKey,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build payment gateway: %w", err)
	}
	return gateway, nil
}

func buildLogistics(cfg config.LogisticsConfig, logger logistics.CourierLogger) (logistics.Provider, error) {
	if !cfg.Enabled {
		return logistics.NoopProvider{}, nil
	}
	client, err := logistics.NewCourierClient(logistics.CourierClientConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build courier client: %w", err)
	}
	return client, nil
}

func (c *Container) buildNotifier(ctx context.Context, cfg config.NotificationConfig) (notifications.Sender, error) {
	if !cfg.Enabled {
		return notifications.NoopSender{}, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("build notification client: %w", err)
	}
	topic := client.Topic(cfg.TopicID)

	c.closers = append(c.closers, func(context.Context) error {
		topic.Stop()
		return client.Close()
	})

	sender, err := notifications.NewPubSubSender(topic)
	if err != nil {
		return nil, fmt.Errorf("build notification sender: %w", err)
	}
	return sender, nil
}
