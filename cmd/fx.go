package cmd

import (
	"github.com/stadium-ops/event-gateway/config"
	clientdi "github.com/stadium-ops/event-gateway/infra/client/di"
	mqttbridge "github.com/stadium-ops/event-gateway/internal/adapter/mqtt"
	"github.com/stadium-ops/event-gateway/internal/adapter/pubsub"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
	"github.com/stadium-ops/event-gateway/internal/handler/events"
	"github.com/stadium-ops/event-gateway/internal/handler/httpapi"
	"github.com/stadium-ops/event-gateway/internal/service"
	"go.uber.org/fx"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvideTracer,
		),
		clientdi.Module,
		service.Module,
		registry.Module,
		pubsub.Module,
		// The pipeline must be consuming before the bridge connects, or
		// the first broker events land on a topic with no subscriber.
		events.Module,
		mqttbridge.Module,
		httpapi.Module,
	)
}
