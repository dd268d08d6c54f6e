package collections

import (
	"github.com/fintro/receivables/internal/collections/service"
	"go.uber.org/fx"
)

var Module = fx.Module("collections.service",
	fx.Provide(service.New),
)
