package cashflow

import (
	"github.com/fintro/receivables/internal/cashflow/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cashflow.service",
	fx.Provide(service.New),
)
