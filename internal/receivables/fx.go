package receivables

import (
	"github.com/fintro/receivables/internal/receivables/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receivables.service",
	fx.Provide(service.New),
)
