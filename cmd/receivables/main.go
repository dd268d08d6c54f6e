package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/fintro/receivables/internal/clock"
	"github.com/fintro/receivables/internal/migration"
	"github.com/fintro/receivables/internal/observability"
	"github.com/fintro/receivables/internal/server"
	"github.com/fintro/receivables/pkg/db"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
