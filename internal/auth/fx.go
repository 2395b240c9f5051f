package auth

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/auth/repository"
	"github.com/smallbiznis/invoicedesk/internal/auth/service"
	"github.com/smallbiznis/invoicedesk/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(newSnowflakeNode),
	fx.Provide(repository.New),
	fx.Provide(token.NewIssuer),
	fx.Provide(service.New),
)

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
