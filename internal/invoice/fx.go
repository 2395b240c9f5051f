package invoice

import (
	"github.com/smallbiznis/invoicedesk/internal/invoice/render"
	"github.com/smallbiznis/invoicedesk/internal/invoice/repository"
	"github.com/smallbiznis/invoicedesk/internal/invoice/service"
	"github.com/spf13/afero"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(afero.NewOsFs),
	fx.Provide(repository.New),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)
