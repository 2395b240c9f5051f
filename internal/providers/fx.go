package providers

import (
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
