package render

import (
	"context"
	"fmt"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/spf13/afero"
)

// Renderer reads the invoice template on every call so edits to the file and
// reloads of the render config apply to the next document.
type Renderer struct {
	fs  afero.Fs
	cfg *config.RenderConfigHolder
}

func NewRenderer(fs afero.Fs, cfg *config.RenderConfigHolder) domain.TemplateRenderer {
	return &Renderer{fs: fs, cfg: cfg}
}

func (r *Renderer) Render(ctx context.Context, inv *domain.Invoice) (string, error) {
	settings := r.cfg.Get()

	raw, err := afero.ReadFile(r.fs, settings.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrTemplateMissing, settings.TemplatePath, err)
	}

	f := format.New(settings.Locale, settings.Currency)
	return Fill(string(raw), Values(inv, f)), nil
}
