package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

func init() {
	// pdfcpu otherwise creates a config directory under the user's home.
	api.DisableConfigDir()
}

// Merger concatenates PDF documents with pdfcpu. Page objects are copied
// into the output container; their content streams are not re-encoded.
type Merger struct{}

func NewMerger() domain.Merger {
	return &Merger{}
}

func (m *Merger) Merge(first, second []byte) ([]byte, error) {
	if err := validate("first", first); err != nil {
		return nil, err
	}
	if err := validate("second", second); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	sources := []io.ReadSeeker{bytes.NewReader(first), bytes.NewReader(second)}
	if err := api.MergeRaw(sources, &out, false, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMerge, err)
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages of a PDF document.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
}

func validate(name string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s document is empty", domain.ErrMerge, name)
	}
	if _, err := PageCount(data); err != nil {
		return fmt.Errorf("%w: %s document: %w", domain.ErrMerge, name, err)
	}
	return nil
}
