package pdf

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"folio/internal/port"
)

var disableConfigDir sync.Once

// Inspector implements port.PDFInspector with pdfcpu.
type Inspector struct {
	conf *model.Configuration
}

// NewInspector creates an Inspector using relaxed validation, which accepts
// the minor spec violations common in exported catalogues.
func NewInspector() *Inspector {
	// pdfcpu otherwise creates a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Inspector{conf: conf}
}

func (i *Inspector) Inspect(data []byte) (*port.PDFInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	pages, err := api.PageCount(bytes.NewReader(data), i.conf)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}
	if pages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	return &port.PDFInfo{PageCount: pages}, nil
}
