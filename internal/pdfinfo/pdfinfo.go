// Package pdfinfo derives document-level properties from PDF content.
package pdfinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrUnreadable indicates the content could not be parsed as a PDF.
var ErrUnreadable = errors.New("pdfinfo: unreadable pdf")

// Info holds the properties extracted from one PDF.
// Optional Info dictionary entries are nil when absent.
type Info struct {
	PageCount        int
	IsEncrypted      bool
	HasForm          bool
	Author           *string
	CreationDate     *string
	ModificationDate *string
	Keywords         []string
}

// Extractor reads PDF properties from raw content.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Info, error)
}

type extractor struct {
	conf *model.Configuration
}

// New creates an Extractor backed by pdfcpu in relaxed validation mode.
func New() Extractor {
	api.DisableConfigDir()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &extractor{conf: conf}
}

func (e *extractor) Extract(ctx context.Context, data []byte) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrUnreadable)
	}

	pctx, err := api.ReadContext(bytes.NewReader(data), e.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if err := api.ValidateContext(pctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	xrt := pctx.XRefTable
	return &Info{
		PageCount:        xrt.PageCount,
		IsEncrypted:      xrt.Encrypt != nil,
		HasForm:          xrt.Form != nil,
		Author:           optional(xrt.Author),
		CreationDate:     optional(xrt.CreationDate),
		ModificationDate: optional(xrt.ModDate),
		Keywords:         splitKeywords(xrt.Keywords),
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// splitKeywords splits the Info dictionary keyword string on commas and
// semicolons, keeping order and dropping blanks.
func splitKeywords(s string) []string {
	keywords := []string{}
	for _, k := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
