package pdfinfo_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/pdfinfo"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// buildPDF assembles a minimal valid PDF with pages blank pages and the
// given Info dictionary body (empty for none).
func buildPDF(pages int, info string) []byte {
	return assemblePDF(pages, "", nil, info)
}

// buildFormPDF assembles a one page PDF whose catalog carries an AcroForm
// with a single text field.
func buildFormPDF() []byte {
	return assemblePDF(1, " /AcroForm << /Fields [4 0 R] >>", []string{
		"<< /FT /Tx /T (signature_name) /Kids [] >>",
	}, "")
}

// assemblePDF writes the catalog, page tree and pages, then extra objects
// numbered from pages+3, then the optional Info dictionary.
func assemblePDF(pages int, catalog string, extra []string, info string) []byte {
	var objs []string

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}

	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R"+catalog+" >>")
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for range pages {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}
	objs = append(objs, extra...)

	infoRef := ""
	if info != "" {
		objs = append(objs, "<< "+info+" >>")
		infoRef = fmt.Sprintf(" /Info %d 0 R", len(objs))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, infoRef, xref)

	return buf.Bytes()
}

func TestExtract_PageCount(t *testing.T) {
	ex := pdfinfo.New()

	for _, n := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("%d pages", n), func(t *testing.T) {
			info, err := ex.Extract(context.Background(), buildPDF(n, ""))
			if err != nil {
				t.Fatalf("Extract() failed: %v", err)
			}
			if info.PageCount != n {
				t.Errorf("PageCount = %d, want %d", info.PageCount, n)
			}
			if info.IsEncrypted {
				t.Error("IsEncrypted = true for plain document")
			}
			if info.HasForm {
				t.Error("HasForm = true for document without AcroForm")
			}
			if info.Author != nil {
				t.Errorf("Author = %q, want nil without Info dictionary", *info.Author)
			}
		})
	}
}

func TestExtract_InfoDictionary(t *testing.T) {
	ex := pdfinfo.New()

	data := buildPDF(2, "/Author (Ada Lovelace) /CreationDate (D:20240101120000Z) /Keywords (alpha, beta;gamma)")
	info, err := ex.Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}

	if info.Author == nil || *info.Author != "Ada Lovelace" {
		t.Errorf("Author = %v, want Ada Lovelace", info.Author)
	}
	if info.CreationDate == nil {
		t.Error("CreationDate = nil, want value from Info dictionary")
	}
	if info.ModificationDate != nil {
		t.Errorf("ModificationDate = %q, want nil", *info.ModificationDate)
	}

	want := []string{"alpha", "beta", "gamma"}
	if len(info.Keywords) != len(want) {
		t.Fatalf("Keywords = %v, want %v", info.Keywords, want)
	}
	for i := range want {
		if info.Keywords[i] != want[i] {
			t.Errorf("Keywords[%d] = %q, want %q", i, info.Keywords[i], want[i])
		}
	}
}

func TestExtract_Encrypted(t *testing.T) {
	ex := pdfinfo.New()

	conf := model.NewAESConfiguration("", "owner-secret", 256)
	conf.ValidationMode = model.ValidationRelaxed

	var buf bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(buildPDF(2, "")), &buf, conf); err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	info, err := ex.Extract(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if !info.IsEncrypted {
		t.Error("IsEncrypted = false, want true")
	}
	if info.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", info.PageCount)
	}
}

func TestExtract_Form(t *testing.T) {
	info, err := pdfinfo.New().Extract(context.Background(), buildFormPDF())
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if !info.HasForm {
		t.Error("HasForm = false, want true")
	}
	if info.IsEncrypted {
		t.Error("IsEncrypted = true for plain document")
	}
	if info.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", info.PageCount)
	}
}

func TestExtract_Unreadable(t *testing.T) {
	ex := pdfinfo.New()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not a pdf")},
		{"truncated", buildPDF(1, "")[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ex.Extract(context.Background(), tt.data)
			if !errors.Is(err, pdfinfo.ErrUnreadable) {
				t.Errorf("Extract() error = %v, want ErrUnreadable", err)
			}
		})
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := pdfinfo.New().Extract(ctx, buildPDF(1, "")); !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}
