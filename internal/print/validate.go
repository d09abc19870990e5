package print

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Validate checks that a produced PDF is structurally sound and has the
// expected page count. pdfcpu works on files, so the bytes go through a
// temp file.
func Validate(pdfData []byte, wantPages int) error {
	tempDir, err := os.MkdirTemp("", "printcheck")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempFile := filepath.Join(tempDir, "candidate.pdf")
	if err = os.WriteFile(tempFile, pdfData, 0o644); err != nil {
		return fmt.Errorf("write temp PDF file: %w", err)
	}

	if err = api.ValidateFile(tempFile, nil); err != nil {
		return fmt.Errorf("pdf validation: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return fmt.Errorf("read PDF context: %w", err)
	}

	if pdfCtx.PageCount != wantPages {
		return fmt.Errorf("pdf has %d pages, expected %d", pdfCtx.PageCount, wantPages)
	}

	return nil
}
