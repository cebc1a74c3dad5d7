package converters

import (
	"context"
	"os"
	"path/filepath"

	"github.com/convgate/convgate/models"
)

// documentBackend delegates office-document conversion to LibreOffice in
// headless mode. PDF sources targeting an editable document go through a
// dedicated layout-reconstruction engine instead: office suites cannot
// reliably reverse-engineer PDF layout.
type documentBackend struct {
	opts Options
}

func (b *documentBackend) Convert(ctx context.Context, inputPath, target string, progress ProgressFunc) (string, error) {
	if extOf(inputPath) == "pdf" && target == "docx" {
		return b.pdfToDocx(ctx, inputPath, progress)
	}
	return b.officeConvert(ctx, inputPath, target, progress)
}

func (b *documentBackend) officeConvert(ctx context.Context, inputPath, target string, progress ProgressFunc) (string, error) {
	bin, err := lookupEngine("soffice", "libreoffice")
	if err != nil {
		return "", err
	}

	outDir, err := os.MkdirTemp(b.opts.Store.Dir(), "office-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	// Isolated profile dir: concurrent headless instances otherwise fight
	// over the default user installation lock.
	profileDir := filepath.Join(outDir, "profile")
	if err := os.MkdirAll(profileDir, 0o700); err != nil {
		return "", err
	}

	progress(10, "converting document")
	args := []string{
		"-env:UserInstallation=file://" + profileDir,
		"--headless",
		"--convert-to", target,
		"--outdir", outDir,
		inputPath,
	}
	if err := runEngine(ctx, b.opts.EngineTimeout, bin, args...); err != nil {
		return "", err
	}

	// LibreOffice names the output after the input and can exit zero having
	// written nothing, so locate and verify the real file.
	matches, _ := filepath.Glob(filepath.Join(outDir, "*."+target))
	if len(matches) == 0 {
		return "", models.NewConversionError("office engine exited cleanly but produced no output", nil)
	}
	produced := matches[0]
	if err := verifyOutput(produced); err != nil {
		return "", err
	}

	progress(80, "finalizing document")
	outPath, err := b.opts.Store.Allocate(target)
	if err != nil {
		return "", err
	}
	if err := os.Rename(produced, outPath); err != nil {
		return "", err
	}
	progress(95, "document ready")
	return outPath, nil
}

func (b *documentBackend) pdfToDocx(ctx context.Context, inputPath string, progress ProgressFunc) (string, error) {
	bin, err := lookupEngine("pdf2docx")
	if err != nil {
		return "", err
	}
	outPath, err := b.opts.Store.Allocate("docx")
	if err != nil {
		return "", err
	}
	progress(10, "reconstructing document layout")
	if err := runEngine(ctx, b.opts.EngineTimeout, bin, "convert", inputPath, outPath); err != nil {
		return "", err
	}
	if err := verifyOutput(outPath); err != nil {
		return "", err
	}
	progress(95, "document ready")
	return outPath, nil
}
