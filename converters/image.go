package converters

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/convgate/convgate/models"
)

// rasterDPI is the fixed resolution for PDF rasterization and for deriving
// OCR page geometry from pixel dimensions.
const rasterDPI = 150

// imageBackend handles raster re-encoding, PDF rasterization into a page
// archive, and the OCR path that turns an image into a searchable document.
type imageBackend struct {
	opts Options
}

func (b *imageBackend) Convert(ctx context.Context, inputPath, target string, progress ProgressFunc) (string, error) {
	src := extOf(inputPath)
	switch {
	case src == "pdf":
		return b.rasterizePDF(ctx, inputPath, target, progress)
	case target == "pdf":
		return b.ocrToPDF(ctx, inputPath, progress)
	case target == "docx":
		return b.ocrToDocx(ctx, inputPath, progress)
	default:
		return b.reencode(ctx, inputPath, target, progress)
	}
}

// reencode converts one raster image to the target format. Alpha is flattened
// onto white before formats that cannot carry transparency.
func (b *imageBackend) reencode(ctx context.Context, inputPath, target string, progress ProgressFunc) (string, error) {
	bin, err := lookupEngine("magick", "convert")
	if err != nil {
		return "", err
	}
	outPath, err := b.opts.Store.Allocate(target)
	if err != nil {
		return "", err
	}

	args := []string{inputPath}
	switch target {
	case "jpg", "jpeg", "bmp":
		args = append(args, "-background", "white", "-alpha", "remove", "-alpha", "off")
	case "ico":
		// ICO requires bounded dimensions
		args = append(args, "-resize", "256x256>")
	}
	args = append(args, outPath)

	progress(20, "re-encoding image")
	if err := runEngine(ctx, b.opts.EngineTimeout, bin, args...); err != nil {
		return "", err
	}
	if err := verifyOutput(outPath); err != nil {
		return "", err
	}
	progress(90, "image ready")
	return outPath, nil
}

// rasterizePDF renders every page at a fixed DPI and packages the pages into
// one zip archive, entries named page-1, page-2, ... in page order.
func (b *imageBackend) rasterizePDF(ctx context.Context, inputPath, target string, progress ProgressFunc) (string, error) {
	bin, err := lookupEngine("pdftoppm")
	if err != nil {
		return "", err
	}

	pagesDir, err := os.MkdirTemp(b.opts.Store.Dir(), "pages-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(pagesDir)

	fmtFlag, rasterExt := rasterFormat(target)

	progress(10, "rasterizing pages")
	prefix := filepath.Join(pagesDir, "page")
	args := []string{"-r", strconv.Itoa(rasterDPI), fmtFlag, inputPath, prefix}
	if err := runEngine(ctx, b.opts.EngineTimeout, bin, args...); err != nil {
		return "", err
	}

	pages, err := sortedPages(prefix, rasterExt)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", models.NewConversionError("rasterizer produced no pages", nil)
	}

	if rasterExt != target {
		progress(40, "re-encoding pages")
		magick, err := lookupEngine("magick", "convert")
		if err != nil {
			return "", err
		}
		converted := make([]string, 0, len(pages))
		for _, page := range pages {
			out := strings.TrimSuffix(page, "."+rasterExt) + "." + target
			if err := runEngine(ctx, b.opts.EngineTimeout, magick, page, out); err != nil {
				return "", err
			}
			converted = append(converted, out)
		}
		pages = converted
	}

	progress(70, "packaging page archive")
	return b.archivePages(pages, target, progress)
}

// archivePages zips page files into a fresh scratch archive.
func (b *imageBackend) archivePages(pages []string, target string, progress ProgressFunc) (string, error) {
	outPath, err := b.opts.Store.Allocate("zip")
	if err != nil {
		return "", err
	}
	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for i, page := range pages {
		entry, err := zw.Create(fmt.Sprintf("page-%d.%s", i+1, target))
		if err != nil {
			return "", err
		}
		f, err := os.Open(page)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(entry, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	progress(95, fmt.Sprintf("archived %d pages", len(pages)))
	return outPath, nil
}

// ocrToPDF renders the image into a PDF with an invisible, selectable text
// layer aligned to detected words. Page size follows pixels / DPI.
func (b *imageBackend) ocrToPDF(ctx context.Context, inputPath string, progress ProgressFunc) (string, error) {
	bin, err := lookupEngine("tesseract")
	if err != nil {
		return "", err
	}
	outPath, err := b.opts.Store.Allocate("pdf")
	if err != nil {
		return "", err
	}
	// tesseract appends .pdf to the output base itself.
	outBase := strings.TrimSuffix(outPath, ".pdf")

	progress(15, "running OCR")
	args := []string{inputPath, outBase, "--dpi", strconv.Itoa(rasterDPI), "pdf"}
	if err := runEngine(ctx, b.opts.EngineTimeout, bin, args...); err != nil {
		return "", err
	}
	if err := verifyOutput(outPath); err != nil {
		return "", err
	}
	progress(90, "searchable PDF ready")
	return outPath, nil
}

// ocrToDocx chains the OCR PDF through the layout-reconstruction engine.
func (b *imageBackend) ocrToDocx(ctx context.Context, inputPath string, progress ProgressFunc) (string, error) {
	pdfPath, err := b.ocrToPDF(ctx, inputPath, func(p int, msg string) {
		progress(p/2, msg)
	})
	if err != nil {
		return "", err
	}
	bin, err := lookupEngine("pdf2docx")
	if err != nil {
		return "", err
	}
	outPath, err := b.opts.Store.Allocate("docx")
	if err != nil {
		return "", err
	}
	progress(60, "rebuilding document layout")
	if err := runEngine(ctx, b.opts.EngineTimeout, bin, "convert", pdfPath, outPath); err != nil {
		return "", err
	}
	if err := verifyOutput(outPath); err != nil {
		return "", err
	}
	progress(95, "document ready")
	return outPath, nil
}

// rasterFormat maps the requested page format onto a pdftoppm output flag and
// the suffix pdftoppm actually writes. Formats it cannot emit natively are
// rendered as png and re-encoded per page; tiff pages come out as .tif and
// are re-encoded to the requested suffix the same way.
func rasterFormat(target string) (flag, ext string) {
	switch target {
	case "jpg", "jpeg":
		return "-jpeg", "jpg"
	case "png":
		return "-png", "png"
	case "tiff":
		return "-tiff", "tif"
	default:
		return "-png", "png"
	}
}

// sortedPages lists raster pages by page number. pdftoppm zero-pads names
// only within one run, so ordering parses the numeric suffix.
func sortedPages(prefix, ext string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*." + ext)
	if err != nil {
		return nil, err
	}
	type page struct {
		n    int
		path string
	}
	pages := make([]page, 0, len(matches))
	for _, m := range matches {
		numPart := strings.TrimSuffix(strings.TrimPrefix(m, prefix+"-"), "."+ext)
		n, err := strconv.Atoi(numPart)
		if err != nil {
			continue
		}
		pages = append(pages, page{n: n, path: m})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.path
	}
	return out, nil
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
