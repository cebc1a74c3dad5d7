package converters

import (
	"strings"

	"github.com/convgate/convgate/models"
	"github.com/convgate/convgate/utils"
)

// Category selects which backend handles a conversion.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryAV       Category = "audio-video"
	CategoryDocument Category = "document"
	CategoryData     Category = "structured-data"
)

// Pairing tables. These are configuration, not inference: every accepted
// (source, target) combination is enumerated here.
var (
	imageIn  = newSet("jpg", "jpeg", "png", "webp", "gif", "tiff", "bmp", "ico", "pdf")
	imageOut = newSet("jpg", "jpeg", "png", "webp", "gif", "tiff", "bmp", "ico", "pdf", "docx")

	avIn  = newSet("mp3", "wav", "aac", "flac", "ogg", "mp4", "mkv", "mov", "webm")
	avOut = newSet("mp3", "wav", "aac", "flac", "ogg", "mp4", "mkv", "mov", "webm")

	docIn  = newSet("pdf", "doc", "docx", "ppt", "pptx", "xls", "xlsx", "odt", "odp", "ods", "rtf", "txt")
	docOut = newSet("pdf", "docx", "xlsx", "pptx", "odt", "ods", "odp")

	dataIn  = newSet("csv", "vcf", "srt", "vtt", "json", "yaml", "yml")
	dataOut = newSet("phone-clean-csv", "vcf", "csv", "srt", "vtt",
		"json-from-csv", "csv-from-json", "json-from-yaml", "yaml-from-json")
)

type categoryTable struct {
	cat Category
	in  map[string]bool
	out map[string]bool
}

// Order matters: inference picks the first table satisfying both sets.
var tables = []categoryTable{
	{CategoryImage, imageIn, imageOut},
	{CategoryAV, avIn, avOut},
	{CategoryDocument, docIn, docOut},
	{CategoryData, dataIn, dataOut},
}

func newSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// normalizeCategory maps client category hints (including the front-end's
// video/audio/doc/data spellings) onto the canonical enum.
func normalizeCategory(hint string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "image":
		return CategoryImage, true
	case "audio-video", "av", "audio", "video":
		return CategoryAV, true
	case "document", "doc":
		return CategoryDocument, true
	case "structured-data", "data":
		return CategoryData, true
	}
	return "", false
}

func tableFor(cat Category) categoryTable {
	for _, t := range tables {
		if t.cat == cat {
			return t
		}
	}
	return tables[2] // document
}

// Classify resolves the conversion category for a request.
//
// A supplied hint is used verbatim but still validated against that
// category's tables. Without a hint, the first category whose source set
// contains the extension AND whose target set contains the target wins.
// "pdf" appears in both the image and document source sets, so that source is
// disambiguated explicitly by the target, before any hint is considered.
//
// Unknown source extensions fall back to the document backend. That mirrors
// the original service and means such requests fail inside LibreOffice
// instead of up front; the fallback is logged to keep those failures
// traceable.
func Classify(req models.ConversionRequest) (Category, error) {
	src := strings.ToLower(strings.TrimSpace(req.SourceExt))
	target := strings.ToLower(strings.TrimSpace(req.Target))
	if target == "" || src == "" {
		return "", models.ErrUnsupportedPairing
	}
	if target == src {
		return "", models.ErrSelfConversion
	}

	// PDF sources split by target, hint or not: document export wins for
	// targets both tables accept (docx goes straight through pdf2docx, no
	// OCR detour), rasterization covers the raster formats.
	if src == "pdf" {
		if docOut[target] {
			return CategoryDocument, nil
		}
		if imageOut[target] {
			return CategoryImage, nil
		}
	}

	if req.CategoryHint != "" {
		cat, ok := normalizeCategory(req.CategoryHint)
		if !ok {
			return "", models.ErrUnsupportedPairing
		}
		t := tableFor(cat)
		if !t.in[src] || !t.out[target] {
			return "", models.ErrUnsupportedPairing
		}
		return cat, nil
	}

	for _, t := range tables {
		if t.in[src] && t.out[target] {
			return t.cat, nil
		}
	}

	// Source is known but the target does not pair with its category.
	for _, t := range tables {
		if t.in[src] {
			return "", models.ErrUnsupportedPairing
		}
	}

	// Unknown source: legacy document fallback.
	utils.Sugar.Warnw("unknown source extension, falling back to document backend",
		"source", src, "target", target)
	return CategoryDocument, nil
}
