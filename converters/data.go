package converters

import (
	"context"
	"os"

	"github.com/convgate/convgate/models"
)

// dataBackend performs pure in-process text/data transforms. No external
// process is involved; conversions are synchronous and fast.
type dataBackend struct {
	opts Options
}

func (b *dataBackend) Convert(ctx context.Context, inputPath, target string, progress ProgressFunc) (string, error) {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return "", err
	}
	text := string(raw)
	src := extOf(inputPath)

	progress(20, "parsing input")

	var out string
	var ext string
	switch target {
	case "phone-clean-csv":
		out, ext = PhoneRecordsCSV(CleanPhones(text, b.opts.PhoneRegion)), "csv"
	case "vcf":
		if src != "csv" {
			return "", models.ErrUnsupportedPairing
		}
		out, err = CSVToVCF(text)
		ext = "vcf"
	case "csv":
		if src != "vcf" {
			return "", models.ErrUnsupportedPairing
		}
		out, err = VCFToCSV(text)
		ext = "csv"
	case "vtt":
		if src != "srt" {
			return "", models.ErrUnsupportedPairing
		}
		out, ext = SRTToVTT(text), "vtt"
	case "srt":
		if src != "vtt" {
			return "", models.ErrUnsupportedPairing
		}
		out, ext = VTTToSRT(text), "srt"
	case "json-from-csv":
		if src != "csv" {
			return "", models.ErrUnsupportedPairing
		}
		out, err = CSVToJSON(text)
		ext = "json"
	case "csv-from-json":
		if src != "json" {
			return "", models.ErrUnsupportedPairing
		}
		out, err = JSONToCSV(text)
		ext = "csv"
	case "json-from-yaml":
		if src != "yaml" && src != "yml" {
			return "", models.ErrUnsupportedPairing
		}
		out, err = YAMLToJSON(text)
		ext = "json"
	case "yaml-from-json":
		if src != "json" {
			return "", models.ErrUnsupportedPairing
		}
		out, err = JSONToYAML(text)
		ext = "yaml"
	default:
		return "", models.ErrUnsupportedPairing
	}
	if err != nil {
		return "", err
	}

	progress(80, "writing output")
	path, werr := b.writeText(out, ext)
	if werr != nil {
		return "", werr
	}
	progress(95, "data conversion complete")
	return path, nil
}

func (b *dataBackend) writeText(s, ext string) (string, error) {
	path, err := b.opts.Store.Allocate(ext)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(s), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
