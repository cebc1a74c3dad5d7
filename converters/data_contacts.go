package converters

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-vcard"

	"github.com/convgate/convgate/models"
)

// multiValueRe splits multi-valued contact fields like "a; b, c".
var multiValueRe = regexp.MustCompile(`[;,]`)

// VCFToCSV flattens vCards into tabular rows with columns name, phones,
// emails. Multi-valued fields are joined with "; ".
func VCFToCSV(text string) (string, error) {
	dec := vcard.NewDecoder(strings.NewReader(text))
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"name", "phones", "emails"})

	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", models.NewConversionError("invalid vCard input", err)
		}
		_ = w.Write([]string{
			card.PreferredValue(vcard.FieldFormattedName),
			strings.Join(card.Values(vcard.FieldTelephone), "; "),
			strings.Join(card.Values(vcard.FieldEmail), "; "),
		})
	}
	w.Flush()
	return sb.String(), nil
}

// CSVToVCF rebuilds vCards from tabular rows. Accepts both plural and
// singular column names; multi-valued cells split on ";" or ",".
func CSVToVCF(text string) (string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", models.NewConversionError("invalid CSV input", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cell := func(row []string, names ...string) string {
		for _, n := range names {
			if i, ok := col[n]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}

	var sb strings.Builder
	enc := vcard.NewEncoder(&sb)
	for _, row := range rows[1:] {
		card := make(vcard.Card)
		card.SetValue(vcard.FieldFormattedName, cell(row, "name"))
		for _, piece := range splitMulti(cell(row, "phones", "phone")) {
			card.AddValue(vcard.FieldTelephone, piece)
		}
		for _, piece := range splitMulti(cell(row, "emails", "email")) {
			card.AddValue(vcard.FieldEmail, piece)
		}
		vcard.ToV4(card)
		if err := enc.Encode(card); err != nil {
			return "", models.NewConversionError("vCard encoding failed", err)
		}
	}
	return sb.String(), nil
}

func splitMulti(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range multiValueRe.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
