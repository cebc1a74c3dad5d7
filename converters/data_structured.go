package converters

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/convgate/convgate/models"
)

// CSVToJSON turns tabular rows (first row = header) into a JSON record list.
// All values stay strings, matching how they arrived.
func CSVToJSON(text string) (string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", models.NewConversionError("invalid CSV input", err)
	}
	records := []map[string]string{}
	if len(rows) > 1 {
		header := rows[0]
		for _, row := range rows[1:] {
			rec := make(map[string]string, len(header))
			for i, h := range header {
				if i < len(row) {
					rec[h] = row[i]
				} else {
					rec[h] = ""
				}
			}
			records = append(records, rec)
		}
	}
	out, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// JSONToCSV flattens a JSON record list into tabular form. The header is the
// union of all record keys in first-seen order; a single object is wrapped
// into a one-record list. Missing keys become empty cells.
func JSONToCSV(text string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var data any
	if strings.TrimSpace(text) != "" {
		if err := dec.Decode(&data); err != nil {
			return "", models.NewConversionError("invalid JSON input", err)
		}
	}

	var records []map[string]any
	switch v := data.(type) {
	case nil:
	case map[string]any:
		records = []map[string]any{v}
	case []any:
		for _, it := range v {
			rec, ok := it.(map[string]any)
			if !ok {
				return "", models.NewConversionError("JSON list entries must be objects", nil)
			}
			records = append(records, rec)
		}
	default:
		return "", models.NewConversionError("JSON input must be an object or a list of objects", nil)
	}

	var header []string
	seen := map[string]bool{}
	for _, rec := range records {
		for _, k := range sortedKeys(rec) {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(header)
	for _, rec := range records {
		row := make([]string, len(header))
		for i, k := range header {
			if v, ok := rec[k]; ok {
				row[i] = scalarString(v)
			}
		}
		_ = w.Write(row)
	}
	w.Flush()
	return sb.String(), nil
}

// YAMLToJSON re-serializes a YAML document as indented JSON.
func YAMLToJSON(text string) (string, error) {
	var obj any
	if err := yaml.Unmarshal([]byte(text), &obj); err != nil {
		return "", models.NewConversionError("invalid YAML input", err)
	}
	if obj == nil {
		obj = map[string]any{}
	}
	out, err := json.MarshalIndent(normalizeYAML(obj), "", "  ")
	if err != nil {
		return "", models.NewConversionError("YAML document is not representable as JSON", err)
	}
	return string(out), nil
}

// JSONToYAML re-serializes a JSON document as YAML.
func JSONToYAML(text string) (string, error) {
	var obj any
	if strings.TrimSpace(text) == "" {
		text = "{}"
	}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return "", models.NewConversionError("invalid JSON input", err)
	}
	out, err := yaml.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// normalizeYAML rewrites map[any]any nodes (non-string YAML keys) into
// string-keyed maps so they survive JSON marshaling.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalizeYAML(val)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i := range t {
			t[i] = normalizeYAML(t[i])
		}
		return t
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
