package converters

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSRTVTT_RoundTrip(t *testing.T) {
	srt := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,500 --> 00:00:04,250\nWorld\n"

	vtt := SRTToVTT(srt)
	if !strings.HasPrefix(vtt, "WEBVTT\n") {
		t.Fatalf("missing WEBVTT header: %q", vtt)
	}
	if !strings.Contains(vtt, "00:00:01.000 --> 00:00:02.000") {
		t.Fatalf("timestamps not converted to dot form: %q", vtt)
	}
	if strings.Contains(vtt, ",000") {
		t.Fatalf("comma timestamps survived: %q", vtt)
	}

	back := VTTToSRT(vtt)
	if strings.TrimSpace(back) != strings.TrimSpace(srt) {
		t.Fatalf("round trip mismatch:\nwant %q\ngot  %q", srt, back)
	}
}

func TestVTTToSRT_RenumbersUnnumberedCues(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n\n00:00:03.000 --> 00:00:04.000\nWorld\n"
	srt := VTTToSRT(vtt)

	want := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n"
	if srt != want {
		t.Fatalf("renumbering mismatch:\nwant %q\ngot  %q", want, srt)
	}
}

func TestJSONCSV_RoundTrip(t *testing.T) {
	csvOut, err := JSONToCSV(`[{"a":"1","b":"2"},{"a":"3","b":"4"}]`)
	if err != nil {
		t.Fatalf("JSONToCSV: %v", err)
	}
	if !strings.HasPrefix(csvOut, "a,b\n") {
		t.Fatalf("unexpected header: %q", csvOut)
	}

	jsonOut, err := CSVToJSON(csvOut)
	if err != nil {
		t.Fatalf("CSVToJSON: %v", err)
	}
	var records []map[string]string
	if err := json.Unmarshal([]byte(jsonOut), &records); err != nil {
		t.Fatalf("round-trip output is not a record list: %v", err)
	}
	if len(records) != 2 || records[0]["a"] != "1" || records[0]["b"] != "2" || records[1]["a"] != "3" {
		t.Fatalf("round trip lost values: %v", records)
	}
}

func TestJSONToCSV_WrapsSingleObjectAndUnionsKeys(t *testing.T) {
	out, err := JSONToCSV(`{"a":"1"}`)
	if err != nil {
		t.Fatalf("JSONToCSV single object: %v", err)
	}
	if strings.TrimSpace(out) != "a\n1" {
		t.Fatalf("single object CSV = %q", out)
	}

	// union header covers keys missing from individual records
	out, err = JSONToCSV(`[{"a":"1"},{"b":"2"}]`)
	if err != nil {
		t.Fatalf("JSONToCSV union: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || lines[0] != "a,b" || lines[1] != "1," || lines[2] != ",2" {
		t.Fatalf("union CSV = %q", out)
	}
}

func TestJSONToCSV_RejectsScalarInput(t *testing.T) {
	if _, err := JSONToCSV(`"just a string"`); err == nil {
		t.Fatal("expected error for scalar JSON input")
	}
	if _, err := JSONToCSV(`[1,2,3]`); err == nil {
		t.Fatal("expected error for non-object list entries")
	}
}

func TestYAMLJSON_Bridges(t *testing.T) {
	jsonOut, err := YAMLToJSON("name: gateway\nworkers: 4\nnested:\n  ok: true\n")
	if err != nil {
		t.Fatalf("YAMLToJSON: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonOut), &obj); err != nil {
		t.Fatalf("YAMLToJSON produced invalid JSON: %v", err)
	}
	if obj["name"] != "gateway" || obj["workers"] != float64(4) {
		t.Fatalf("YAMLToJSON lost values: %v", obj)
	}

	yamlOut, err := JSONToYAML(jsonOut)
	if err != nil {
		t.Fatalf("JSONToYAML: %v", err)
	}
	if !strings.Contains(yamlOut, "name: gateway") {
		t.Fatalf("JSONToYAML output missing keys: %q", yamlOut)
	}
}

func TestCleanPhones_DeduplicatesEquivalentNumbers(t *testing.T) {
	records := CleanPhones("call me at +1 415-555-0132 or 415.555.0132", "US")
	if len(records) != 1 {
		t.Fatalf("want exactly 1 deduplicated record, got %d: %v", len(records), records)
	}
	rec := records[0]
	if !rec.Valid {
		t.Fatalf("number should parse as valid: %v", rec)
	}
	if rec.E164 != "+14155550132" {
		t.Fatalf("canonical form = %q, want +14155550132", rec.E164)
	}
	if rec.Country != "US" {
		t.Fatalf("country = %q, want US", rec.Country)
	}
}

func TestCleanPhones_KeepsInvalidTokensOnce(t *testing.T) {
	records := CleanPhones("bogus 123456 and again 123456", "US")
	if len(records) != 1 {
		t.Fatalf("want 1 record for repeated invalid token, got %d", len(records))
	}
	if records[0].Valid || records[0].E164 != "" {
		t.Fatalf("token should be invalid with empty e164: %v", records[0])
	}
}

func TestPhoneRecordsCSV_Columns(t *testing.T) {
	out := PhoneRecordsCSV(CleanPhones("+1 415-555-0132", "US"))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("want header + 1 row, got %q", out)
	}
	if lines[0] != "original,valid,e164,national,country,type" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "+14155550132") {
		t.Fatalf("row missing canonical number: %q", lines[1])
	}
}

func TestContacts_RoundTrip(t *testing.T) {
	csvIn := "name,phones,emails\nAda Lovelace,+14155550132; +14155550133,ada@example.org\n"

	vcf, err := CSVToVCF(csvIn)
	if err != nil {
		t.Fatalf("CSVToVCF: %v", err)
	}
	if !strings.Contains(vcf, "FN:Ada Lovelace") {
		t.Fatalf("vCard missing formatted name: %q", vcf)
	}
	if !strings.Contains(vcf, "+14155550132") || !strings.Contains(vcf, "+14155550133") {
		t.Fatalf("vCard missing split phone values: %q", vcf)
	}

	back, err := VCFToCSV(vcf)
	if err != nil {
		t.Fatalf("VCFToCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(back), "\n")
	if lines[0] != "name,phones,emails" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Ada Lovelace") || !strings.Contains(lines[1], "+14155550132; +14155550133") {
		t.Fatalf("flattened row = %q", lines[1])
	}
}

func TestExtractPhoneTokens_RequiresSixDigits(t *testing.T) {
	if got := ExtractPhoneTokens("order 12345 shipped"); len(got) != 0 {
		t.Fatalf("short digit runs must be ignored, got %v", got)
	}
	if got := ExtractPhoneTokens("+44 20 7183 8750"); len(got) != 1 {
		t.Fatalf("want one token, got %v", got)
	}
}
