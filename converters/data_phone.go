package converters

import (
	"encoding/csv"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneRecord is one extracted phone number with its canonical forms.
type PhoneRecord struct {
	Original string
	Valid    bool
	E164     string
	National string
	Country  string
	Type     string
}

// phoneTokenRe matches loose runs of phone-ish characters. Candidates are
// further filtered by requiring at least six digits.
var (
	phoneTokenRe = regexp.MustCompile(`[+()\-. \d]{6,}`)
	nonDigitRe   = regexp.MustCompile(`\D`)
)

// ExtractPhoneTokens scans free-form text for phone-number candidates.
func ExtractPhoneTokens(s string) []string {
	var tokens []string
	for _, c := range phoneTokenRe.FindAllString(s, -1) {
		if len(nonDigitRe.ReplaceAllString(c, "")) >= 6 {
			tokens = append(tokens, strings.TrimSpace(c))
		}
	}
	return tokens
}

// CleanPhones extracts phone-like tokens from text, parses them strictly, and
// returns records de-duplicated by canonical E.164 form (falling back to the
// original token for unparseable candidates). defaultRegion applies only to
// numbers without a leading +.
func CleanPhones(text, defaultRegion string) []PhoneRecord {
	seen := map[string]bool{}
	var records []PhoneRecord
	for _, token := range ExtractPhoneTokens(text) {
		rec := PhoneRecord{Original: token}
		if num := tryParsePhone(token, defaultRegion); num != nil {
			rec.Valid = true
			rec.E164 = phonenumbers.Format(num, phonenumbers.E164)
			rec.National = phonenumbers.Format(num, phonenumbers.NATIONAL)
			rec.Country = phonenumbers.GetRegionCodeForNumber(num)
			rec.Type = phoneTypeName(phonenumbers.GetNumberType(num))
		}
		key := rec.E164
		if key == "" {
			key = rec.Original
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, rec)
	}
	return records
}

func tryParsePhone(token, defaultRegion string) *phonenumbers.PhoneNumber {
	region := defaultRegion
	if strings.HasPrefix(strings.TrimSpace(token), "+") {
		region = ""
	}
	num, err := phonenumbers.Parse(token, region)
	if err != nil {
		return nil
	}
	if !phonenumbers.IsPossibleNumber(num) || !phonenumbers.IsValidNumber(num) {
		return nil
	}
	return num
}

func phoneTypeName(t phonenumbers.PhoneNumberType) string {
	switch t {
	case phonenumbers.MOBILE:
		return "mobile"
	case phonenumbers.FIXED_LINE:
		return "fixed_line"
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return "fixed_or_mobile"
	case phonenumbers.VOIP:
		return "voip"
	case phonenumbers.TOLL_FREE:
		return "toll_free"
	case phonenumbers.PREMIUM_RATE:
		return "premium"
	default:
		return "other"
	}
}

// PhoneRecordsCSV renders cleaned records as CSV with a fixed column set.
func PhoneRecordsCSV(records []PhoneRecord) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"original", "valid", "e164", "national", "country", "type"})
	for _, r := range records {
		valid := "false"
		if r.Valid {
			valid = "true"
		}
		_ = w.Write([]string{r.Original, valid, r.E164, r.National, r.Country, r.Type})
	}
	w.Flush()
	return sb.String()
}
