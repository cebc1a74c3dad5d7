package converters

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	srtTimeRe   = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})`)
	vttTimeRe   = regexp.MustCompile(`(\d{2}:\d{2}:\d{2})\.(\d{3})`)
	vttHeaderRe = regexp.MustCompile(`(?i)^WEBVTT[^\n]*\n+\s*`)
)

// SRTToVTT converts SRT cues to WebVTT: millisecond commas become dots and
// the WEBVTT header is prepended. SRT sequence numbers pass through; WebVTT
// treats them as optional cue identifiers.
func SRTToVTT(text string) string {
	return "WEBVTT\n\n" + srtTimeRe.ReplaceAllString(text, "$1.$2")
}

// VTTToSRT converts WebVTT cues to SRT: the header is stripped, millisecond
// dots become commas, and cues missing the sequence number SRT requires are
// renumbered in order.
func VTTToSRT(text string) string {
	s := vttHeaderRe.ReplaceAllString(text, "")
	s = vttTimeRe.ReplaceAllString(s, "$1,$2")

	blocks := strings.Split(strings.TrimSpace(s), "\n\n")
	seq := 1
	for i, block := range blocks {
		if !strings.Contains(block, "-->") {
			continue
		}
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) > 0 && isAllDigits(lines[0]) {
			continue
		}
		blocks[i] = strconv.Itoa(seq) + "\n" + block
		seq++
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func isAllDigits(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
