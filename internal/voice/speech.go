package voice

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reHeading    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	reWholeHour  = regexp.MustCompile(`(\d{1,2}):00\s*([AaPp][Mm])`)
	reAM         = regexp.MustCompile(`(\d)\s*(AM|am)\b`)
	rePM         = regexp.MustCompile(`(\d)\s*(PM|pm)\b`)
	reNonASCII   = regexp.MustCompile(`[^\x00-\x7F]+`)
	reSpaces     = regexp.MustCompile(`\s+`)
	reDots       = regexp.MustCompile(`\.{2,}`)
	reSpaceComma = regexp.MustCompile(`\s+,`)
)

var abbreviations = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)\bPRD\b`), "P.R.D."},
	{regexp.MustCompile(`(?i)\bAPI\b`), "A.P.I."},
	{regexp.MustCompile(`(?i)\bUI\b`), "U.I."},
	{regexp.MustCompile(`(?i)\bUX\b`), "U.X."},
	{regexp.MustCompile(`(?i)\bETD\b`), "E.T.D."},
	{regexp.MustCompile(`(?i)\bFYI\b`), "F.Y.I."},
	{regexp.MustCompile(`(?i)\bASAP\b`), "A.S.A.P."},
	{regexp.MustCompile(`(?i)\bTBD\b`), "T.B.D."},
	{regexp.MustCompile(`(?i)\bvs\b`), "versus"},
	{regexp.MustCompile(`(?i)\bw/`), "with"},
}

var ordinals = []string{"First", "Second", "Third"}

// PrepareTextForSpeech turns chat markdown into plain sentences for the voice
// model. Bullets are read as "First, Second, Third, Also" and non-ASCII
// (emoji included) is dropped.
func PrepareTextForSpeech(text string) string {
	s := reHeading.ReplaceAllString(text, "")
	s = strings.NewReplacer("**", "", "*", "", "__", "", "_", " ", "```", "", "`", "").Replace(s)

	var lines []string
	bullets := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		content, ok := bullet(line)
		if !ok {
			bullets = 0
			if line != "" {
				lines = append(lines, sentence(line))
			}
			continue
		}
		lead := "Also"
		if bullets < len(ordinals) {
			lead = ordinals[bullets]
		}
		bullets++
		lines = append(lines, lead+", "+content+".")
	}
	s = strings.Join(lines, " ")

	s = reWholeHour.ReplaceAllString(s, "$1 $2")
	s = reAM.ReplaceAllString(s, "$1 A.M.")
	s = rePM.ReplaceAllString(s, "$1 P.M.")

	for _, a := range abbreviations {
		s = a.re.ReplaceAllString(s, a.with)
	}
	s = strings.ReplaceAll(s, " & ", " and ")

	s = strings.NewReplacer(
		"→", ", then ",
		"←", "",
		"---", ". ",
		"--", ", ",
		"|", ", ",
		"/", " or ",
	).Replace(s)
	s = reNonASCII.ReplaceAllString(s, "")

	s = reSpaces.ReplaceAllString(s, " ")
	s = reDots.ReplaceAllString(s, ".")
	s = reSpaceComma.ReplaceAllString(s, ",")
	s = strings.TrimSpace(s)

	if s != "" && !strings.ContainsAny(s[len(s)-1:], ".!?") {
		s += "."
	}
	return s
}

// sentence closes a line that ends mid-word so joined lines keep their pause.
func sentence(line string) string {
	last, _ := utf8.DecodeLastRuneInString(line)
	if unicode.IsLetter(last) || unicode.IsDigit(last) {
		return line + "."
	}
	return line
}

func bullet(line string) (string, bool) {
	// "* " never survives the markup pass, so only dashes and dots remain
	for _, p := range []string{"- ", "• "} {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p)), true
		}
	}
	return "", false
}

// MorningBrief wraps a cleaned brief in the spoken intro and sign-off.
func MorningBrief(brief string) string {
	body := PrepareTextForSpeech(brief)
	s := "Good morning. It's Donna. Here's your day. " + body +
		" Now get moving. You've got a lot to do, and I don't have time to repeat myself."
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}
