// Package htmlutil flattens HTML email bodies into readable plain
// text. Gmail messages frequently carry only a text/html part; the
// tool output and the client-side rule matcher both want text.
package htmlutil

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	containerRE = regexp.MustCompile(`(?is)<(style|script|head)[^>]*>.*?</(style|script|head)>`)
	commentRE   = regexp.MustCompile(`(?s)<!--.*?-->`)
	anchorRE    = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"']+)["'][^>]*>(.*?)</a>`)
	breakRE     = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockEdgeRE = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|ul|ol|tr|table|blockquote)\b[^>]*>`)
	anyTagRE    = regexp.MustCompile(`<[^>]+>`)
	entityRE    = regexp.MustCompile(`&[a-zA-Z]+;|&#\d+;|&#x[0-9a-fA-F]+;`)
	spaceRunRE  = regexp.MustCompile(`[ \t]+`)
	blankRunRE  = regexp.MustCompile(`\n{3,}`)
)

var namedEntities = map[string]string{
	"&amp;":    "&",
	"&lt;":     "<",
	"&gt;":     ">",
	"&quot;":   `"`,
	"&apos;":   "'",
	"&nbsp;":   " ",
	"&mdash;":  "—",
	"&ndash;":  "–",
	"&hellip;": "…",
	"&copy;":   "©",
	"&reg;":    "®",
	"&trade;":  "™",
}

// ToPlainText renders an HTML fragment as plain text: markup stripped,
// block boundaries kept as line breaks, link targets preserved next to
// their anchor text, entities decoded.
func ToPlainText(html string) string {
	if html == "" {
		return ""
	}

	text := containerRE.ReplaceAllString(html, "")
	text = commentRE.ReplaceAllString(text, "")

	// Keep the destination of links: "text (url)". Anchors whose text
	// already is the URL collapse to just the URL.
	text = anchorRE.ReplaceAllStringFunc(text, flattenAnchor)

	text = breakRE.ReplaceAllString(text, "\n")
	text = blockEdgeRE.ReplaceAllString(text, "\n")
	text = anyTagRE.ReplaceAllString(text, "")
	text = decodeEntities(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = spaceRunRE.ReplaceAllString(strings.TrimSpace(line), " ")
	}
	text = blankRunRE.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

func flattenAnchor(anchor string) string {
	m := anchorRE.FindStringSubmatch(anchor)
	if m == nil {
		return anchor
	}
	href := m[1]
	label := strings.TrimSpace(anyTagRE.ReplaceAllString(m[2], ""))
	if label == "" || label == href {
		return href
	}
	return label + " (" + href + ")"
}

// decodeEntities resolves named entities from the table above and
// numeric references in decimal (&#8364;) or hex (&#x20AC;) form.
func decodeEntities(text string) string {
	return entityRE.ReplaceAllStringFunc(text, func(entity string) string {
		if replacement, ok := namedEntities[strings.ToLower(entity)]; ok {
			return replacement
		}
		if !strings.HasPrefix(entity, "&#") {
			return entity
		}
		num := entity[2 : len(entity)-1]
		base := 10
		if strings.HasPrefix(num, "x") || strings.HasPrefix(num, "X") {
			num, base = num[1:], 16
		}
		code, err := strconv.ParseInt(num, base, 32)
		if err != nil || code <= 0 {
			return entity
		}
		return string(rune(code))
	})
}
