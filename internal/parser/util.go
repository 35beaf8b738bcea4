package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/insightdelivered/closure-importer/internal/models"
)

// Header fields, matched anywhere in the report. Extractors may break a
// label from its value, so each value can start on the following line.
var (
	technicianPattern    = regexp.MustCompile(`(?i)T[eé]cnico:\s*(.+)`)
	datePattern          = regexp.MustCompile(`(?i)Fecha:\s*(\d{4}-\d{2}-\d{2})`)
	declaredTotalPattern = regexp.MustCompile(`(?i)TOTAL DEL D[IÍ]A:\s*([\d.,]+)\s*€`)
)

// Item lines, matched against one trimmed line at a time.
var (
	// "1. INSTALACION · Cliente 4021"
	itemStartPattern = regexp.MustCompile(`(?i)^\d+\.\s*(INSTALACI[OÓ]N|REPARACI[OÓ]N|MANTENIMIENTO)\s*[·•]\s*Cliente\s*(\d+)`)
	// "Técnicos en parte: Ana + Luis"
	techListPattern = regexp.MustCompile(`(?i)^T[eé]cnicos en parte:\s*(.+)$`)
	// "Total parte: 125,00 €"
	itemTotalPattern = regexp.MustCompile(`(?i)^Total parte:\s*([\d.,]+)\s*€`)
	// "Obs: cliente ausente"
	observationPattern = regexp.MustCompile(`(?i)^Obs:\s*(.*)$`)
	// "Desplazamiento: 25,00 €"
	breakdownPattern = regexp.MustCompile(`^([\p{L}\s]+):\s*([\d.,]+)\s*€`)
)

var spaceVariants = strings.NewReplacer(
	"\u00A0", " ", // non-breaking space
	"\u202F", " ", // narrow no-break space
	"\t", " ",
)

// normalizeText puts extracted text into NFC so accented labels compare
// byte-for-byte, and flattens exotic spaces the line patterns cannot see.
func normalizeText(text string) string {
	return spaceVariants.Replace(norm.NFC.String(text))
}

// splitLines tokenizes normalized text into trimmed, non-empty lines.
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// workTypeFromLabel maps an item-start label to its work type,
// folding case and the optional accent.
func workTypeFromLabel(label string) models.WorkType {
	upper := strings.ToUpper(label)
	upper = strings.ReplaceAll(upper, "Ó", "O")
	switch models.WorkType(upper) {
	case models.WorkInstallation, models.WorkRepair, models.WorkMaintenance:
		return models.WorkType(upper)
	}
	return ""
}

// splitTechnicians splits "Ana + Luis +" into trimmed, non-empty names.
func splitTechnicians(s string) []string {
	names := []string{}
	for _, n := range strings.Split(s, "+") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func firstSubmatch(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
