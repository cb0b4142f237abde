package organize

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"bdexports/internal/files"
	"bdexports/internal/period"
	"bdexports/internal/workbook"
)

// RenamedStemPrefix starts every renamed workbook's file name.
const RenamedStemPrefix = "Product_wise_export_2Digit_"

// headerRows is how many leading rows are searched for the report title and period.
const headerRows = 8

var (
	whitespace     = regexp.MustCompile(`\s+`)
	periodLine     = regexp.MustCompile(`(?i)\bperiod\b[:\s]*(.*)`)
	yearRange      = regexp.MustCompile(`(\d{4})\s*[-/]\s*(\d{2,4})`)
	singleYear     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	nonWord        = regexp.MustCompile(`[^\w]+`)
	hsReportHeader = regexp.MustCompile(`hs\s*code.*\d+\s*digit.*wise\s*export\s*report`)
	monthWord      = buildMonthPattern()
)

var headerPhrases = []string{
	"report: product-wise 2 digit",
	"report: commodity-wise data of countries",
}

func buildMonthPattern() *regexp.Regexp {
	aliases := period.MonthAliases()
	quoted := make([]string, len(aliases))
	for i, a := range aliases {
		quoted[i] = regexp.QuoteMeta(a)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

func normalize(s string) string {
	return strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(s), " "))
}

// IsReportHeader reports whether a header line identifies a 2-digit product-wise report.
func IsReportHeader(line string) bool {
	text := normalize(line)
	for _, phrase := range headerPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	if strings.Contains(text, "product") && strings.Contains(text, "wise") &&
		strings.Contains(text, "2") && strings.Contains(text, "digit") {
		return true
	}
	if strings.Contains(text, "commodity") && strings.Contains(text, "data of countries") {
		return true
	}
	return hsReportHeader.MatchString(text)
}

// ExtractPeriod returns the text after "Period" on the first line mentioning it.
func ExtractPeriod(lines []string) (string, bool) {
	for _, line := range lines {
		if m := periodLine.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// SanitizePeriod turns "July-June, 2022-23" into "Jul_Jun_2022_2023".
// Text without months or years falls back to an underscore slug.
func SanitizePeriod(raw string) string {
	text := strings.NewReplacer("–", "-", "—", "-").Replace(raw)
	text = whitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	if text == "" {
		return ""
	}

	var parts []string
	for _, hit := range monthWord.FindAllString(text, -1) {
		if m, ok := period.LookupMonth(hit); ok {
			parts = append(parts, period.Abbrev(m))
		}
	}

	if m := yearRange.FindStringSubmatch(text); m != nil {
		end := m[2]
		if len(end) == 2 {
			end = m[1][:2] + end
		}
		parts = append(parts, m[1]+"_"+end)
	} else if y := singleYear.FindString(text); y != "" {
		parts = append(parts, y)
	}

	if len(parts) == 0 {
		return strings.Trim(nonWord.ReplaceAllString(text, "_"), "_")
	}
	return strings.Join(parts, "_")
}

// Rename copies each recognised report in srcDir to
// dstDir/Product_wise_export_2Digit_<period><ext> (suffixing _v1, _v2, ...
// on collisions) and moves the original into archiveDir.
func (o *Organizer) Rename(srcDir, dstDir, archiveDir string) (*Summary, error) {
	found, err := files.FindWorkbooks(srcDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, f := range found {
		target, err := o.renameOne(f, dstDir, archiveDir)
		switch {
		case err != nil:
			o.logger.Warn("Rename failed", slog.String("file", f.Name), slog.String("error", err.Error()))
			summary.fail(f.Name, err)
		case target == "":
			summary.Skipped = append(summary.Skipped, f.Name)
		default:
			o.logger.Info("Workbook renamed", slog.String("from", f.Name), slog.String("to", filepath.Base(target)))
			summary.Moved = append(summary.Moved, filepath.Base(target))
		}
	}
	return summary, nil
}

// renameOne returns the new path, or "" when the workbook is not a recognisable report.
func (o *Organizer) renameOne(f files.FileInfo, dstDir, archiveDir string) (string, error) {
	names, err := workbook.SheetNames(f.Path)
	if err != nil {
		return "", err
	}
	sheet := ""
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), "2 digit") {
			sheet = n
			break
		}
	}
	if sheet == "" {
		return "", nil
	}

	rows, err := workbook.ReadRows(f.Path, sheet, headerRows)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, joinCells(row))
	}

	recognised := false
	for _, line := range lines {
		if IsReportHeader(line) {
			recognised = true
			break
		}
	}
	if !recognised {
		return "", nil
	}

	raw, ok := ExtractPeriod(lines)
	if !ok {
		return "", nil
	}
	sanitized := SanitizePeriod(raw)
	if sanitized == "" {
		return "", nil
	}

	ext := filepath.Ext(f.Name)
	target := files.UniquePath(dstDir, RenamedStemPrefix+sanitized, ext, "_v")
	if err := o.files.CopyFile(f.Path, target); err != nil {
		return "", fmt.Errorf("copy to %s: %w", target, err)
	}
	if err := o.files.MoveFile(f.Path, filepath.Join(archiveDir, f.Name)); err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}
	return target, nil
}

func joinCells(row []string) string {
	var cells []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return strings.Join(cells, " ")
}
