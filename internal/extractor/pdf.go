// Package extractor turns daily closure PDFs into plain text, one line per
// visual row, ready for the report parser.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts report text from PDF files or uploaded bytes.
type PDFExtractor struct{}

// ExtractFile returns the text of the PDF at path, pages joined by newlines.
func (PDFExtractor) ExtractFile(path string) (string, error) {
	pages, err := ExtractText(path)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

// ExtractBytes is ExtractFile for an in-memory document.
func (PDFExtractor) ExtractBytes(data []byte) (string, error) {
	pages, err := ExtractTextBytes(data)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

// ExtractText reads a PDF file and returns the text content of each page.
// If the structured PDF library fails, falls back to the external
// pdftotext command (poppler-utils).
func ExtractText(filePath string) ([]string, error) {
	pages, libErr := extractFileWithLibrary(filePath)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(filePath)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	return nil, extractionError(libErr)
}

// ExtractTextBytes is ExtractText for an in-memory document. The pdftotext
// fallback goes through a temporary file.
func ExtractTextBytes(data []byte) ([]string, error) {
	pages, libErr := extractWithLibrary(bytes.NewReader(data), int64(len(data)))
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	tmp, err := os.CreateTemp("", "closure-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr == nil && cerr == nil {
		popplerPages, popplerErr := extractWithPdftotext(tmp.Name())
		if popplerErr == nil && isReadableText(popplerPages) {
			return popplerPages, nil
		}
	}

	return nil, extractionError(libErr)
}

func extractionError(libErr error) error {
	if libErr != nil {
		return fmt.Errorf("PDF text extraction failed: %v", libErr)
	}
	return fmt.Errorf("no readable text could be extracted from PDF; the file may be image-based or scanned")
}

// textQuality returns the ratio of readable characters to total characters.
// Letters are limited to ASCII plus the Spanish accented set; unicode.IsLetter
// is too broad and matches garbage from identity-encoded fonts.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()'\"€%&@#!?+=*·•", r) ||
				strings.ContainsRune("áéíóúüñÁÉÍÓÚÜÑ", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords that appear in every closure report.
// If the extracted text contains none of these, it's likely garbage.
var commonWords = []string{
	"cliente", "técnico", "tecnico", "fecha", "total", "parte",
	"instalaci", "reparaci", "mantenimiento", "obs:",
}

// containsCommonWords checks whether the text contains at least one word
// that would be expected in a closure report.
func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// minTextLen is the shortest text accepted as a report.
const minTextLen = 20

// isReadableText checks that pages contain enough text, that it's actually
// readable (not binary garbage), AND that it contains recognizable words.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= minTextLen {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

// IsReadableText is the exported version for use by other packages.
func IsReadableText(pages []string) bool {
	return isReadableText(pages)
}

// extractWithPdftotext uses the external pdftotext command from poppler-utils
// as a fallback for PDFs that the Go library cannot handle.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %v", err)
	}

	pageCountOut, err := exec.Command("pdfinfo", filePath).Output()
	numPages := 1
	if err == nil {
		for _, line := range strings.Split(string(pageCountOut), "\n") {
			if strings.HasPrefix(line, "Pages:") {
				n, parseErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
				if parseErr == nil && n > 0 {
					numPages = n
				}
			}
		}
	}

	// Extract each page separately to preserve page boundaries
	var pages []string
	for i := 1; i <= numPages; i++ {
		pageStr := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-f", pageStr, "-l", pageStr, filePath, "-").Output()
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(out))
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

func extractFileWithLibrary(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return extractWithLibrary(f, info.Size())
}

// extractWithLibrary uses the ledongthuc/pdf library with multiple methods.
func extractWithLibrary(ra io.ReaderAt, size int64) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, openErr := pdf.NewReader(ra, size)
	if openErr != nil {
		return nil, openErr
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Rows keep one report line per visual line
	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	pages = extractByContent(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	plainText := extractByReaderPlainText(r)
	if isReadableText([]string{plainText}) {
		return []string{plainText}, nil
	}

	return pages, nil
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups text pieces by Y coordinate to reconstruct rows,
// then sorts each row by X.
func extractByContent(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type textItem struct {
			x float64
			s string
		}
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y goes bottom-to-top
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					parts = append(parts, " ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
