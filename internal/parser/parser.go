package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ExtractText pulls plain text out of an uploaded document. The engine itself
// only ever sees this decoded text; paragraph boundaries are kept as blank
// lines so the chunker can split on them.
func ExtractText(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return extractPDF(filePath)
	case ".docx":
		return extractDOCX(filePath)
	case ".pptx":
		return extractPPTX(filePath)
	case ".xlsx":
		return extractXLSX(filePath)
	case ".ods":
		return extractODS(filePath)
	case ".md":
		return extractMarkdown(filePath)
	case ".txt":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

func extractPDF(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		text.WriteString(strings.TrimSpace(pageText))
		text.WriteString("\n\n")
	}
	return strings.TrimSpace(text.String()), nil
}

func extractDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// GetContent returns the raw document XML; pull the <w:t> runs out of it
	content := r.Editable().GetContent()
	return extractRuns(content, "<w:t", "</w:t>"), nil
}

func extractPPTX(filePath string) (string, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractRuns(string(data), "<a:t", "</a:t>")
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		text.WriteString(strings.TrimSpace(slideText))
		text.WriteString("\n\n")
	}
	return strings.TrimSpace(text.String()), nil
}

func extractXLSX(filePath string) (string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}
	return strings.TrimSpace(text.String()), nil
}

func extractODS(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}
	return strings.TrimSpace(text.String()), nil
}

func extractMarkdown(filePath string) (string, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(src))

	var buf bytes.Buffer
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			buf.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// extractRuns collects the text between startTag...> and endTag occurrences.
func extractRuns(xmlContent, startTag, endTag string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, startTag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		// only real text runs: the next byte is the tag close or an attribute,
		// not the tail of a longer tag name like <w:tbl
		if part == "" || (part[0] != '>' && part[0] != ' ') {
			continue
		}
		close := strings.Index(part, ">")
		if close < 0 {
			continue
		}
		part = part[close+1:]
		endIdx := strings.Index(part, endTag)
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return strings.TrimSpace(text.String())
}
