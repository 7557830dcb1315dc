package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXExtractor renders spreadsheet rows as pipe-separated lines, one
// block per sheet. Term sheets and fee schedules arrive this way.
type XLSXExtractor struct{}

func (e *XLSXExtractor) SupportedFormats() []string { return []string{"xlsx", "xls"} }

func (e *XLSXExtractor) Extract(_ context.Context, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var out strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		var content strings.Builder
		content.WriteString(sheet + "\n")
		for _, row := range rows {
			content.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}

		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(strings.TrimRight(content.String(), "\n"))
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("no data found in XLSX")
	}
	return out.String(), nil
}
