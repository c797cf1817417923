package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// WriteComprehensiveCSV writes the all-organizations export in the format
// the billing side imports.
func WriteComprehensiveCSV(w io.Writer, rows []ComprehensiveRow) error {
	cw := csv.NewWriter(w)
	header := []string{"MFX ID", "Organization Name", "Month", "Year", "Scan Count", "Successful Scans", "Generated At"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.MFXID,
			row.OrganizationName,
			fmt.Sprintf("%d", row.Month),
			fmt.Sprintf("%d", row.Year),
			fmt.Sprintf("%d", row.ScanCount),
			fmt.Sprintf("%d", row.SuccessfulScans),
			row.GeneratedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
