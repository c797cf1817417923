package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// csvHeader matches the column order expected by the billing back office.
var csvHeader = []string{
	"Timestamp", "User ID", "Username", "Action",
	"Entity Type", "Entity ID", "Entity Name", "Details", "IP Address",
}

// WriteCSV streams records as CSV, newest first, header included.
func WriteCSV(w io.Writer, records []*Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, record := range records {
		userID := ""
		if record.UserID != nil {
			userID = record.UserID.String()
		}
		username := record.Username
		if username == "" {
			username = "Unknown User"
		}
		row := []string{
			record.CreatedAt.Format(time.RFC3339),
			userID,
			username,
			record.Action,
			record.EntityType,
			record.EntityID,
			record.EntityName,
			record.Details,
			record.IPAddress,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
