package utils

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
)

// AccountAdder creates a phone-only account or tops up the current holder.
type AccountAdder interface {
	AddAccount(ctx context.Context, req models.AddAccountRequest) (*models.AddAccountResult, error)
}

// ImportResult summarises a CSV import
type ImportResult struct {
	TotalRows int      `json:"totalRows"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Points    int64    `json:"points"`
	Errors    []string `json:"errors"`
}

// CSVImporter loads accounts from a spreadsheet export
type CSVImporter struct {
	adder AccountAdder
}

// NewCSVImporter creates a new CSVImporter
func NewCSVImporter(adder AccountAdder) *CSVImporter {
	return &CSVImporter{adder: adder}
}

// ImportAccounts reads rows of phone, points and optional names from r.
// A bad row is recorded in the result and the import moves on.
func (i *CSVImporter) ImportAccounts(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	phoneIdx := findColumnIndex(header, []string{"phone", "Phone Number", "MSISDN", "Mobile"})
	pointsIdx := findColumnIndex(header, []string{"points", "Points", "Balance"})
	firstIdx := findColumnIndex(header, []string{"first_name", "First Name", "Name"})
	lastIdx := findColumnIndex(header, []string{"last_name", "Last Name", "Surname"})

	if phoneIdx == -1 {
		return nil, errors.New("phone column not found in CSV")
	}

	result := &ImportResult{Errors: []string{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.TotalRows++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		req := models.AddAccountRequest{
			Phone:       column(row, phoneIdx),
			DisplayName: column(row, firstIdx),
			Surname:     column(row, lastIdx),
		}
		if req.Phone == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: no phone found", result.TotalRows))
			continue
		}
		if raw := column(row, pointsIdx); raw != "" {
			req.Points, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid points: %s", result.TotalRows, raw))
				continue
			}
		}

		res, err := i.adder.AddAccount(ctx, req)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s: %v", result.TotalRows, req.Phone, err))
			continue
		}
		if res.IsNew {
			result.Created++
		} else {
			result.Updated++
		}
		result.Points += res.Points
	}

	return result, nil
}

func column(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// findColumnIndex finds the index of a column in the header
func findColumnIndex(header []string, possibleNames []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range possibleNames {
			if strings.ToLower(name) == h {
				return i
			}
		}
	}
	return -1
}
