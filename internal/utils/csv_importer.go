package utils

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ArowuTest/topup-callback/internal/services"
)

// RequestRegistrar registers pending top-up requests
type RequestRegistrar interface {
	Register(ctx context.Context, in services.RegisterInput) error
}

// RegistrarFunc adapts a function to RequestRegistrar
type RegistrarFunc func(ctx context.Context, in services.RegisterInput) error

func (f RegistrarFunc) Register(ctx context.Context, in services.RegisterInput) error {
	return f(ctx, in)
}

// ImportResult summarizes a CSV import
type ImportResult struct {
	TotalRows  int      `json:"total_rows"`
	Created    int      `json:"created"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// CSVImporter seeds pending requests from a CSV export of submitted cards
type CSVImporter struct {
	registrar RequestRegistrar
}

// NewCSVImporter creates a new CSVImporter
func NewCSVImporter(registrar RequestRegistrar) *CSVImporter {
	return &CSVImporter{registrar: registrar}
}

// ImportRequests reads rows from r. Bad rows are reported in the result and skipped;
// only an unreadable header aborts the import.
func (i *CSVImporter) ImportRequests(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idIdx := findColumnIndex(header, []string{"request_id", "Request ID", "RequestID"})
	ownerIdx := findColumnIndex(header, []string{"owner_ref", "Owner", "Chat ID", "User ID"})
	telcoIdx := findColumnIndex(header, []string{"telco", "Network", "Carrier"})
	denomIdx := findColumnIndex(header, []string{"denomination", "Amount", "Card Value"})
	expectedIdx := findColumnIndex(header, []string{"expected_amount", "Expected Amount"})
	if idIdx == -1 {
		return nil, errors.New("request_id column not found in CSV")
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

		in := services.RegisterInput{
			RequestID:      cell(row, idIdx),
			OwnerRef:       cell(row, ownerIdx),
			Telco:          cell(row, telcoIdx),
			Denomination:   CoerceAmount(cell(row, denomIdx)),
			ExpectedAmount: CoerceAmount(cell(row, expectedIdx)),
		}
		if in.RequestID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: No request_id found", result.TotalRows))
			continue
		}

		err = i.registrar.Register(ctx, in)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, services.ErrConflict):
			result.Duplicates++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
		}
	}
	return result, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// findColumnIndex returns the index of the first header matching one of names, case-insensitively
func findColumnIndex(header []string, names []string) int {
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, name := range names {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}
