package services

import (
	"context"
	"fmt"
	"io"

	"donation-api/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	exportSheet      = "Transactions"
	exportDateFormat = "2006-01-02 15:04:05"
)

var exportHeader = []interface{}{
	"ID", "Name", "Address", "Phone", "Email", "Transaction Type", "Amount",
	"Date", "Status", "Razorpay Order ID", "Razorpay Payment ID",
}

// TransactionSource is the read side of the ledger.
type TransactionSource interface {
	FetchAll(ctx context.Context) ([]models.Transaction, error)
}

// ExportService renders the ledger as a spreadsheet.
type ExportService struct {
	source TransactionSource
}

func NewExportService(source TransactionSource) *ExportService {
	return &ExportService{source: source}
}

// WriteTransactionsXLSX writes every transaction to w as an xlsx workbook.
func (s *ExportService) WriteTransactionsXLSX(ctx context.Context, w io.Writer) error {
	transactions, err := s.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, t := range transactions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		status := ""
		if t.Status != nil {
			status = string(*t.Status)
		}
		row := []interface{}{
			t.ID,
			t.Name,
			t.Address,
			t.Phone,
			t.Email,
			string(t.TransactionType),
			t.Amount.InexactFloat64(),
			t.CreatedAt.UTC().Format(exportDateFormat),
			status,
			t.GatewayOrderID,
			t.GatewayPaymentID,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
