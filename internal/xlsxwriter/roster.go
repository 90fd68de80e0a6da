// =============================================================================
// Meal Voucher Generator - XLSX Roster Writer
// =============================================================================
//
// This module exports the vouchers of a run as a spreadsheet, so the dining
// room can check printed vouchers against a list.
//
// WORKBOOK STRUCTURE:
//
//   Sheet "Vouchers" (one row per voucher, in voucher order)
//   | Habitación | Reserva | Nombre | DNI | U.Turística | Ingreso | Egreso |
//   | Noches | Cant. Pax | Cant. Comidas | Integrantes |
//
//   Sheet "Pasajeros" (one row per eligible record, grouped by voucher)
//   | Habitación | Reserva | Nombre | DNI | Noches | Cant. Pax | Cant. Comidas | Línea |
//
//   Voucher rows carry the resolved group counts; passenger rows carry each
//   record's own computed counts.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/meal-vouchers/internal/types"
)

// Sheet names.
const (
	VoucherSheet   = "Vouchers"
	PassengerSheet = "Pasajeros"
)

// defaultSheet is the sheet excelize creates with a new workbook.
const defaultSheet = "Sheet1"

// VoucherHeaders are the column titles of the voucher sheet.
var VoucherHeaders = []string{
	"Habitación", "Reserva", "Nombre", "DNI", "U.Turística", "Ingreso", "Egreso",
	"Noches", "Cant. Pax", "Cant. Comidas", "Integrantes",
}

// PassengerHeaders are the column titles of the passenger sheet.
var PassengerHeaders = []string{
	"Habitación", "Reserva", "Nombre", "DNI", "Noches", "Cant. Pax", "Cant. Comidas", "Línea",
}

// =============================================================================
// ROSTER
// =============================================================================

// Roster is an in-memory workbook built from voucher groups. Close it when
// done.
type Roster struct {
	file *excelize.File
}

// Build creates the roster workbook for groups.
//
// PARAMETERS:
//   - groups: The voucher groups, in voucher order.
//
// RETURNS:
//   - The workbook, ready to be written.
//   - An error if a sheet cannot be populated.
func Build(groups []types.VoucherGroup) (*Roster, error) {
	f := excelize.NewFile()
	roster := &Roster{file: f}

	if err := f.SetSheetName(defaultSheet, VoucherSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PassengerSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet %s: %w", PassengerSheet, err)
	}

	if err := roster.writeVouchers(groups); err != nil {
		f.Close()
		return nil, err
	}
	if err := roster.writePassengers(groups); err != nil {
		f.Close()
		return nil, err
	}

	return roster, nil
}

func (r *Roster) writeVouchers(groups []types.VoucherGroup) error {
	if err := r.writeHeader(VoucherSheet, VoucherHeaders); err != nil {
		return err
	}

	for i, group := range groups {
		rep := group.Representative
		row := []interface{}{
			rep.Room,
			rep.Booking,
			rep.PassengerName,
			rep.DNI,
			rep.Hotel,
			rep.CheckInRaw,
			rep.CheckOutRaw,
			group.StayDuration(),
			group.Occupants,
			group.MealCount,
			len(group.Members),
		}
		if err := r.setRow(VoucherSheet, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

func (r *Roster) writePassengers(groups []types.VoucherGroup) error {
	if err := r.writeHeader(PassengerSheet, PassengerHeaders); err != nil {
		return err
	}

	line := 2
	for _, group := range groups {
		for _, member := range group.Members {
			row := []interface{}{
				member.Room,
				member.Booking,
				member.PassengerName,
				member.DNI,
				member.StayDuration,
				member.Occupants,
				member.MealCount,
				member.Line,
			}
			if err := r.setRow(PassengerSheet, line, row); err != nil {
				return err
			}
			line++
		}
	}

	return nil
}

// writeHeader writes a bold header row and freezes it.
func (r *Roster) writeHeader(sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := r.setRow(sheet, 1, row); err != nil {
		return err
	}

	style, err := r.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := r.file.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}

	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := r.file.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("failed to size columns of %s: %w", sheet, err)
	}

	return r.file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (r *Roster) setRow(sheet string, rowNumber int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("failed to resolve row %d: %w", rowNumber, err)
	}
	if err := r.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNumber, sheet, err)
	}
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// Write saves the workbook to path.
func (r *Roster) Write(path string) error {
	if err := r.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

// WriteTo streams the workbook to w.
func (r *Roster) WriteTo(w io.Writer) (int64, error) {
	n, err := r.file.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("failed to write roster: %w", err)
	}
	return n, nil
}

// Close releases the workbook.
func (r *Roster) Close() error {
	return r.file.Close()
}
