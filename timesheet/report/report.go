package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/utils"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	DetailSheet  = "Detail"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CSVContentType  = "text/csv"
)

var summaryHeader = []string{"Week Start", "Client", "Total Drivers", "Total Actual Hours", "Total Billable Hours", "Total Shifts"}
var summaryWidths = []float64{15, 30, 15, 20, 20, 15}

var detailHeader = []string{"Week Start", "Client", "Driver", "Days Worked", "Actual Hours", "Billable Hours", "Minimum Per Shift", "Rating", "Approved By", "Modified"}
var detailWidths = []float64{15, 30, 25, 12, 15, 15, 18, 10, 25, 10}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

// SummaryRows has one row per week and client, newest week first.
func SummaryRows(weeks []engine.WeekGroup) [][]string {
	rows := [][]string{summaryHeader}
	for _, w := range weeks {
		for _, c := range w.Clients {
			rows = append(rows, []string{
				w.WeekStartDate,
				c.Client,
				strconv.Itoa(c.DriverCount),
				hours(c.TotalActualHours),
				hours(c.TotalBillableHours),
				strconv.Itoa(c.TotalShifts),
			})
		}
	}
	return rows
}

// DetailRows has one row per driver entry.
func DetailRows(weeks []engine.WeekGroup) [][]string {
	rows := [][]string{detailHeader}
	for _, w := range weeks {
		for _, c := range w.Clients {
			for _, d := range c.Drivers {
				rows = append(rows, []string{
					w.WeekStartDate,
					c.Client,
					d.Name,
					strconv.Itoa(d.DaysWorked),
					hours(d.ActualHours),
					hours(d.BillableHours),
					hours(c.MinimumBillableHours),
					utils.Format(d.Rating),
					utils.Format(d.ApprovedBy),
					utils.YesNo(d.HasModifications),
				})
			}
		}
	}
	return rows
}

// Workbook renders the payroll as an xlsx file with a Summary and a Detail sheet.
func Workbook(weeks []engine.WeekGroup) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(DetailSheet); err != nil {
		return nil, err
	}

	if err := writeSheet(f, SummarySheet, SummaryRows(weeks), summaryWidths, numericSummary); err != nil {
		return nil, err
	}
	if err := writeSheet(f, DetailSheet, DetailRows(weeks), detailWidths, numericDetail); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// numeric columns are written as numbers so they can be summed in Excel
var numericSummary = map[int]bool{2: true, 3: true, 4: true, 5: true}
var numericDetail = map[int]bool{3: true, 4: true, 5: true, 6: true}

func writeSheet(f *excelize.File, sheet string, rows [][]string, widths []float64, numeric map[int]bool) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	for r, row := range rows {
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
			if r > 0 && numeric[i] {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					values[i] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}

// CSV renders the detail rows.
func CSV(weeks []engine.WeekGroup) ([]byte, error) {
	var buf bytes.Buffer
	if err := utils.WriteCSV(&buf, DetailRows(weeks)); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteText prints the payroll as an aligned plain-text table.
func WriteText(w io.Writer, weeks []engine.WeekGroup) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, week := range weeks {
		fmt.Fprintf(tw, "Week of %s\tdrivers %d\tactual %s\tbillable %s\n",
			week.WeekStartDate, week.DriverCount, hours(week.TotalActualHours), hours(week.TotalBillableHours))
		for _, c := range week.Clients {
			fmt.Fprintf(tw, "  %s\tdrivers %d\tactual %s\tbillable %s\n",
				c.Client, c.DriverCount, hours(c.TotalActualHours), hours(c.TotalBillableHours))
			for _, d := range c.Drivers {
				fmt.Fprintf(tw, "    %s\tdays %d\tactual %s\tbillable %s\n",
					d.Name, d.DaysWorked, hours(d.ActualHours), hours(d.BillableHours))
			}
		}
	}
	return tw.Flush()
}
