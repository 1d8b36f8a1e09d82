package report

import (
	"time"

	"charity-admin/internal/features/expense"
	"charity-admin/internal/features/member"
	"charity-admin/internal/features/payment"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sheet struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
}

// writeWorkbook renders each sheet with a bold shaded header row.
func writeWorkbook(sheets ...sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return nil, err
		}

		for col, title := range sh.Columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sh.Name, cell, title)
			f.SetCellStyle(sh.Name, cell, cell, headerStyle)
		}
		for r, row := range sh.Rows {
			for col, v := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				f.SetCellValue(sh.Name, cell, v)
			}
		}
		for col := range sh.Columns {
			name, _ := excelize.ColumnNumberToName(col + 1)
			f.SetColWidth(sh.Name, name, name, 18)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func MembersWorkbook(members []member.Member) ([]byte, error) {
	sh := sheet{
		Name:    "Members",
		Columns: []string{"National ID", "Name", "Status", "Phone", "Email", "City", "Tribe", "Join Date", "Payments"},
	}
	for _, m := range members {
		sh.Rows = append(sh.Rows, []interface{}{
			m.NationalID,
			m.FullName.String(),
			string(m.MembershipStatus),
			m.Contact.Phone,
			m.Contact.Email,
			m.PrimaryAddress.City,
			m.TribeAffiliation,
			day(m.JoinDate),
			len(m.PaymentRecords),
		})
	}
	return writeWorkbook(sh)
}

func FinancialWorkbook(export *FinancialExport) ([]byte, error) {
	payments := sheet{
		Name:    "Payments",
		Columns: []string{"Receipt", "Date", "Member", "National ID", "Type", "Method", "Amount", "Paid", "Collected By"},
	}
	for _, p := range export.Payments.Records {
		payments.Rows = append(payments.Rows, paymentRow(p))
	}

	expenses := sheet{
		Name:    "Expenses",
		Columns: []string{"Date", "Category", "Purpose", "Amount", "Status", "Spent By", "Approved By"},
	}
	for _, e := range export.Expenses.Records {
		expenses.Rows = append(expenses.Rows, expenseRow(e))
	}
	return writeWorkbook(payments, expenses)
}

func paymentRow(p payment.PaymentDetail) []interface{} {
	var name, nationalID, collector string
	if p.MemberDoc != nil {
		name = p.MemberDoc.FullName.String()
		nationalID = p.MemberDoc.NationalID
	}
	if p.CollectorDoc != nil {
		collector = p.CollectorDoc.FullName
	}
	return []interface{}{p.ReceiptNumber, day(p.PaymentDate), name, nationalID, p.PaymentType, p.PaymentMethod, p.Amount, p.IsPaid, collector}
}

func expenseRow(e expense.ExpenseDetail) []interface{} {
	var spentBy, approver string
	if e.SpentByDoc != nil {
		spentBy = e.SpentByDoc.FullName
	}
	if e.ApproverDoc != nil {
		approver = e.ApproverDoc.FullName
	}
	return []interface{}{day(e.Date), e.Category, e.Purpose, e.Amount, string(e.ApprovalStatus), spentBy, approver}
}
