package pdf

import "charity-admin/internal/features/report"

type Insight struct {
	Warning bool   `json:"warning"`
	Text    string `json:"text"`
}

// Insights turns the report figures into short findings. Sections whose data
// is missing or empty contribute nothing.
func Insights(data *ReportData) []Insight {
	var out []Insight

	if f := data.Financial; f != nil && f.TotalIncome > 0 {
		switch ratio := report.Ratio(f.TotalExpenses, f.TotalIncome); {
		case ratio > 80:
			out = append(out, Insight{Warning: true, Text: "Expense ratio is high, a budget review is recommended"})
		case ratio < 50:
			out = append(out, Insight{Text: "Expense ratio is healthy"})
		}
		if f.NetIncome < 0 {
			out = append(out, Insight{Warning: true, Text: "Net income is negative, raise income or cut expenses"})
		} else {
			out = append(out, Insight{Text: "Net income is positive"})
		}
	}

	if m := data.Members; m != nil && m.TotalMembers > 0 {
		switch ratio := report.Ratio(float64(m.StatusDistribution["active"]), float64(m.TotalMembers)); {
		case ratio > 80:
			out = append(out, Insight{Text: "Share of active members is excellent"})
		case ratio < 60:
			out = append(out, Insight{Warning: true, Text: "Share of active members is low, consider engagement programmes"})
		}
	}

	if v := data.Vehicles; v != nil && v.TotalVehicles > 0 {
		if v.Utilization > 70 {
			out = append(out, Insight{Text: "Vehicle utilisation is good"})
		} else {
			out = append(out, Insight{Warning: true, Text: "Vehicle utilisation is low, review trip scheduling"})
		}
	}
	return out
}
