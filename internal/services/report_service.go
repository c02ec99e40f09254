package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pressplan/server/internal/models"
)

const summarySheet = "Summary"

var (
	partHeaders    = []string{"Part", "Quantity", "Required", "Hours", "UPH", "Split"}
	stationHeaders = []string{"Station", "Type", "Tool", "Angle", "Guide", "Autoindex", "Parts"}
	machineHeaders = []string{"#", "Machine", "Type", "Hours used", "Utilization %", "Parts", "Tools", "Overflow"}
)

// ReportService выгрузка раскладки в Excel: сводка и лист наладки на каждую машину
type ReportService struct {
	log *zap.Logger
}

// NewReportService создает сервис отчетов
func NewReportService(log *zap.Logger) *ReportService {
	return &ReportService{log: log}
}

// BuildWorkbook книга со сводкой и листом на каждую машину
func (s *ReportService) BuildWorkbook(plan *models.StoredPlan) (*excelize.File, string, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)
	st := newSheetStyles(f)

	if err := writeSummary(f, st, plan); err != nil {
		return nil, "", err
	}
	for i := range plan.Result.Machines {
		m := &plan.Result.Machines[i]
		sheet := machineSheetName(m)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, "", fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if err := writeMachineSheet(f, st, sheet, m); err != nil {
			return nil, "", err
		}
	}

	s.log.Info("📊 distribution workbook built", zap.String("plan_id", plan.ID), zap.Int("machines", len(plan.Result.Machines)))
	return f, fmt.Sprintf("distribution_%s.xlsx", shortID(plan.ID)), nil
}

// BuildMachineSheet лист наладки одной машины
func (s *ReportService) BuildMachineSheet(plan *models.StoredPlan, machineID string) (*excelize.File, string, error) {
	m, ok := plan.Result.Machine(machineID)
	if !ok {
		return nil, "", fmt.Errorf("machine %s in distribution %s: %w", machineID, plan.ID, ErrNotFound)
	}

	f := excelize.NewFile()
	sheet := machineSheetName(m)
	f.SetSheetName("Sheet1", sheet)
	if err := writeMachineSheet(f, newSheetStyles(f), sheet, m); err != nil {
		return nil, "", err
	}
	return f, fmt.Sprintf("setup_%s_%s.xlsx", sanitizeSheetName(m.MachineName), shortID(plan.ID)), nil
}

type sheetStyles struct {
	header  int
	section int
	alert   int
	errText int
}

func newSheetStyles(f *excelize.File) sheetStyles {
	header, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	section, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	alert, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "#9C5700"}})
	errText, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "#C00000"}})
	return sheetStyles{header: header, section: section, alert: alert, errText: errText}
}

func writeSummary(f *excelize.File, st sheetStyles, plan *models.StoredPlan) error {
	res := &plan.Result.PlanResult
	feasible := "NO"
	if res.Feasible {
		feasible = "YES"
	}

	info := [][2]interface{}{
		{"Package", plan.PackageName},
		{"Demand", plan.Demand},
		{"Time budget, h", round2(plan.TimeBudget)},
		{"Feasible", feasible},
		{"Machines used", res.Stats.MachinesUsed},
		{"Total hours", round2(res.Stats.TotalHours)},
		{"Average efficiency, %", res.Stats.AverageEfficiency},
		{"Created", plan.CreatedAt.Format("2006-01-02 15:04")},
		{"Expires", plan.ExpiresAt.Format("2006-01-02 15:04")},
	}
	for i, kv := range info {
		row := i + 1
		setRow(f, summarySheet, row, kv[0], kv[1])
		f.SetCellStyle(summarySheet, cell(1, row), cell(1, row), st.section)
	}

	row := len(info) + 2
	writeHeader(f, st, summarySheet, row, machineHeaders)
	for _, m := range res.Machines {
		row++
		setRow(f, summarySheet, row,
			m.Sequence, m.MachineName, m.MachineType,
			round2(m.HoursUsed), round1(m.Utilization()*100),
			len(m.Allocations), m.Layout.ToolCount(), len(m.Layout.Overflow))
	}

	row = writeMessages(f, st, summarySheet, row+2, "Errors", res.Errors, st.errText)
	writeMessages(f, st, summarySheet, row, "Alerts", res.Alerts, st.alert)

	setWidths(f, summarySheet, []float64{24, 22, 10, 12, 14, 8, 8, 10})
	return nil
}

func writeMachineSheet(f *excelize.File, st sheetStyles, sheet string, m *models.MachinePlan) error {
	head := [][2]interface{}{
		{"Machine", m.MachineName},
		{"Type", m.MachineType},
		{"Hours used", round2(m.HoursUsed)},
		{"Hours available", round2(m.HoursAvailable)},
		{"Hours remaining", round2(m.HoursRemaining)},
	}
	for i, kv := range head {
		setRow(f, sheet, i+1, kv[0], kv[1])
		f.SetCellStyle(sheet, cell(1, i+1), cell(1, i+1), st.section)
	}

	row := len(head) + 2
	writeHeader(f, st, sheet, row, partHeaders)
	for _, a := range m.Allocations {
		row++
		split := ""
		if a.IsSplit {
			split = fmt.Sprintf("split of %d", a.OriginalQuantity)
		}
		label := a.PartNumber
		if label == "" {
			label = a.PartID
		}
		setRow(f, sheet, row, label, a.Quantity, a.RequiredQuantity, round2(a.Hours), a.UPH, split)
	}

	row += 2
	writeHeader(f, st, sheet, row, stationHeaders)
	for _, t := range m.Layout.Placed {
		row++
		setRow(f, sheet, row, toolRow(t.AssignedStationID, t)...)
	}

	if len(m.Layout.Overflow) > 0 {
		row += 2
		f.SetCellValue(sheet, cell(1, row), fmt.Sprintf("Overflow (%d)", len(m.Layout.Overflow)))
		f.SetCellStyle(sheet, cell(1, row), cell(1, row), st.errText)
		row++
		writeHeader(f, st, sheet, row, stationHeaders)
		for _, t := range m.Layout.Overflow {
			row++
			setRow(f, sheet, row, toolRow("-", t)...)
		}
	}

	row = writeMessages(f, st, sheet, row+2, "Errors", m.Errors, st.errText)
	writeMessages(f, st, sheet, row, "Alerts", m.Alerts, st.alert)

	setWidths(f, sheet, []float64{22, 10, 12, 10, 8, 10, 40})
	return nil
}

func toolRow(station string, t models.UnifiedTool) []interface{} {
	return []interface{}{
		station,
		string(t.StationType),
		t.ToolNumber,
		t.Angle,
		yesNo(t.RequiresGuide),
		yesNo(t.IsAutoindex),
		strings.Join(t.ConsumerParts, ", "),
	}
}

// writeMessages раздел со списком сообщений; возвращает следующую свободную строку
func writeMessages(f *excelize.File, st sheetStyles, sheet string, row int, title string, messages []string, style int) int {
	if len(messages) == 0 {
		return row
	}
	f.SetCellValue(sheet, cell(1, row), title)
	f.SetCellStyle(sheet, cell(1, row), cell(1, row), st.section)
	for _, msg := range messages {
		row++
		f.SetCellValue(sheet, cell(1, row), msg)
		f.SetCellStyle(sheet, cell(1, row), cell(1, row), style)
	}
	return row + 2
}

func writeHeader(f *excelize.File, st sheetStyles, sheet string, row int, headers []string) {
	for i, h := range headers {
		name := cell(i+1, row)
		f.SetCellValue(sheet, name, h)
		f.SetCellStyle(sheet, name, name, st.header)
	}
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) {
	for i, v := range values {
		f.SetCellValue(sheet, cell(i+1, row), v)
	}
}

func setWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
}

// cell адрес ячейки по номерам колонки и строки (1, 1 -> "A1")
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

// machineSheetName Excel: не длиннее 31 символа, без []:*?/\
func machineSheetName(m *models.MachinePlan) string {
	return truncate(fmt.Sprintf("%d %s", m.Sequence, sanitizeSheetName(m.MachineName)), 31)
}

func sanitizeSheetName(name string) string {
	return strings.NewReplacer("[", "", "]", "", ":", "-", "*", "", "?", "", "/", "-", "\\", "-").Replace(name)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func shortID(id string) string {
	return truncate(id, 8)
}
