package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRows       = errors.New("所选日期范围内没有排班记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
//   - 数据来源为排班投影表，只包含启用排班
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportPayroll 导出薪资明细（Payroll）与按人员汇总（Summary）两个 Sheet
	ExportPayroll(ctx context.Context, req *dto.PayrollExportRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var payrollHeaders = []string{
	"日期", "站点", "班次", "人员编号", "姓名", "岗位",
	"日薪", "结算费率", "雇佣费率", "岗位津贴", "全勤奖", "七日奖", "积分奖", "其他津贴", "合计收入",
}

var summaryHeaders = []string{"人员编号", "姓名", "出勤天数", "班次数", "合计收入"}

// ═══════════════════════════════════════════════════════════
// ExportPayroll
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportPayroll(ctx context.Context, req *dto.PayrollExportRequest) (*bytes.Buffer, string, error) {
	from, err := parseDate("start", req.Start)
	if err != nil {
		return nil, "", err
	}
	to, err := parseDate("end", req.End)
	if err != nil {
		return nil, "", err
	}
	if to.Before(from) {
		return nil, "", newValidationError("end", "结束日期不能早于开始日期")
	}

	rows, err := s.repo.ScheduleWorker.List(ctx, repository.ProjectionFilter{
		SiteID:    req.SiteID,
		StartDate: &from,
		EndDate:   &to,
	})
	if err != nil {
		s.logger.Error("查询薪资明细失败", zap.Error(err))
		return nil, "", err
	}
	if len(rows) == 0 {
		return nil, "", ErrExportNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	const payroll = "Payroll"
	const summary = "Summary"
	idx, _ := f.NewSheet(payroll)
	f.SetActiveSheet(idx)
	f.NewSheet(summary)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	writeHeader(f, payroll, payrollHeaders, headerStyle)
	f.SetColWidth(payroll, "A", "A", 12)
	f.SetColWidth(payroll, "B", "B", 24)
	f.SetColWidth(payroll, "E", "E", 20)

	for i := range rows {
		r := &rows[i]
		line := i + 2
		values := []interface{}{
			time.Time(r.ScheduleDate).Format(dto.DateFormat),
			r.SiteName,
			r.Shift,
			r.WorkerCode,
			r.WorkerName,
			r.Position,
			r.DailyIncome,
			r.PayoutRate,
			r.HiringRate,
			r.PositionAllowance,
			r.DiligenceBonus,
			r.SevenDayBonus,
			r.PointBonus,
			r.OtherAllowance,
			r.Pay.TotalIncome(),
		}
		if err := f.SetSheetRow(payroll, cell("A", line), &values); err != nil {
			s.logger.Error("写入薪资明细行失败", zap.Int("row", line), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	writeHeader(f, summary, summaryHeaders, headerStyle)
	f.SetColWidth(summary, "B", "B", 20)
	for i, agg := range aggregatePayroll(rows) {
		line := i + 2
		values := []interface{}{agg.code, agg.name, len(agg.days), agg.shifts, agg.total}
		if err := f.SetSheetRow(summary, cell("A", line), &values); err != nil {
			s.logger.Error("写入汇总行失败", zap.Int("row", line), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("payroll_%s_%s.xlsx", req.Start, req.End)
	return buf, filename, nil
}

type payrollAgg struct {
	workerID uint
	code     string
	name     string
	days     map[string]struct{}
	shifts   int
	total    float64
}

// aggregatePayroll 按人员汇总，按人员编号排序
func aggregatePayroll(rows []model.ScheduleWorker) []*payrollAgg {
	byWorker := make(map[uint]*payrollAgg)
	for i := range rows {
		r := &rows[i]
		agg, ok := byWorker[r.WorkerID]
		if !ok {
			agg = &payrollAgg{workerID: r.WorkerID, days: make(map[string]struct{})}
			byWorker[r.WorkerID] = agg
		}
		agg.code = r.WorkerCode
		agg.name = r.WorkerName
		agg.days[time.Time(r.ScheduleDate).Format(dto.DateFormat)] = struct{}{}
		agg.shifts++
		agg.total += r.Pay.TotalIncome()
	}

	list := make([]*payrollAgg, 0, len(byWorker))
	for _, agg := range byWorker {
		list = append(list, agg)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].code != list[j].code {
			return list[i].code < list[j].code
		}
		return list[i].workerID < list[j].workerID
	})
	return list
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), style)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
