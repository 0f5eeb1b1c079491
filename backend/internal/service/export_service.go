package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"classflow/backend/internal/model"
	"classflow/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoOccurrence = errors.New("该区间内无上课日")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 将一门课程某日期区间的考勤导出为 Excel (.xlsx)
//   - 行为学员，列为区间内的实际上课日（停课日不出现）
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAttendance 导出考勤矩阵为 Excel
	ExportAttendance(ctx context.Context, classID string, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo           *repository.Repository
	maxOccurrences int
	logger         *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, maxOccurrences int, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, maxOccurrences: maxOccurrences, logger: logger}
}

// ────────────────────── ExportAttendance ──────────────────────

// ExportAttendance 生成考勤矩阵 Excel：
// 行为学员（按报名时间排序），列为区间内每个实际上课日，
// 单元格为 出勤 / 缺勤 / 空白（在班但无记录）/ 长破折号（当天不在班）。
func (s *exportService) ExportAttendance(ctx context.Context, classID string, from, to time.Time) (*bytes.Buffer, string, error) {
	// 1. 查询课程
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", classID), zap.Error(err))
		return nil, "", err
	}

	// 2. 展开区间内的上课日（扣除停课）
	exceptions, err := s.repo.Exception.ListInRange(ctx, classID, from, to)
	if err != nil {
		s.logger.Error("查询停课记录失败", zap.String("class_id", classID), zap.Error(err))
		return nil, "", err
	}
	cancelled := make(map[string]struct{}, len(exceptions))
	for i := range exceptions {
		cancelled[DateKey(exceptions[i].Date)] = struct{}{}
	}
	occurrences := ExpandOccurrences(class, cancelled, from, to, s.maxOccurrences)
	if len(occurrences) == 0 {
		return nil, "", ErrExportNoOccurrence
	}

	// 3. 报名名单与考勤记录
	enrollments, err := s.repo.Enrollment.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询报名名单失败", zap.String("class_id", classID), zap.Error(err))
		return nil, "", err
	}
	records, err := s.repo.Attendance.ListByClassInRange(ctx, classID, from, to)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("class_id", classID), zap.Error(err))
		return nil, "", err
	}

	// 索引: "studentID:date" → status
	recordIndex := make(map[string]string, len(records))
	for i := range records {
		r := &records[i]
		recordIndex[r.StudentID+":"+DateKey(r.Date)] = r.Status
	}

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考勤表"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽：姓名列宽一些，日期列等宽
	f.SetColWidth(sheetName, "A", "A", 16)
	if endCol, err := excelize.ColumnNumberToName(1 + len(occurrences)); err == nil {
		f.SetColWidth(sheetName, "B", endCol, 12)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	title := fmt.Sprintf("%s 考勤表（%s ~ %s）", class.Name, DateKey(from), DateKey(to))
	f.SetCellValue(sheetName, "A1", title)
	if endCol, err := excelize.ColumnNumberToName(1 + len(occurrences)); err == nil {
		f.MergeCell(sheetName, "A1", endCol+"1")
	}
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	f.SetCellValue(sheetName, "A2", "学员")
	f.SetCellStyle(sheetName, "A2", "A2", headerStyle)
	for i, occ := range occurrences {
		col, err := excelize.ColumnNumberToName(2 + i)
		if err != nil {
			continue
		}
		f.SetCellValue(sheetName, col+"2", DateKey(occ.Date))
		f.SetCellStyle(sheetName, col+"2", col+"2", headerStyle)
	}

	// 数据行
	for rowIdx := range enrollments {
		e := &enrollments[rowIdx]
		row := 3 + rowIdx

		name := e.StudentID
		if e.Student != nil {
			name = e.Student.Name
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), name)

		for colIdx, occ := range occurrences {
			col, err := excelize.ColumnNumberToName(2 + colIdx)
			if err != nil {
				continue
			}
			text := "—"
			if IsVisibleOn(e, occ.Date) {
				switch recordIndex[e.StudentID+":"+DateKey(occ.Date)] {
				case model.AttendancePresent:
					text = "出勤"
				case model.AttendanceAbsent:
					text = "缺勤"
				default:
					text = ""
				}
			}
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), text)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("attendance_%s_%s_%s.xlsx", classID, DateKey(from), DateKey(to))
	return buf, filename, nil
}
