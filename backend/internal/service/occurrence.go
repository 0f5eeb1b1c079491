package service

import (
	"time"

	"classflow/backend/internal/model"
)

// Occurrence 一次具体上课日 — 由课程规则展开得出，仅在内存中存在，从不落库。
type Occurrence struct {
	ClassID   string
	ClassName string
	Date      time.Time // 零点对齐，仅日期部分有意义
	Weekday   int       // 0=周日 … 6=周六
	StartTime string    // "HH:MM"，该 weekday 无时段配置时为空
	EndTime   string
}

// DateOnly 截取日期部分（保留时区，时间归零）。
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay 返回当天最后一刻，用于"按日"的报名可见性判断。
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// DateKey 日期的规范文本形式，作为停课集合等 map 的 key。
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ExpandOccurrences 将课程的每周重复规则展开为 [from, to] 内的上课日列表。
//
// 有效下界 = max(start_date, from)；有效上界 = min(end_date, to)，
// end_date 为空时取 to。逐日推进，weekday 命中重复日集合且不在停课
// 集合内的日期产出一条 Occurrence，结果按日期升序。
//
// maxCount 为展开条数上限：end_date 可为空，必须有硬上限兜底，超出即截断。
// 重复日集合为空、或有效区间为空（含 end_date < start_date）时返回空列表，
// 从不报错。
func ExpandOccurrences(class *model.Class, exceptionDates map[string]struct{}, from, to time.Time, maxCount int) []Occurrence {
	if class == nil || len(class.RecurringDays) == 0 || maxCount <= 0 {
		return nil
	}

	lo := DateOnly(from)
	if start := DateOnly(class.StartDate); start.After(lo) {
		lo = start
	}
	hi := DateOnly(to)
	if class.EndDate != nil {
		if end := DateOnly(*class.EndDate); end.Before(hi) {
			hi = end
		}
	}
	if hi.Before(lo) {
		return nil
	}

	var occurrences []Occurrence
	for d := lo; !d.After(hi); d = d.AddDate(0, 0, 1) {
		weekday := int(d.Weekday())
		if !class.RecurringDays.Contains(weekday) {
			continue
		}
		if _, cancelled := exceptionDates[DateKey(d)]; cancelled {
			continue
		}
		occ := Occurrence{
			ClassID:   class.ClassID,
			ClassName: class.Name,
			Date:      d,
			Weekday:   weekday,
		}
		if tr, ok := class.ScheduleTimes[weekday]; ok {
			occ.StartTime = tr.StartTime
			occ.EndTime = tr.EndTime
		}
		occurrences = append(occurrences, occ)
		if len(occurrences) >= maxCount {
			break
		}
	}
	return occurrences
}

// IsOccurrenceDate 判断 date 是否是该课程的一个真实上课日（不考虑停课）。
// 考勤保存前用它校验日期合法性。
func IsOccurrenceDate(class *model.Class, date time.Time) bool {
	d := DateOnly(date)
	if !class.RecurringDays.Contains(int(d.Weekday())) {
		return false
	}
	if d.Before(DateOnly(class.StartDate)) {
		return false
	}
	if class.EndDate != nil && d.After(DateOnly(*class.EndDate)) {
		return false
	}
	return true
}
