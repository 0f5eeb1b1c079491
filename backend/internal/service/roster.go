package service

import (
	"time"

	"classflow/backend/internal/model"
)

// ── 报名可见性 ──

// IsVisibleOn 判断某条报名在 date 当天是否在班：
// 报名时刻不晚于当天最后一刻即算在班。报名当天即生效。
func IsVisibleOn(enrollment *model.Enrollment, date time.Time) bool {
	return !enrollment.EnrolledAt.After(EndOfDay(date))
}

// FilterRoster 返回 date 当天的在班名单。
// viewerRole 为 student 时额外收窄到本人一行；manager 看全量。
func FilterRoster(enrollments []model.Enrollment, date time.Time, viewerID, viewerRole string) []model.Enrollment {
	var visible []model.Enrollment
	for _, e := range enrollments {
		if !IsVisibleOn(&e, date) {
			continue
		}
		if viewerRole == model.RoleStudent && e.StudentID != viewerID {
			continue
		}
		visible = append(visible, e)
	}
	return visible
}

// ── 停课时限 ──

// CanCancel 判断某个上课日此刻是否还允许停课：
// 未来日期可以，过去日期不行；当天则看是否已到上课时间，
// 该 weekday 没有时段配置时当天一律不允许。
func CanCancel(date time.Time, times *model.TimeRange, now time.Time) bool {
	d := DateOnly(date)
	today := DateOnly(now)
	if d.After(today) {
		return true
	}
	if d.Before(today) {
		return false
	}
	if times == nil || times.StartTime == "" {
		return false
	}
	start, err := atDayTime(d, times.StartTime)
	if err != nil {
		return false
	}
	return now.Before(start)
}

// atDayTime 把 "HH:MM" 套到某天上，得到当天的具体时刻。
func atDayTime(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// ── 日期徽标 ──

// 日期相对"今天"的徽标档位
const (
	BadgeToday    = "today"
	BadgeTomorrow = "tomorrow"
	BadgeDays     = "days" // 本周内，距今 N 天
	BadgeNextWeek = "next_week"
	BadgeNone     = "none"
)

// ClassifyDate 给日期打相对"今天"的徽标。
// 周以周日为第一天。days 仅在档位为 BadgeDays 时有意义（距今天数）。
// 过去的日期一律 BadgeNone。
func ClassifyDate(date, today time.Time) (badge string, days int) {
	d := DateOnly(date)
	t := DateOnly(today)

	diff := int(d.Sub(t).Hours() / 24)
	switch {
	case diff == 0:
		return BadgeToday, 0
	case diff == 1:
		return BadgeTomorrow, 0
	case diff < 0:
		return BadgeNone, 0
	}

	// 本周起点 = 最近的过去（含今天）的周日
	weekStart := t.AddDate(0, 0, -int(t.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 6)
	if !d.After(weekEnd) {
		return BadgeDays, diff
	}
	nextWeekEnd := weekEnd.AddDate(0, 0, 7)
	if !d.After(nextWeekEnd) {
		return BadgeNextWeek, 0
	}
	return BadgeNone, 0
}
