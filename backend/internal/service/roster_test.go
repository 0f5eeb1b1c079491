package service

import (
	"testing"
	"time"

	"classflow/backend/internal/model"
)

// ── IsVisibleOn / FilterRoster 测试 ──

func TestIsVisibleOn(t *testing.T) {
	e := &model.Enrollment{
		StudentID:  "stu-1",
		EnrolledAt: time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC),
	}

	if IsVisibleOn(e, date(2024, 1, 3)) {
		t.Error("报名前两天不应在班")
	}
	if !IsVisibleOn(e, date(2024, 1, 5)) {
		t.Error("报名当天即应在班")
	}
	if !IsVisibleOn(e, date(2024, 1, 10)) {
		t.Error("报名之后应在班")
	}
}

func TestFilterRoster_ByDate(t *testing.T) {
	enrollments := []model.Enrollment{
		{StudentID: "stu-early", EnrolledAt: date(2024, 1, 1)},
		{StudentID: "stu-late", EnrolledAt: date(2024, 1, 20)},
	}

	visible := FilterRoster(enrollments, date(2024, 1, 10), "", model.RoleManager)
	if len(visible) != 1 || visible[0].StudentID != "stu-early" {
		t.Fatalf("1月10日应只有 stu-early 在班，实际 %+v", visible)
	}

	visible = FilterRoster(enrollments, date(2024, 1, 25), "", model.RoleManager)
	if len(visible) != 2 {
		t.Fatalf("1月25日应两人都在班，实际 %d 人", len(visible))
	}
}

func TestFilterRoster_StudentSeesOnlySelf(t *testing.T) {
	enrollments := []model.Enrollment{
		{StudentID: "stu-1", EnrolledAt: date(2024, 1, 1)},
		{StudentID: "stu-2", EnrolledAt: date(2024, 1, 1)},
	}

	visible := FilterRoster(enrollments, date(2024, 1, 10), "stu-2", model.RoleStudent)
	if len(visible) != 1 || visible[0].StudentID != "stu-2" {
		t.Fatalf("学员应只看到本人，实际 %+v", visible)
	}
}

// ── CanCancel 测试 ──

func TestCanCancel(t *testing.T) {
	times := &model.TimeRange{StartTime: "18:00", EndTime: "19:30"}
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) // 周三中午

	if !CanCancel(date(2024, 1, 17), times, now) {
		t.Error("未来的上课日应允许停课")
	}
	if CanCancel(date(2024, 1, 3), times, now) {
		t.Error("过去的上课日不应允许停课")
	}
	if !CanCancel(date(2024, 1, 10), times, now) {
		t.Error("当天未到上课时间应允许停课")
	}

	afterStart := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	if CanCancel(date(2024, 1, 10), times, afterStart) {
		t.Error("已到上课时间不应允许停课")
	}
}

func TestCanCancel_TodayWithoutScheduleTime(t *testing.T) {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	if CanCancel(date(2024, 1, 10), nil, now) {
		t.Error("当天无时段配置不应允许停课")
	}
	if CanCancel(date(2024, 1, 10), &model.TimeRange{}, now) {
		t.Error("当天时段为空不应允许停课")
	}
}

// ── ClassifyDate 测试 ──

func TestClassifyDate(t *testing.T) {
	today := date(2024, 1, 3) // 周三

	cases := []struct {
		name     string
		d        time.Time
		want     string
		wantDays int
	}{
		{"当天", date(2024, 1, 3), BadgeToday, 0},
		{"明天", date(2024, 1, 4), BadgeTomorrow, 0},
		{"本周六", date(2024, 1, 6), BadgeDays, 3},
		{"下周一", date(2024, 1, 8), BadgeNextWeek, 0},
		{"下周六", date(2024, 1, 13), BadgeNextWeek, 0},
		{"下下周", date(2024, 1, 14), BadgeNone, 0},
		{"昨天", date(2024, 1, 2), BadgeNone, 0},
	}
	for _, tc := range cases {
		badge, days := ClassifyDate(tc.d, today)
		if badge != tc.want || days != tc.wantDays {
			t.Errorf("%s: 期望 (%s, %d)，实际 (%s, %d)", tc.name, tc.want, tc.wantDays, badge, days)
		}
	}
}

func TestClassifyDate_SundayStartsWeek(t *testing.T) {
	today := date(2024, 1, 6) // 周六，本周最后一天

	// 明天是周日，已属下一周，但"明天"优先
	badge, _ := ClassifyDate(date(2024, 1, 7), today)
	if badge != BadgeTomorrow {
		t.Errorf("周六的次日应为 tomorrow，实际 %s", badge)
	}

	// 下周一到下周六属 next_week
	badge, _ = ClassifyDate(date(2024, 1, 8), today)
	if badge != BadgeNextWeek {
		t.Errorf("下周一应为 next_week，实际 %s", badge)
	}
	badge, _ = ClassifyDate(date(2024, 1, 13), today)
	if badge != BadgeNextWeek {
		t.Errorf("下周六应为 next_week，实际 %s", badge)
	}
	badge, _ = ClassifyDate(date(2024, 1, 14), today)
	if badge != BadgeNone {
		t.Errorf("隔周周日应为 none，实际 %s", badge)
	}
}
