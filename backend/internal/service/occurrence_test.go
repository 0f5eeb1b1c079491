package service

import (
	"testing"
	"time"

	"classflow/backend/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mondayWednesdayClass() *model.Class {
	return &model.Class{
		ClassID:       "class-1",
		Name:          "少儿街舞",
		RecurringDays: model.IntArray{1, 3},
		ScheduleTimes: model.ScheduleTimes{
			1: {StartTime: "18:00", EndTime: "19:30"},
			3: {StartTime: "19:00", EndTime: "20:30"},
		},
		StartDate: date(2024, 1, 1),
		Active:    true,
	}
}

// ── ExpandOccurrences 测试 ──

func TestExpandOccurrences_MondayWednesdayWithException(t *testing.T) {
	class := mondayWednesdayClass()
	exceptions := map[string]struct{}{"2024-01-08": {}}

	occurrences := ExpandOccurrences(class, exceptions, date(2024, 1, 1), date(2024, 1, 15), 366)

	want := []string{"2024-01-01", "2024-01-03", "2024-01-10", "2024-01-15"}
	if len(occurrences) != len(want) {
		t.Fatalf("期望 %d 个上课日，实际 %d 个", len(want), len(occurrences))
	}
	for i, w := range want {
		if got := DateKey(occurrences[i].Date); got != w {
			t.Errorf("第 %d 个上课日期望 %s，实际 %s", i, w, got)
		}
	}
}

func TestExpandOccurrences_CarriesScheduleTimes(t *testing.T) {
	class := mondayWednesdayClass()

	occurrences := ExpandOccurrences(class, nil, date(2024, 1, 1), date(2024, 1, 3), 366)

	if len(occurrences) != 2 {
		t.Fatalf("期望 2 个上课日，实际 %d 个", len(occurrences))
	}
	if occurrences[0].Weekday != 1 || occurrences[0].StartTime != "18:00" {
		t.Errorf("周一时段不符: weekday=%d start=%s", occurrences[0].Weekday, occurrences[0].StartTime)
	}
	if occurrences[1].Weekday != 3 || occurrences[1].EndTime != "20:30" {
		t.Errorf("周三时段不符: weekday=%d end=%s", occurrences[1].Weekday, occurrences[1].EndTime)
	}
}

func TestExpandOccurrences_EmptyRecurrence(t *testing.T) {
	class := mondayWednesdayClass()
	class.RecurringDays = model.IntArray{}

	if got := ExpandOccurrences(class, nil, date(2024, 1, 1), date(2024, 12, 31), 366); len(got) != 0 {
		t.Errorf("重复日集合为空应返回空列表，实际 %d 个", len(got))
	}
}

func TestExpandOccurrences_EndBeforeStart(t *testing.T) {
	class := mondayWednesdayClass()
	end := date(2023, 12, 1)
	class.EndDate = &end

	if got := ExpandOccurrences(class, nil, date(2024, 1, 1), date(2024, 1, 31), 366); len(got) != 0 {
		t.Errorf("end_date 早于 start_date 应返回空列表，实际 %d 个", len(got))
	}
}

func TestExpandOccurrences_ClampsToClassBounds(t *testing.T) {
	class := mondayWednesdayClass()
	class.StartDate = date(2024, 1, 8)
	end := date(2024, 1, 10)
	class.EndDate = &end

	occurrences := ExpandOccurrences(class, nil, date(2024, 1, 1), date(2024, 1, 31), 366)

	want := []string{"2024-01-08", "2024-01-10"}
	if len(occurrences) != len(want) {
		t.Fatalf("期望 %d 个上课日，实际 %d 个", len(want), len(occurrences))
	}
	for i, w := range want {
		if got := DateKey(occurrences[i].Date); got != w {
			t.Errorf("第 %d 个上课日期望 %s，实际 %s", i, w, got)
		}
	}
}

func TestExpandOccurrences_RespectsCap(t *testing.T) {
	// end_date 为空的课程必须被条数上限截断
	class := mondayWednesdayClass()

	occurrences := ExpandOccurrences(class, nil, date(2024, 1, 1), date(2034, 1, 1), 10)

	if len(occurrences) != 10 {
		t.Fatalf("期望截断到 10 个，实际 %d 个", len(occurrences))
	}
}

func TestExpandOccurrences_AllDatesValid(t *testing.T) {
	class := mondayWednesdayClass()
	exceptions := map[string]struct{}{"2024-01-08": {}, "2024-01-17": {}}

	occurrences := ExpandOccurrences(class, exceptions, date(2024, 1, 1), date(2024, 2, 29), 366)

	for _, occ := range occurrences {
		if !class.RecurringDays.Contains(occ.Weekday) {
			t.Errorf("%s 的 weekday=%d 不在重复日集合内", DateKey(occ.Date), occ.Weekday)
		}
		if _, cancelled := exceptions[DateKey(occ.Date)]; cancelled {
			t.Errorf("%s 已停课，不应出现在展开结果中", DateKey(occ.Date))
		}
		if occ.Date.Before(class.StartDate) {
			t.Errorf("%s 早于开课日", DateKey(occ.Date))
		}
	}
}

// ── IsOccurrenceDate 测试 ──

func TestIsOccurrenceDate(t *testing.T) {
	class := mondayWednesdayClass()
	end := date(2024, 6, 30)
	class.EndDate = &end

	cases := []struct {
		name string
		d    time.Time
		want bool
	}{
		{"区间内的周一", date(2024, 1, 8), true},
		{"区间内的周三", date(2024, 1, 10), true},
		{"区间内的周二", date(2024, 1, 9), false},
		{"开课日之前", date(2023, 12, 25), false},
		{"结课日之后", date(2024, 7, 1), false},
	}
	for _, tc := range cases {
		if got := IsOccurrenceDate(class, tc.d); got != tc.want {
			t.Errorf("%s: 期望 %v，实际 %v", tc.name, tc.want, got)
		}
	}
}
