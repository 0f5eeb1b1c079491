package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"classflow/backend/internal/dto"
)

// stubCalendar 可控的 CalendarService 桩：每次 Feed 先上报请求再阻塞等待放行。
type stubCalendar struct {
	calls   chan *dto.CalendarFeedRequest
	release chan struct{}
}

func newStubCalendar() *stubCalendar {
	return &stubCalendar{
		calls:   make(chan *dto.CalendarFeedRequest, 16),
		release: make(chan struct{}, 16),
	}
}

func (s *stubCalendar) Feed(_ context.Context, req *dto.CalendarFeedRequest) (*dto.CalendarFeedResponse, error) {
	s.calls <- req
	<-s.release
	return &dto.CalendarFeedResponse{From: req.From, To: req.To}, nil
}

func (s *stubCalendar) ExportICS(_ context.Context, _ *dto.CalendarFeedRequest) (string, error) {
	return "", nil
}

type feedResult struct {
	feed    *dto.CalendarFeedResponse
	applied bool
}

func setupFeedController(debounce time.Duration) (*FeedController, *stubCalendar, chan feedResult) {
	stub := newStubCalendar()
	ctrl := NewFeedController(stub, 7, debounce, zap.NewNop())
	results := make(chan feedResult, 16)
	ctrl.SetUpdateFunc(func(feed *dto.CalendarFeedResponse, applied bool) {
		results <- feedResult{feed: feed, applied: applied}
	})
	return ctrl, stub, results
}

func waitResult(t *testing.T, results chan feedResult) feedResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("等待流更新超时")
		return feedResult{}
	}
}

// ── 防抖测试 ──

func TestFeedController_DebounceCollapsesNavigation(t *testing.T) {
	ctrl, stub, _ := setupFeedController(80 * time.Millisecond)
	defer ctrl.Stop()

	// 静默期内连续翻三页，只应触发最后一次抓取
	ctrl.Next()
	ctrl.Next()
	ctrl.Next()
	start, _ := ctrl.Window()

	var req *dto.CalendarFeedRequest
	select {
	case req = <-stub.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("等待抓取超时")
	}
	stub.release <- struct{}{}

	if req.From != DateKey(start) {
		t.Errorf("应只为最终窗口抓取，期望 from=%s，实际 %s", DateKey(start), req.From)
	}

	// 确认没有多余的抓取
	select {
	case extra := <-stub.calls:
		t.Errorf("静默期内不应有多余抓取: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

// ── 过期丢弃测试 ──

func TestFeedController_DiscardsStaleFetch(t *testing.T) {
	ctrl, stub, results := setupFeedController(time.Millisecond)
	defer ctrl.Stop()

	ctrl.JumpTo(date(2024, 3, 4))
	<-stub.calls // 第一次抓取已在途

	ctrl.JumpTo(date(2024, 6, 3))
	<-stub.calls // 第二次抓取已在途
	startB, _ := ctrl.Window()

	// 放行两次抓取，完成顺序不限
	stub.release <- struct{}{}
	stub.release <- struct{}{}

	r1 := waitResult(t, results)
	r2 := waitResult(t, results)

	var appliedCount int
	for _, r := range []feedResult{r1, r2} {
		if r.applied {
			appliedCount++
			if r.feed.From != DateKey(startB) {
				t.Errorf("生效的流应属于当前窗口 %s，实际 %s", DateKey(startB), r.feed.From)
			}
		}
	}
	if appliedCount != 1 {
		t.Fatalf("两次抓取应恰好一次生效，实际 %d 次", appliedCount)
	}

	if cur := ctrl.Current(); cur == nil || cur.From != DateKey(startB) {
		t.Errorf("当前流应为新窗口的结果: %+v", cur)
	}
}

func TestFeedController_KeepsPreviousFeedWhilePending(t *testing.T) {
	ctrl, stub, results := setupFeedController(time.Millisecond)
	defer ctrl.Stop()

	// 第一个窗口正常完成
	ctrl.JumpTo(date(2024, 3, 4))
	<-stub.calls
	stub.release <- struct{}{}
	first := waitResult(t, results)
	if !first.applied {
		t.Fatal("第一次抓取应生效")
	}

	// 切到新窗口，抓取在途期间旧流保持可见
	ctrl.JumpTo(date(2024, 6, 3))
	<-stub.calls
	if cur := ctrl.Current(); cur == nil || cur.From != first.feed.From {
		t.Errorf("抓取在途时应保留旧流，实际: %+v", cur)
	}

	stub.release <- struct{}{}
	second := waitResult(t, results)
	if !second.applied {
		t.Fatal("第二次抓取应生效")
	}
}

// ── 窗口导航测试 ──

func TestFeedController_WindowNavigation(t *testing.T) {
	ctrl, _, _ := setupFeedController(time.Hour) // 不触发抓取
	defer ctrl.Stop()

	start0, end0 := ctrl.Window()
	if int(start0.Weekday()) != 0 {
		t.Errorf("初始窗口应从周日开始，实际 weekday=%d", int(start0.Weekday()))
	}
	if days := int(end0.Sub(start0).Hours() / 24); days != 7 {
		t.Errorf("窗口应为 7 天，实际 %d 天", days)
	}

	ctrl.Next()
	start1, _ := ctrl.Window()
	if !start1.Equal(start0.AddDate(0, 0, 7)) {
		t.Errorf("Next 应后移一页: %s → %s", DateKey(start0), DateKey(start1))
	}

	ctrl.Prev()
	ctrl.Prev()
	start2, _ := ctrl.Window()
	if !start2.Equal(start0.AddDate(0, 0, -7)) {
		t.Errorf("Prev 应前移一页: 实际 %s", DateKey(start2))
	}

	ctrl.Today()
	start3, end3 := ctrl.Window()
	today := DateOnly(time.Now())
	if today.Before(start3) || !today.Before(end3) {
		t.Errorf("Today 后窗口应包含今天: [%s, %s)", DateKey(start3), DateKey(end3))
	}

	ctrl.JumpTo(date(2024, 6, 5)) // 周三
	start4, _ := ctrl.Window()
	if DateKey(start4) != "2024-06-02" {
		t.Errorf("JumpTo 应对齐到该周周日，实际 %s", DateKey(start4))
	}
}
