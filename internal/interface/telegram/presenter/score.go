package presenter

import (
	"fmt"
	"strings"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE PRESENTER
// Formats private replies for /study, /test, /report and /score.
// ══════════════════════════════════════════════════════════════════════════════

// ScorePresenter formats activity and score replies.
type ScorePresenter struct{}

// NewScorePresenter creates a new ScorePresenter.
func NewScorePresenter() *ScorePresenter {
	return &ScorePresenter{}
}

// StudyRecorded formats the reply after recording study hours.
func (p *ScorePresenter) StudyRecorded(hours, delta, todayPoints int) string {
	return fmt.Sprintf(
		"📚 %d ساعت مطالعه ثبت شد.\n⚡ %d+ امتیاز گرفتی.\n📊 امتیاز امروزت: %d",
		hours, delta, todayPoints,
	)
}

// TestsRecorded formats the reply after recording practice tests. When the
// increment earned nothing (below a full test block) it says so instead of
// celebrating zero.
func (p *ScorePresenter) TestsRecorded(tests, delta, todayPoints int, blockSize int) string {
	if delta == 0 {
		return fmt.Sprintf(
			"📝 %d تست ثبت شد.\nℹ️ امتیاز تست‌ها به ازای هر %d تست در مجموع روز حساب می‌شود.\n📊 امتیاز امروزت: %d",
			tests, blockSize, todayPoints,
		)
	}
	return fmt.Sprintf(
		"📝 %d تست ثبت شد.\n⚡ %d+ امتیاز گرفتی.\n📊 امتیاز امروزت: %d",
		tests, delta, todayPoints,
	)
}

// PresenceRecorded formats the reply after recording daily presence.
func (p *ScorePresenter) PresenceRecorded(delta, todayPoints int) string {
	if delta == 0 {
		return fmt.Sprintf("✅ حضور امروزت قبلاً ثبت شده.\n📊 امتیاز امروزت: %d", todayPoints)
	}
	return fmt.Sprintf("✅ حضور امروزت ثبت شد.\n⚡ %d+ امتیاز گرفتی.\n📊 امتیاز امروزت: %d", delta, todayPoints)
}

// AlreadyReported formats the once-per-day rejection, echoing what stands.
func (p *ScorePresenter) AlreadyReported(todayPoints int) string {
	return fmt.Sprintf("⛔ امروز قبلاً گزارش دادی!\n📊 امتیاز ثبت‌شده امروزت: %d", todayPoints)
}

// Summary formats the /score reply.
func (p *ScorePresenter) Summary(s *query.ScoreSummary) string {
	if s == nil || !s.Registered {
		return "🤔 هنوز فعالیتی ثبت نکرده‌ای!\nبا /study شروع کن یا با /help راهنما را ببین."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 امتیازهای %s\n\n", s.DisplayName)
	fmt.Fprintf(&b, "📅 امروز (%s): %d\n", s.Date, s.TodayPoints)
	fmt.Fprintf(&b, "🗓 این هفته: %d\n", s.WeeklyTotal)
	fmt.Fprintf(&b, "📆 این ماه: %d", s.MonthlyTotal)
	return b.String()
}
