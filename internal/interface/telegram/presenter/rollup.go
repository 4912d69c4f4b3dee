// Package presenter formats bot replies and group announcements. All
// user-facing text lives here, in Persian, so handlers and the application
// layer stay free of UI strings.
package presenter

import (
	"fmt"
	"strings"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLLUP PRESENTER
// Renders the daily/weekly/monthly announcements posted to the group chat.
// Implements command.RollupPresenter.
// ══════════════════════════════════════════════════════════════════════════════

// RollupPresenter renders rollup announcements.
type RollupPresenter struct{}

// NewRollupPresenter creates a new RollupPresenter.
func NewRollupPresenter() *RollupPresenter {
	return &RollupPresenter{}
}

var _ command.RollupPresenter = (*RollupPresenter)(nil)

// DailyAnnouncement renders the end-of-day ranking and bonus summary.
func (p *RollupPresenter) DailyAnnouncement(res *command.DailyRollupResult) string {
	if res == nil || res.Empty {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 نتیجه امروز (%s)\n\n", res.Date)
	writeRows(&b, res.Rows, 0)

	if res.Repeat {
		b.WriteString("\nℹ️ جایزه‌های امروز قبلاً پرداخت شده‌اند.")
		return b.String()
	}

	if res.Winner != nil {
		fmt.Fprintf(&b, "\n🏆 برنده امروز: %s (+%d امتیاز)\n",
			res.Winner.DisplayName, res.TopBonus)
	}
	if len(res.Progressed) > 0 {
		fmt.Fprintf(&b, "📈 بهتر از دیروز (+%d امتیاز): %s\n",
			res.ProgressBonus, strings.Join(res.Progressed, "، "))
	}

	return b.String()
}

// WeeklyAnnouncement renders the end-of-week result and reset notice.
func (p *RollupPresenter) WeeklyAnnouncement(res *command.WeeklyRollupResult) string {
	if res == nil || res.Empty {
		return ""
	}
	if res.Repeat {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏁 پایان هفته %s\n\n", res.Period)
	writeRows(&b, res.Rows, 10)

	if res.Winner != nil {
		fmt.Fprintf(&b, "\n👑 قهرمان هفته: %s\n", res.Winner.DisplayName)
		if res.Bonus > 0 {
			fmt.Fprintf(&b, "🎁 %d+ امتیاز به جمع ماهانه‌اش اضافه شد.\n", res.Bonus)
		}
	}
	b.WriteString("\nشمارش هفته جدید از صفر شروع شد. موفق باشید! 💪")

	return b.String()
}

// MonthlyAnnouncement renders the end-of-month result and reset notice.
func (p *RollupPresenter) MonthlyAnnouncement(res *command.MonthlyRollupResult) string {
	if res == nil || res.Empty {
		return ""
	}
	if res.Repeat {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎉 پایان ماه %s\n\n", res.Period)
	writeRows(&b, res.Rows, 10)

	if res.Winner != nil {
		fmt.Fprintf(&b, "\n🏆 قهرمان ماه: %s\n", res.Winner.DisplayName)
	}
	b.WriteString("\nماه جدید، فرصت جدید. شمارش از صفر شروع شد. 🌱")

	return b.String()
}

// writeRows writes ranked rows with medals, at most limit when limit > 0.
func writeRows(b *strings.Builder, rows []leaderboard.Row, limit int) {
	for i, row := range rows {
		if limit > 0 && i >= limit {
			fmt.Fprintf(b, "… و %d نفر دیگر\n", len(rows)-limit)
			return
		}
		fmt.Fprintf(b, "%s %s — %d امتیاز\n", rankBadge(row.Rank), row.DisplayName, row.Points)
	}
}

// rankBadge returns the medal or numeric badge for a rank.
func rankBadge(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}
