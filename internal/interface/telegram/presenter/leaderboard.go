package presenter

import (
	"fmt"
	"strings"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PRESENTER
// Formats the /top reply.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardPresenter formats leaderboard replies.
type LeaderboardPresenter struct{}

// NewLeaderboardPresenter creates a new LeaderboardPresenter.
func NewLeaderboardPresenter() *LeaderboardPresenter {
	return &LeaderboardPresenter{}
}

// Top formats the ranked rows for the requested window.
func (p *LeaderboardPresenter) Top(window leaderboard.Window, rows []leaderboard.Row) string {
	if len(rows) == 0 {
		return "📭 هنوز کسی امتیازی نگرفته. اولین نفر باش!"
	}

	var b strings.Builder
	if window == leaderboard.WindowWeekly {
		b.WriteString("🏆 برترین‌های این هفته\n\n")
	} else {
		b.WriteString("🏆 برترین‌های این ماه\n\n")
	}
	writeRows(&b, rows, 0)
	return b.String()
}

// Unavailable is the fallback when the leaderboard cannot be loaded.
func (p *LeaderboardPresenter) Unavailable() string {
	return "❌ جدول رده‌بندی فعلاً در دسترس نیست. چند دقیقه دیگر دوباره امتحان کن."
}

// usage hints and shared texts

// Welcome is the /start reply.
func Welcome(name string) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "سلام %s! 👋\n\n", name)
	} else {
		b.WriteString("سلام! 👋\n\n")
	}
	b.WriteString("من همیار درس گروهم. فعالیت روزانه‌ات را برایم بفرست تا امتیازت را حساب کنم:\n\n")
	b.WriteString(CommandList())
	b.WriteString("\nهر شب ساعت ۲۲ نتیجه روز در گروه اعلام می‌شود. 🌙")
	return b.String()
}

// CommandList lists the member-facing commands.
func CommandList() string {
	return "📚 /study N — ثبت N ساعت مطالعه\n" +
		"📝 /test N — ثبت N تست\n" +
		"✅ /report — ثبت حضور امروز\n" +
		"📋 /score — امتیازهای خودت\n" +
		"🏆 /top — برترین‌های ماه\n"
}

// UsageStudy is the /study usage hint.
func UsageStudy() string {
	return "✍️ تعداد ساعت را بعد از دستور بنویس.\nمثلاً: /study 2"
}

// UsageTests is the /test usage hint.
func UsageTests() string {
	return "✍️ تعداد تست را بعد از دستور بنویس.\nمثلاً: /test 30"
}

// InvalidNumber rejects a non-numeric or negative argument.
func InvalidNumber() string {
	return "❌ یک عدد صحیح و نامنفی بفرست."
}

// GenericError is the fallback error reply.
func GenericError() string {
	return "😔 مشکلی پیش آمد. چند لحظه دیگر دوباره امتحان کن."
}

// AdminOnly rejects a privileged command from a non-admin.
func AdminOnly() string {
	return "⛔ این دستور فقط برای مدیران گروه است."
}

// AdminCheckFailed reports that the admin check itself did not complete.
func AdminCheckFailed() string {
	return "⚠️ نتوانستم وضعیت مدیریتی‌ات را بررسی کنم. دوباره امتحان کن."
}

// GroupOnly rejects a group-only command sent in private.
func GroupOnly() string {
	return "ℹ️ این دستور فقط داخل گروه کار می‌کند."
}

// RollupTriggered confirms a manual rollup run.
func RollupTriggered() string {
	return "⏳ جمع‌بندی دستی شروع شد…"
}

// RollupAlreadyDone reports that the period was already rolled up.
func RollupAlreadyDone() string {
	return "ℹ️ جمع‌بندی این دوره قبلاً انجام شده."
}

// RollupNothingToDo reports an empty period.
func RollupNothingToDo() string {
	return "📭 فعالیتی برای جمع‌بندی ثبت نشده."
}

// RateLimited asks a spamming user to slow down.
func RateLimited(seconds int) string {
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("⏳ کمی آرام‌تر!\n%d ثانیه دیگر دوباره امتحان کن.", seconds)
}
