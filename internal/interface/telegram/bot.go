package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/application/query"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/external/telegram"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/handler"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/middleware"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// GroupChatID is the study group chat for announcements and the admin
	// check. Supergroup ids are negative.
	GroupChatID int64

	// PollingTimeout is the long-polling timeout in seconds.
	PollingTimeout int

	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout bounds the wait for in-flight handlers on Stop.
	GracefulShutdownTimeout time.Duration
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig(token string, groupChatID int64) BotConfig {
	return BotConfig{
		Token:                   token,
		GroupChatID:             groupChatID,
		PollingTimeout:          30,
		MaxConcurrentUpdates:    100,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// BotDependencies contains the application-layer dependencies for the bot.
type BotDependencies struct {
	// Commands
	RecordActivityCmd *command.RecordActivityHandler
	DailyRollupCmd    *command.RunDailyRollupHandler
	WeeklyRollupCmd   *command.RunWeeklyRollupHandler
	MonthlyRollupCmd  *command.RunMonthlyRollupHandler

	// Queries
	ScoreSummaryQuery *query.GetScoreSummaryHandler
	LeaderboardQuery  *query.GetLeaderboardHandler

	// Rules is the scoring rule set (for reply texts that mention it).
	Rules ledger.Rules
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the Telegram bot controller.
type Bot struct {
	config BotConfig
	client *telegram.Client
	router *Router
	logger *slog.Logger

	adminGate   *middleware.AdminGate
	rateLimiter *middleware.RateLimiter
	recovery    *middleware.RecoveryMiddleware

	running   bool
	runningMu sync.RWMutex
	updateSem chan struct{}
	wg        sync.WaitGroup

	stats *BotStats
}

// BotStats holds runtime statistics.
type BotStats struct {
	mu              sync.RWMutex
	StartedAt       time.Time
	UpdatesReceived int64
	UpdatesHandled  int64
	ErrorsCount     int64
	CommandsCount   map[string]int64
}

// adminCommands require group-admin status.
var adminCommands = map[string]bool{
	"rollup": true,
}

// NewBot creates a new Telegram bot with all dependencies wired.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	if config.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if config.GroupChatID == 0 {
		return nil, errors.New("group chat id is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = 100
	}

	clientConfig := telegram.DefaultClientConfig(config.Token)
	clientConfig.Logger = config.Logger
	client := telegram.NewClient(clientConfig)

	scores := presenter.NewScorePresenter()
	boards := presenter.NewLeaderboardPresenter()

	startHandler := handler.NewStartHandler()
	studyHandler := handler.NewStudyHandler(deps.RecordActivityCmd, scores)
	testHandler := handler.NewTestHandler(deps.RecordActivityCmd, scores, deps.Rules)
	reportHandler := handler.NewReportHandler(deps.RecordActivityCmd, scores)
	scoreHandler := handler.NewScoreHandler(deps.ScoreSummaryQuery, scores)
	topHandler := handler.NewTopHandler(deps.LeaderboardQuery, boards)
	rollupHandler := handler.NewRollupHandler(deps.DailyRollupCmd, deps.WeeklyRollupCmd, deps.MonthlyRollupCmd)

	router := NewRouter(RouterConfig{
		Logger: config.Logger,
		Debug:  config.Debug,
	})

	router.RegisterCommand("start", startHandler)
	router.RegisterCommand("help", startHandler)
	router.RegisterCommand("study", studyHandler)
	router.RegisterCommand("test", testHandler)
	router.RegisterCommand("report", reportHandler)
	router.RegisterCommand("score", scoreHandler)
	router.RegisterCommand("top", topHandler)
	router.RegisterCommand("rollup", rollupHandler)

	gateConfig := middleware.DefaultAdminGateConfig(config.GroupChatID)
	gateConfig.Logger = config.Logger

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = config.Logger

	return &Bot{
		config:      config,
		client:      client,
		router:      router,
		logger:      config.Logger,
		adminGate:   middleware.NewAdminGate(client, gateConfig),
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
		recovery:    middleware.NewRecoveryMiddleware(recoveryConfig),
		updateSem:   make(chan struct{}, config.MaxConcurrentUpdates),
		stats: &BotStats{
			CommandsCount: make(map[string]int64),
		},
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start verifies the token and begins long polling. Blocks until the context
// is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.stats.StartedAt = time.Now()
	b.runningMu.Unlock()

	b.logger.Info("starting telegram bot", "group_chat_id", b.config.GroupChatID)

	if err := b.verifyToken(ctx); err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}

	return b.client.StartPolling(ctx, func(ctx context.Context, update *telegram.Update) error {
		return b.handleUpdate(ctx, update)
	})
}

// Stop gracefully stops the bot, waiting for in-flight handlers.
func (b *Bot) Stop(ctx context.Context) error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	b.logger.Info("stopping telegram bot")
	b.rateLimiter.Stop()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed")
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// IsRunning reports whether the bot is running.
func (b *Bot) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// verifyToken verifies the bot token by calling getMe.
func (b *Bot) verifyToken(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}

	b.logger.Info("bot verified", "id", me.ID, "username", me.Username)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUP ANNOUNCER
// ══════════════════════════════════════════════════════════════════════════════

// AnnounceToGroup posts a rollup announcement to the configured group chat.
// Implements eventhandler.GroupAnnouncer.
func (b *Bot) AnnounceToGroup(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	_, err := b.client.SendText(ctx, b.config.GroupChatID, text)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// handleUpdate processes a single Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) error {
	select {
	case b.updateSem <- struct{}{}:
		defer func() { <-b.updateSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	defer b.wg.Done()

	b.stats.mu.Lock()
	b.stats.UpdatesReceived++
	b.stats.mu.Unlock()

	start := time.Now()

	var err error
	if update.Message != nil {
		err = b.handleMessage(ctx, update.Message)
	}

	b.stats.mu.Lock()
	if err != nil {
		b.stats.ErrorsCount++
	} else {
		b.stats.UpdatesHandled++
	}
	b.stats.mu.Unlock()

	if err != nil {
		b.logger.Error("failed to handle update",
			"update_id", update.UpdateID,
			"error", err,
			"duration", time.Since(start),
		)
	}

	return err
}

// handleMessage processes a Telegram message. Non-command messages are
// ignored; the ledger only changes through explicit commands.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return nil
	}

	cmd := telegram.ExtractCommand(msg)
	if cmd == "" {
		return nil
	}
	args := telegram.ExtractCommandArgs(msg)

	return b.handleCommand(ctx, cmd, args, msg)
}

// handleCommand runs the middleware chain and routes the command.
func (b *Bot) handleCommand(ctx context.Context, cmd, args string, msg *telegram.Message) error {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.stats.mu.Lock()
	b.stats.CommandsCount[cmd]++
	b.stats.mu.Unlock()

	limit := b.rateLimiter.Check(ctx, userID)
	if !limit.Allowed {
		return b.reply(ctx, chatID, presenter.RateLimited(int(limit.RetryAfter.Seconds())))
	}

	if adminCommands[cmd] {
		if !telegram.IsGroupChat(msg) {
			return b.reply(ctx, chatID, presenter.GroupOnly())
		}
		authz := b.adminGate.Check(ctx, userID)
		switch authz.Status {
		case shared.Authorized:
		case shared.Unauthorized:
			return b.reply(ctx, chatID, presenter.AdminOnly())
		default:
			return b.reply(ctx, chatID, presenter.AdminCheckFailed())
		}
	}

	cmdCtx := CommandContext{
		UserID:      userID,
		ChatID:      chatID,
		MessageID:   msg.MessageID,
		DisplayName: msg.From.FullName(),
		Args:        args,
		Message:     msg,
	}

	var resp *handler.Response
	panicInfo, err := b.recovery.Recover(ctx, userID, cmd, func() error {
		var handleErr error
		resp, handleErr = b.router.HandleCommand(ctx, cmd, cmdCtx)
		return handleErr
	})

	if panicInfo != nil {
		return b.reply(ctx, chatID, presenter.GenericError())
	}
	if err != nil {
		// The handler already chose a user-facing text; log the cause.
		b.logger.Error("command failed", "command", cmd, "user_id", userID, "error", err)
	}
	if resp == nil || resp.Text == "" {
		return nil
	}

	return b.reply(ctx, chatID, resp.Text)
}

// reply sends a text reply to a chat.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	_, err := b.client.SendText(ctx, chatID, text)
	return err
}

// Stats returns a snapshot of the runtime statistics.
func (b *Bot) Stats() map[string]interface{} {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	commands := make(map[string]int64, len(b.stats.CommandsCount))
	for k, v := range b.stats.CommandsCount {
		commands[k] = v
	}

	return map[string]interface{}{
		"started_at":       b.stats.StartedAt,
		"updates_received": b.stats.UpdatesReceived,
		"updates_handled":  b.stats.UpdatesHandled,
		"errors":           b.stats.ErrorsCount,
		"commands":         commands,
	}
}
