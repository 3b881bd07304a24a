package scheduler

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"EquityLens/internal/analytics"
	"EquityLens/internal/config"
	"EquityLens/internal/model"
	"EquityLens/internal/notifier"
)

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/cmd@BotName" in group chats
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch name {
	case "/summary", "/start":
		return s.summary()
	case "/monthly":
		res, err := s.Manager.Active()
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatMonthlyMatrix(analytics.MonthlyMatrix(res.MonthlyReturns))
	case "/mc":
		snap, err := s.Manager.Snapshot()
		if err != nil {
			return errorReply(err)
		}
		var ps *model.PathStats
		if stats, err := s.Manager.PathStats("", "", ""); err == nil {
			ps = &stats
		}
		return notifier.FormatMCSummary(snap.MCSummary, ps)
	case "/settings":
		return notifier.FormatSettings(s.Manager.Settings())
	case "/refresh":
		if err := s.Manager.Reload(s.Ctx); err != nil {
			return errorReply(err)
		}
		return s.summary()
	case "/scenario", "/bet", "/capital", "/asset", "/path":
		if len(args) != 1 {
			return fmt.Sprintf("usage: %s VALUE\n\n%s", html.EscapeString(name), notifier.FormatHelp())
		}
		return s.applySetting(name, args[0])
	default:
		return notifier.FormatHelp()
	}
}

// applySetting changes one setting and replies with the new summary.
func (s *Scheduler) applySetting(name, value string) string {
	next := s.Manager.Settings()
	switch name {
	case "/scenario":
		next.Scenario = analytics.Scenario(value)
	case "/asset":
		next.AssetFilter = value
	case "/path":
		next.MCPathKey = value
	case "/bet", "/capital":
		v, err := strconv.ParseFloat(strings.TrimPrefix(value, "$"), 64)
		if err != nil {
			return "❌ " + html.EscapeString(fmt.Sprintf("invalid amount %q", value))
		}
		if name == "/bet" {
			next.BetSize = v
		} else {
			next.StartingCapital = v
		}
	}
	return s.apply(next)
}

func (s *Scheduler) apply(next config.Settings) string {
	_, reverted, err := s.Manager.Apply(next)
	if err != nil {
		return errorReply(err)
	}
	var b strings.Builder
	if len(reverted) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ reverted to default: %s\n\n", strings.Join(reverted, ", ")))
	}
	b.WriteString(s.summary())
	return b.String()
}

// errorReply renders err for an HTML-mode message.
func errorReply(err error) string {
	return "❌ " + html.EscapeString(err.Error())
}
