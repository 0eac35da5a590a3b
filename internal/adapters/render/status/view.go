package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

type RenderOptions struct {
	Now        time.Time
	StaleAfter time.Duration
}

func renderView(infos []domain.AccountInfo, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Oracle Validator Accounts"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(infos))),
	}

	if len(infos) == 0 {
		lines = append(lines, s.empty.Render("No account snapshots available."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, info := range infos {
		lines = append(lines, s.section.Render(renderAccount(info, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(info domain.AccountInfo, opts RenderOptions, s styles) string {
	parts := []string{
		s.account.Render(accountTitle(info)),
		counterLine(info, opts, s),
	}
	if line := verifiedLine(info, s); line != "" {
		parts = append(parts, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func accountTitle(info domain.AccountInfo) string {
	email := strings.TrimSpace(info.Email)
	if email == "" {
		email = "(unknown)"
	}
	if info.UserID == "" {
		return fmt.Sprintf("Account: %s", email)
	}
	return fmt.Sprintf("Account: %s (%s)", email, info.UserID)
}

func counterLine(info domain.AccountInfo, opts RenderOptions, s styles) string {
	stats := info.Stats
	total := stats.ValidCount + stats.InvalidCount

	label := s.counterKey.Render("validations:")
	bar := renderRatioBar(stats.ValidCount, total, 24, s)
	counters := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.valid.Render(fmt.Sprintf("%d valid", stats.ValidCount)),
		s.detail.Render(" / "),
		s.invalid.Render(fmt.Sprintf("%d invalid", stats.InvalidCount)),
	)

	line := lipgloss.JoinHorizontal(lipgloss.Top, label, " ", bar, " ", counters)

	if isStale(stats.CapturedAt, opts) {
		line += " " + s.warning.Render("[stale]")
	}
	return line
}

func verifiedLine(info domain.AccountInfo, s styles) string {
	if info.LastVerifiedAt.IsZero() {
		return ""
	}
	return s.detail.Render("verified: " + info.LastVerifiedAt.Format("2006-01-02 15:04 MST"))
}

// renderRatioBar fills proportionally to valid/total; an account with no
// validations yet renders an empty bar.
func renderRatioBar(valid, total int64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	fraction := 0.0
	if total > 0 {
		fraction = float64(valid) / float64(total)
	}
	filled := int(math.Round(float64(width) * fraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", width-filled))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func isStale(capturedAt time.Time, opts RenderOptions) bool {
	if capturedAt.IsZero() || opts.Now.IsZero() || opts.StaleAfter <= 0 {
		return false
	}
	return opts.Now.Sub(capturedAt) > opts.StaleAfter
}
