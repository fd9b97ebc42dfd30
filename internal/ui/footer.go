package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/trackdeck/internal/player"
	"github.com/glebovdev/trackdeck/internal/track"
	"github.com/rivo/tview"
)

type StatusRenderer struct {
	snapshot      player.Snapshot
	animFrame     int
	maxAnimFrame  int
	tickCount     int
	ticksPerFrame int

	primaryColor string
	errorColor   string
}

func NewStatusRenderer() *StatusRenderer {
	return &StatusRenderer{
		maxAnimFrame:  4,
		ticksPerFrame: 8, // 8 ticks per frame at 10 FPS
	}
}

func (s *StatusRenderer) Update(snap player.Snapshot) {
	s.snapshot = snap
}

func (s *StatusRenderer) SetPrimaryColor(color string) {
	s.primaryColor = color
}

func (s *StatusRenderer) SetErrorColor(color string) {
	s.errorColor = color
}

func (s *StatusRenderer) AdvanceAnimation() {
	s.tickCount++
	if s.tickCount >= s.ticksPerFrame {
		s.tickCount = 0
		s.animFrame = (s.animFrame + 1) % s.maxAnimFrame
	}
}

func (s *StatusRenderer) Render() string {
	switch s.snapshot.State {
	case player.StateLoading:
		return s.renderLoading()
	case player.StateReady:
		return s.renderReady()
	case player.StatePlaying:
		return s.renderPlaying()
	case player.StatePaused:
		return s.renderPaused()
	case player.StateErrored:
		return s.renderError()
	default:
		return s.renderIdle()
	}
}

func (s *StatusRenderer) mutedPart() []string {
	if s.snapshot.IsMuted {
		return []string{"[red]MUTED[-]"}
	}
	return nil
}

func (s *StatusRenderer) renderIdle() string {
	hint := "Select a track"
	if len(s.snapshot.Tracks) == 0 {
		hint = "No matching tracks"
	}
	parts := append([]string{"○ IDLE"}, s.mutedPart()...)
	return joinParts(append(parts, hint))
}

func (s *StatusRenderer) renderLoading() string {
	circles := []string{"◐", "◓", "◑", "◒"}
	return joinParts(append([]string{circles[s.animFrame] + " LOADING"}, s.mutedPart()...))
}

func (s *StatusRenderer) renderReady() string {
	return joinParts(append([]string{"◎ READY"}, s.mutedPart()...))
}

func (s *StatusRenderer) renderPlaying() string {
	dots := []string{"●", "◉", "○", "◉"}
	dot := dots[s.animFrame]

	if s.primaryColor != "" {
		dot = fmt.Sprintf("[%s]%s[-]", s.primaryColor, dot)
	}

	parts := append([]string{dot + " PLAYING"}, s.mutedPart()...)
	return joinParts(append(parts, s.renderPosition()))
}

func (s *StatusRenderer) renderPaused() string {
	parts := append([]string{PauseIcon + " PAUSED"}, s.mutedPart()...)
	return joinParts(append(parts, s.renderPosition()))
}

func (s *StatusRenderer) renderPosition() string {
	p := s.snapshot.Progress
	if !p.DurationKnown {
		return track.FormatTime(p.CurrentTime)
	}
	return track.FormatTime(p.CurrentTime) + " / " + track.FormatTime(p.Duration)
}

func (s *StatusRenderer) renderError() string {
	errMsg := s.snapshot.LastError
	if errMsg == "" {
		errMsg = "ERROR"
	}
	if s.errorColor != "" {
		return fmt.Sprintf("[%s]✗ %s[-]", s.errorColor, errMsg)
	}
	return "✗ " + errMsg
}

func joinParts(parts []string) string {
	return strings.Join(parts, " │ ")
}

func getPlaybackHint(state player.PlayerState, keyColor string) string {
	switch state {
	case player.StatePaused, player.StateReady:
		return fmt.Sprintf("[%s]Enter[-] play  [%s]Space[-] resume", keyColor, keyColor)
	case player.StatePlaying, player.StateLoading:
		return fmt.Sprintf("[%s]Enter[-] play  [%s]Space[-] pause", keyColor, keyColor)
	default:
		return fmt.Sprintf("[%s]Space[-] play", keyColor)
	}
}

func (ui *UI) getHelpText() string {
	keyColor := ui.colors.helpHotkey.String()
	snap := ui.currentSnapshot()
	playbackHint := getPlaybackHint(snap.State, keyColor)

	muteText := "mute"
	if snap.IsMuted {
		muteText = "unmute"
	}

	return fmt.Sprintf(" %s  [%s]←/→[-] track  [%s]↑/↓[-] vol  [%s]m[-] %s  [%s]/[-] search  [%s]?[-] help  [%s]q[-] quit ",
		playbackHint, keyColor, keyColor, keyColor, muteText, keyColor, keyColor, keyColor)
}

func (ui *UI) handleFooterResize(width int) {
	isWide := width >= FooterBreakpoint
	wasWide := ui.lastFooterWidth >= FooterBreakpoint

	if ui.lastFooterWidth > 0 && isWide != wasWide && ui.contentLayout != nil {
		newHeight := FooterHeightWide
		if !isWide {
			newHeight = FooterHeightNarrow
		}
		ui.contentLayout.ResizeItem(ui.helpPanel, newHeight, 0)
	}
	ui.lastFooterWidth = width
}

func (ui *UI) fillRect(screen tcell.Screen, x, y, width, height int, bg tcell.Color) {
	style := tcell.StyleDefault.Background(bg)
	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

func (ui *UI) drawWideFooter(screen tcell.Screen, x, y, width, height int, helpText, statusText string) {
	helpWidth := width * 3 / 5
	statusWidth := width - helpWidth

	ui.fillRect(screen, x, y, helpWidth, height, ui.colors.helpBackground)
	ui.fillRect(screen, x+helpWidth, y, statusWidth, height, ui.colors.background)

	centerY := y + height/2
	tview.Print(screen, helpText, x, centerY, helpWidth, tview.AlignCenter, ui.colors.helpForeground)
	tview.Print(screen, statusText, x+helpWidth, centerY, statusWidth-2, tview.AlignRight, ui.colors.foreground)
}

func (ui *UI) drawNarrowFooter(screen tcell.Screen, x, y, width, height int, helpText, statusText string) {
	helpHeight := max(height/2, 1)
	statusHeight := height - helpHeight
	helpBoxEnd := y + helpHeight

	ui.fillRect(screen, x, y, width, helpHeight, ui.colors.helpBackground)
	ui.fillRect(screen, x, helpBoxEnd, width, statusHeight, ui.colors.background)

	tview.Print(screen, helpText, x, y+helpHeight/2, width, tview.AlignCenter, ui.colors.helpForeground)

	if statusHeight > 0 {
		tview.Print(screen, statusText, x, helpBoxEnd+statusHeight/2, width-2, tview.AlignRight, ui.colors.foreground)
	}
}

func (ui *UI) createFooter() *tview.Box {
	box := tview.NewBox().SetBackgroundColor(ui.colors.background)

	box.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		ui.handleFooterResize(width)

		helpText := ui.getHelpText()
		statusText := " " + ui.statusRenderer.Render() + " "

		isWide := width >= FooterBreakpoint
		if isWide {
			ui.drawWideFooter(screen, x, y, width, min(height, FooterHeightWide), helpText, statusText)
		} else {
			ui.drawNarrowFooter(screen, x, y, width, height, helpText, statusText)
		}

		return x, y, width, height
	})

	return box
}
