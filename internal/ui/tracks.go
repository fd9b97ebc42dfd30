package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/trackdeck/internal/player"
	"github.com/glebovdev/trackdeck/internal/track"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	maxTitleWidth  = 40
	maxArtistWidth = 30
)

func (ui *UI) createSearchField() *tview.InputField {
	field := tview.NewInputField().
		SetLabel(" / ").
		SetPlaceholder("search titles").
		SetText(ui.opts.Query)

	field.SetLabelColor(ui.colors.highlight).
		SetFieldBackgroundColor(ui.colors.background).
		SetFieldTextColor(ui.colors.foreground).
		SetPlaceholderTextColor(ui.colors.borders).
		SetBackgroundColor(ui.colors.background)

	field.SetChangedFunc(func(text string) {
		ui.engine.SetQuery(text)
	})

	field.SetDoneFunc(func(key tcell.Key) {
		ui.app.SetFocus(ui.trackTable)
	})

	return field
}

func (ui *UI) focusSearch() {
	ui.app.SetFocus(ui.searchField)
}

func (ui *UI) createTrackTable() *tview.Table {
	table := tview.NewTable().
		SetBorders(false).
		SetSeparator(' ').
		SetSelectable(true, false).
		SetFixed(1, 0)

	table.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetTitleColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background).
		SetBorderPadding(1, 0, 1, 1)

	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(ui.colors.background).
		Background(ui.colors.highlight))

	headerCell := func(text string) *tview.TableCell {
		return tview.NewTableCell(text).
			SetTextColor(ui.colors.trackListHeaderForeground).
			SetBackgroundColor(ui.colors.trackListHeaderBackground).
			SetSelectable(false)
	}

	table.SetCell(0, 0, headerCell(" ").SetMaxWidth(2))
	table.SetCell(0, 1, headerCell("#").SetAlign(tview.AlignRight))
	table.SetCell(0, 2, headerCell("Title").SetExpansion(2))
	table.SetCell(0, 3, headerCell("Artist").SetExpansion(1))

	table.SetSelectedFunc(func(row, column int) {
		ui.playRow(row)
	})

	return table
}

func (ui *UI) playRow(row int) {
	snap := ui.currentSnapshot()
	index := row - 1
	if index < 0 || index >= len(snap.Tracks) {
		return
	}
	log.Info().Msgf("Starting playback for track: %s", snap.Tracks[index].DisplayName())
	ui.engine.Select(index)
}

// truncate shortens s to width terminal cells.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func (ui *UI) setTrackRow(table *tview.Table, row int, t track.Track) {
	table.SetCell(row, 0, tview.NewTableCell(" ").
		SetTextColor(ui.colors.highlight).
		SetMaxWidth(2))

	table.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%d", row)).
		SetTextColor(ui.colors.borders).
		SetAlign(tview.AlignRight))

	table.SetCell(row, 2, tview.NewTableCell(truncate(t.Title, maxTitleWidth)).
		SetTextColor(ui.colors.foreground).
		SetExpansion(2))

	table.SetCell(row, 3, tview.NewTableCell(truncate(t.Artist, maxArtistWidth)).
		SetTextColor(ui.colors.foreground).
		SetExpansion(1))
}

func (ui *UI) refreshTrackTable(snap player.Snapshot) {
	if !ui.tableBuilt || snap.Query != ui.renderedQuery {
		ui.rebuildTrackRows(snap)
	}

	if snap.Index != ui.renderedIndex {
		ui.renderedIndex = snap.Index
		if snap.Index >= 0 {
			ui.trackTable.Select(snap.Index+1, 0)
		}
	}

	ui.updateTrackListIndicator(snap)
}

func (ui *UI) rebuildTrackRows(snap player.Snapshot) {
	for row := ui.trackTable.GetRowCount() - 1; row > 0; row-- {
		ui.trackTable.RemoveRow(row)
	}
	for i, t := range snap.Tracks {
		ui.setTrackRow(ui.trackTable, i+1, t)
	}

	title := fmt.Sprintf("Tracks (%d)", len(snap.Tracks))
	if snap.Query != "" {
		title = fmt.Sprintf("Tracks (%d) matching %q", len(snap.Tracks), snap.Query)
	}
	ui.trackTable.SetTitle(" " + title + " ")

	ui.tableBuilt = true
	ui.renderedQuery = snap.Query
	ui.renderedIndex = -1

	log.Debug().Int("count", len(snap.Tracks)).Str("query", snap.Query).Msg("Track table refreshed")
}

func (ui *UI) trackIndicator(snap player.Snapshot) string {
	switch snap.State {
	case player.StatePlaying:
		return ui.getPlayingIndicator()
	case player.StatePaused:
		return PauseIcon
	case player.StateLoading:
		return "◐"
	case player.StateErrored:
		return "✗"
	case player.StateReady:
		return "➤"
	default:
		return " "
	}
}

func (ui *UI) updateTrackListIndicator(snap player.Snapshot) {
	indicator := ui.trackIndicator(snap)
	for i := range snap.Tracks {
		cell := ui.trackTable.GetCell(i+1, 0)
		if cell == nil {
			continue
		}
		if i == snap.Index {
			cell.SetText(indicator)
		} else {
			cell.SetText(" ")
		}
	}
}
