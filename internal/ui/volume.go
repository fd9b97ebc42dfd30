package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const volumeBarHeight = 10

// volumeBarLines splits the bar into empty and filled rows for volume.
func volumeBarLines(volume, height int) (filled, empty int) {
	volume = min(max(volume, 0), 100)
	filled = (volume * height) / 100
	return filled, height - filled
}

func (ui *UI) buildVolumeBar(container *tview.Flex) {
	displayVolume := ui.renderedVolume
	isMuted := ui.renderedMuted

	filledLines, emptyLines := volumeBarLines(displayVolume, volumeBarHeight)

	createText := func(text string, color tcell.Color) *tview.TextView {
		tv := tview.NewTextView()
		tv.SetText(text)
		tv.SetTextAlign(tview.AlignRight)
		tv.SetTextColor(color)
		tv.SetBackgroundColor(ui.colors.background)
		return tv
	}

	barColor := ui.colors.highlight
	if isMuted {
		barColor = ui.colors.mutedVolume
	}

	percentView := func() *tview.TextView {
		view := createText(fmt.Sprintf("%d%%", displayVolume), barColor)
		if isMuted {
			view.SetTextStyle(tcell.StyleDefault.
				Foreground(barColor).
				Background(ui.colors.background).
				Attributes(tcell.AttrStrikeThrough))
		}
		return view
	}

	createBarLine := func(barText string, color tcell.Color, showPercent bool) *tview.Flex {
		line := tview.NewFlex().SetDirection(tview.FlexColumn)
		line.SetBackgroundColor(ui.colors.background)

		if showPercent {
			line.AddItem(percentView(), 4, 0, false)
		} else {
			line.AddItem(createText("    ", ui.colors.foreground), 4, 0, false)
		}

		line.AddItem(createText(barText, color), 0, 1, false)
		return line
	}

	container.AddItem(createText("   max", ui.colors.foreground), 1, 0, false)

	for i := 0; i < emptyLines; i++ {
		// Keep the percentage visible at 0%.
		showPercent := filledLines == 0 && i == emptyLines-1
		container.AddItem(createBarLine(" ░░", ui.colors.foreground, showPercent), 1, 0, false)
	}

	for i := 0; i < filledLines; i++ {
		container.AddItem(createBarLine(" ██", barColor, i == 0), 1, 0, false)
	}

	container.AddItem(createText("   min", ui.colors.foreground), 1, 0, false)

	container.AddItem(nil, 0, 1, false)
}

func (ui *UI) createGraphicalVolumeBar() *tview.Flex {
	volumeContainer := tview.NewFlex().SetDirection(tview.FlexRow)
	volumeContainer.SetBackgroundColor(ui.colors.background)
	ui.buildVolumeBar(volumeContainer)
	return volumeContainer
}

func (ui *UI) updateVolumeDisplay() {
	if ui.volumeView != nil {
		ui.volumeView.Clear()
		ui.buildVolumeBar(ui.volumeView)
	}
}
