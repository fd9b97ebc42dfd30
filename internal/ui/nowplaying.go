package ui

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/trackdeck/internal/player"
	"github.com/glebovdev/trackdeck/internal/service"
	"github.com/glebovdev/trackdeck/internal/track"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const progressBarWidth = 40

func (ui *UI) newLabel(text string) *tview.TextView {
	label := tview.NewTextView()
	label.SetText(text)
	label.SetTextColor(ui.colors.foreground)
	label.SetBackgroundColor(ui.colors.background)
	label.SetWrap(false)
	return label
}

func (ui *UI) newValueView() *tview.TextView {
	view := tview.NewTextView()
	view.SetDynamicColors(true)
	view.SetTextColor(ui.colors.highlight)
	view.SetBackgroundColor(ui.colors.background)
	view.SetWrap(false)
	view.SetTextStyle(tcell.StyleDefault.Background(ui.colors.background).Attributes(tcell.AttrBold))
	return view
}

func (ui *UI) createContentPanel() *tview.Flex {
	ui.coverPanel = tview.NewImage()
	ui.coverPanel.SetBackgroundColor(ui.colors.background)
	ui.coverPanel.SetAlign(tview.AlignLeft, tview.AlignTop)
	ui.coverPanel.SetImage(placeholderCover(ui.colors.borders))

	ui.titleView = ui.newValueView()
	ui.artistView = ui.newValueView()
	ui.albumView = ui.newValueView()

	ui.progressView = tview.NewTextView()
	ui.progressView.SetDynamicColors(true)
	ui.progressView.SetTextColor(ui.colors.foreground)
	ui.progressView.SetBackgroundColor(ui.colors.background)
	ui.progressView.SetWrap(false)

	infoContent := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.newLabel(" Track:"), 1, 0, false).
		AddItem(ui.titleView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.newLabel(" Artist:"), 1, 0, false).
		AddItem(ui.artistView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.newLabel(" Album:"), 1, 0, false).
		AddItem(ui.albumView, 1, 0, false).
		AddItem(nil, 0, 1, false).
		AddItem(ui.progressView, 1, 0, false)
	infoContent.SetBackgroundColor(ui.colors.background)

	ui.volumeView = ui.createGraphicalVolumeBar()

	// Wrap cover in vertical flex to constrain height
	coverWrapper := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.coverPanel, CoverHeight, 0, false).
		AddItem(nil, 0, 1, false)
	coverWrapper.SetBackgroundColor(ui.colors.background)

	contentFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(coverWrapper, CoverWidth, 0, false).
		AddItem(infoContent, 0, 1, false).
		AddItem(ui.volumeView, 7, 0, false)
	contentFlex.SetBackgroundColor(ui.colors.background)

	contentWithPadding := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 4, 0, false).
		AddItem(contentFlex, 0, 1, false).
		AddItem(nil, 4, 0, false)
	contentWithPadding.SetBackgroundColor(ui.colors.background)

	return contentWithPadding
}

func (ui *UI) setValue(view *tview.TextView, value string) {
	if value == "" {
		value = "—"
	}
	view.SetText(fmt.Sprintf(" [%s]%s[-]", ui.colors.highlight.String(), tview.Escape(value)))
}

func (ui *UI) updateNowPlaying(snap player.Snapshot) {
	if snap.Track == nil {
		ui.setValue(ui.titleView, "No track selected")
		ui.setValue(ui.artistView, "")
		ui.setValue(ui.albumView, "")
		ui.progressView.SetText("")
		ui.showCover("", nil)
		return
	}

	t := *snap.Track
	md, hasMetadata := ui.metadata.Metadata(t.URL)

	ui.setValue(ui.titleView, t.Title)
	artist := t.Artist
	if artist == "" && hasMetadata {
		artist = md.Artist
	}
	ui.setValue(ui.artistView, artist)
	ui.setValue(ui.albumView, md.Album)

	if snap.State == player.StateErrored {
		ui.progressView.SetText(fmt.Sprintf(" [%s]%s[-]", ui.colors.errorForeground.String(), tview.Escape(snap.LastError)))
	} else {
		ui.progressView.SetText(" " + renderProgressLine(snap.Progress, progressBarWidth,
			ui.colors.progressFilled.String(), ui.colors.progressEmpty.String()))
	}

	if hasMetadata {
		ui.showCover(t.URL, &md)
	} else {
		ui.showCover(t.URL, nil)
	}
}

// showCover decodes embedded art off the event loop, once per track.
func (ui *UI) showCover(url string, md *service.Metadata) {
	if md == nil {
		if ui.coverURL != "" {
			ui.coverURL = ""
			ui.coverPanel.SetImage(placeholderCover(ui.colors.borders))
		}
		return
	}
	if url == ui.coverURL {
		return
	}
	ui.coverURL = url

	m := *md
	go func() {
		img, err := m.Cover()
		if err != nil {
			if !errors.Is(err, service.ErrNoCover) {
				log.Debug().Err(err).Str("url", url).Msg("Failed to decode cover art")
			}
			img = placeholderCover(ui.colors.borders)
		}

		ui.app.QueueUpdateDraw(func() {
			if ui.coverURL == url {
				ui.coverPanel.SetImage(img)
			}
		})
	}()
}

func placeholderCover(c tcell.Color) image.Image {
	r, g, b := c.RGB()
	if r < 0 {
		r, g, b = 0x40, 0x44, 0x5b
	}
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}}, image.Point{}, draw.Src)
	return img
}

// renderProgressLine draws "m:ss ━━━━──── m:ss" with tview color tags.
func renderProgressLine(p player.Progress, width int, filledColor, emptyColor string) string {
	percent := min(max(p.Percent, 0), 100)
	filled := int(percent * float64(width) / 100)
	empty := width - filled

	total := "--:--"
	if p.DurationKnown {
		total = track.FormatTime(p.Duration)
	}

	return fmt.Sprintf("%s [%s]%s[%s]%s[-] %s",
		track.FormatTime(p.CurrentTime),
		filledColor, strings.Repeat("━", filled),
		emptyColor, strings.Repeat("─", empty),
		total)
}
