package ui

import (
	"runtime"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/trackdeck/internal/config"
	"github.com/glebovdev/trackdeck/internal/input"
	"github.com/glebovdev/trackdeck/internal/player"
	"github.com/glebovdev/trackdeck/internal/service"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	HeaderHeight       = 3
	FooterHeightWide   = 3 // Wide: 1 row with padding (top + text + bottom)
	FooterHeightNarrow = 6 // Narrow: 2 rows × 3 lines each
	CoverWidth         = 26
	CoverHeight        = 12
	PlayerPanelHeight  = 12
	SearchHeight       = 1
	FooterBreakpoint   = 130 // Width threshold for responsive footer
	SeekStep           = 5.0
)

// PauseIcon uses platform-specific character (Windows renders ⏸ as emoji)
var PauseIcon = func() string {
	if runtime.GOOS == "windows" {
		return "❚❚"
	}
	return "⏸"
}()

// MetadataSource provides tag metadata for loaded tracks.
type MetadataSource interface {
	Metadata(url string) (service.Metadata, bool)
}

// Options are the command line choices that affect startup.
type Options struct {
	Query     string
	Autostart bool
}

type UI struct {
	app         *tview.Application
	engine      *player.Engine
	metadata    MetadataSource
	config      *config.Config
	opts        Options
	router      *input.Router
	unsubscribe func()

	trackTable    *tview.Table
	searchField   *tview.InputField
	helpPanel     *tview.Box
	contentLayout *tview.Flex
	playerPanel   *tview.Flex
	coverPanel    *tview.Image
	titleView     *tview.TextView
	artistView    *tview.TextView
	albumView     *tview.TextView
	progressView  *tview.TextView
	volumeView    *tview.Flex
	mainLayout    *tview.Flex
	pages         *tview.Pages

	stopUpdates chan struct{}
	redraw      chan struct{}
	mu          sync.Mutex
	saveMu      sync.Mutex
	snapshot    player.Snapshot

	renderedQuery   string
	renderedIndex   int
	renderedVolume  int
	renderedMuted   bool
	tableBuilt      bool
	coverURL        string
	lastFooterWidth int // Track width to detect layout changes
	animationFrame  int
	playingSpinner  *PlayingSpinner
	statusRenderer  *StatusRenderer

	colors struct {
		background                tcell.Color
		foreground                tcell.Color
		borders                   tcell.Color
		highlight                 tcell.Color
		headerBackground          tcell.Color
		trackListHeaderBackground tcell.Color
		trackListHeaderForeground tcell.Color
		helpBackground            tcell.Color
		helpForeground            tcell.Color
		helpHotkey                tcell.Color
		progressFilled            tcell.Color
		progressEmpty             tcell.Color
		errorForeground           tcell.Color
		mutedVolume               tcell.Color
		modalBackground           tcell.Color
	}
}

func NewUI(engine *player.Engine, metadata MetadataSource, cfg *config.Config, opts Options) *UI {
	ui := &UI{
		app:           tview.NewApplication(),
		engine:        engine,
		metadata:      metadata,
		config:        cfg,
		opts:          opts,
		stopUpdates:   make(chan struct{}),
		redraw:        make(chan struct{}, 1),
		renderedIndex: -1,
	}

	ui.colors.background = config.GetColor(cfg.Theme.Background)
	ui.colors.foreground = config.GetColor(cfg.Theme.Foreground)
	ui.colors.borders = config.GetColor(cfg.Theme.Borders)
	ui.colors.highlight = config.GetColor(cfg.Theme.Highlight)
	ui.colors.headerBackground = config.GetColor(cfg.Theme.HeaderBackground)
	ui.colors.trackListHeaderBackground = config.GetColor(cfg.Theme.TrackListHeaderBackground)
	ui.colors.trackListHeaderForeground = config.GetColor(cfg.Theme.TrackListHeaderForeground)
	ui.colors.helpBackground = config.GetColor(cfg.Theme.HelpBackground)
	ui.colors.helpForeground = config.GetColor(cfg.Theme.HelpForeground)
	ui.colors.helpHotkey = config.GetColor(cfg.Theme.HelpHotkey)
	ui.colors.progressFilled = config.GetColor(cfg.Theme.ProgressFilled)
	ui.colors.progressEmpty = config.GetColor(cfg.Theme.ProgressEmpty)
	ui.colors.errorForeground = config.GetColor(cfg.Theme.ErrorForeground)
	ui.colors.mutedVolume = config.GetColor(cfg.Theme.MutedVolume)
	ui.colors.modalBackground = config.GetColor(cfg.Theme.ModalBackground)

	engine.SetVolume(cfg.Volume)
	engine.SetMuted(cfg.Muted)
	log.Debug().Msgf("Loaded volume from config: %d%% (muted: %v)", cfg.Volume, cfg.Muted)

	if opts.Query != "" {
		engine.SetQuery(opts.Query)
	}
	if cfg.LastTrack != "" && !engine.SelectTitle(cfg.LastTrack) {
		log.Debug().Msgf("Last track '%s' not found, showing first track", cfg.LastTrack)
	}

	ui.snapshot = engine.Snapshot()
	ui.renderedVolume = ui.snapshot.Volume
	ui.renderedMuted = ui.snapshot.IsMuted

	ui.statusRenderer = NewStatusRenderer()
	ui.statusRenderer.SetPrimaryColor(ui.colors.highlight.String())
	ui.statusRenderer.SetErrorColor(ui.colors.errorForeground.String())
	ui.statusRenderer.Update(ui.snapshot)

	return ui
}

func (ui *UI) SaveConfig() {
	ui.saveMu.Lock()
	defer ui.saveMu.Unlock()

	ui.mu.Lock()
	snap := ui.snapshot
	ui.config.Volume = snap.Volume
	ui.config.Muted = snap.IsMuted
	if snap.Track != nil {
		ui.config.LastTrack = snap.Track.Title
	}
	ui.mu.Unlock()

	if err := ui.config.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save config")
	}
}

func (ui *UI) safeCloseChannel() {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if ui.stopUpdates != nil {
		select {
		case <-ui.stopUpdates:
			// Already closed
		default:
			close(ui.stopUpdates)
		}
		ui.stopUpdates = nil
	}
}

func (ui *UI) stop() {
	if ui.unsubscribe != nil {
		ui.unsubscribe()
		ui.unsubscribe = nil
	}
	if ui.router != nil {
		ui.router.Deactivate()
	}
	ui.SaveConfig()
	ui.engine.Close()
	ui.safeCloseChannel()
	ui.app.Stop()
}

// Shutdown stops the UI gracefully from external callers (e.g., signal handlers).
func (ui *UI) Shutdown() {
	ui.app.QueueUpdateDraw(func() {
		ui.stop()
	})
}

func (ui *UI) Run() error {
	ui.setupUI()
	ui.configureScreen()
	ui.app.SetRoot(ui.pages, true).EnableMouse(true)
	ui.app.SetFocus(ui.trackTable)

	ui.router = input.NewRouter(ui.engine, ui.inputBypassed, ui.globalInputHandler)
	ui.router.Activate(ui.app)

	ui.unsubscribe = ui.engine.Subscribe(ui.onSnapshot)
	ui.render()
	go ui.runUpdates()

	if ui.opts.Autostart || ui.config.Autostart {
		log.Debug().Msg("Autostart enabled, starting playback")
		ui.engine.Play()
	}

	return ui.app.Run()
}

func (ui *UI) configureScreen() {
	bgStyle := tcell.StyleDefault.Background(ui.colors.background)
	ui.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		screen.SetStyle(bgStyle)
		screen.Clear()
		return false
	})

	var titleSet sync.Once
	ui.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		titleSet.Do(func() { screen.SetTitle(config.AppName) })
	})
}

// onSnapshot may run on any goroutine, including the event loop, so it only
// records the snapshot and signals the update loop.
func (ui *UI) onSnapshot(snap player.Snapshot) {
	ui.mu.Lock()
	if snap.Version >= ui.snapshot.Version {
		ui.snapshot = snap
	}
	ui.mu.Unlock()

	select {
	case ui.redraw <- struct{}{}:
	default:
	}
}

func (ui *UI) currentSnapshot() player.Snapshot {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.snapshot
}

func (ui *UI) runUpdates() {
	if ui.playingSpinner == nil {
		ui.playingSpinner = NewPlayingSpinner()
	}

	ui.mu.Lock()
	stop := ui.stopUpdates
	ui.mu.Unlock()
	if stop == nil {
		return
	}

	animationTicker := time.NewTicker(ui.playingSpinner.FPS)
	defer animationTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ui.redraw:
			ui.app.QueueUpdateDraw(ui.render)
		case <-animationTicker.C:
			state := ui.currentSnapshot().State
			if state != player.StatePlaying && state != player.StateLoading {
				continue
			}
			ui.app.QueueUpdateDraw(func() {
				ui.animationFrame++
				ui.statusRenderer.AdvanceAnimation()
				ui.updateTrackListIndicator(ui.currentSnapshot())
			})
		}
	}
}

// render must run on the event loop.
func (ui *UI) render() {
	snap := ui.currentSnapshot()

	ui.statusRenderer.Update(snap)
	ui.refreshTrackTable(snap)
	ui.updateNowPlaying(snap)

	if snap.Volume != ui.renderedVolume || snap.IsMuted != ui.renderedMuted {
		ui.renderedVolume = snap.Volume
		ui.renderedMuted = snap.IsMuted
		ui.updateVolumeDisplay()
		go ui.SaveConfig()
	}
}

func (ui *UI) setupUI() {
	header := ui.createHeader()

	ui.playerPanel = tview.NewFlex().SetDirection(tview.FlexRow)
	ui.playerPanel.SetBackgroundColor(ui.colors.background)
	ui.playerPanel.AddItem(ui.createContentPanel(), 0, 1, false)

	ui.searchField = ui.createSearchField()
	ui.trackTable = ui.createTrackTable()
	ui.helpPanel = ui.createFooter()

	ui.contentLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, HeaderHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.playerPanel, PlayerPanelHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.searchField, SearchHeight, 0, false).
		AddItem(ui.trackTable, 0, 1, true).
		AddItem(ui.helpPanel, FooterHeightWide, 0, false)
	ui.contentLayout.SetBackgroundColor(ui.colors.background)

	wrapper := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 3, 0, false).
		AddItem(ui.contentLayout, 0, 1, true).
		AddItem(nil, 3, 0, false)
	wrapper.SetBackgroundColor(ui.colors.background)

	ui.mainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 1, 0, false).
		AddItem(wrapper, 0, 1, true).
		AddItem(nil, 1, 0, false)
	ui.mainLayout.SetBackgroundColor(ui.colors.background)

	ui.pages = tview.NewPages().
		AddPage("main", ui.mainLayout, true, true)
	ui.pages.SetBackgroundColor(ui.colors.background)
}

func (ui *UI) createHeader() tview.Primitive {
	titleView := tview.NewTextView()
	titleView.SetText(" " + config.AppName)
	titleView.SetTextAlign(tview.AlignLeft)
	titleView.SetTextColor(ui.colors.foreground)
	titleView.SetBackgroundColor(ui.colors.headerBackground)

	versionView := tview.NewTextView()
	versionView.SetText("v" + config.AppVersion + " ")
	versionView.SetTextAlign(tview.AlignRight)
	versionView.SetTextColor(ui.colors.foreground)
	versionView.SetBackgroundColor(ui.colors.headerBackground)

	textFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(titleView, 0, 1, false).
		AddItem(versionView, 10, 0, false)
	textFlex.SetBackgroundColor(ui.colors.headerBackground)

	textWithPadding := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false).
		AddItem(textFlex, 0, 1, false).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false)
	textWithPadding.SetBackgroundColor(ui.colors.headerBackground)

	headerFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false).
		AddItem(textWithPadding, 1, 0, false).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false)
	headerFlex.SetBackgroundColor(ui.colors.headerBackground)

	return headerFlex
}

type PlayingSpinner struct {
	Frames []string
	FPS    time.Duration
}

func NewPlayingSpinner() *PlayingSpinner {
	return &PlayingSpinner{
		Frames: []string{"⣾ ", "⣽ ", "⣻ ", "⢿ ", "⡿ ", "⣟ ", "⣯ ", "⣷ "},
		FPS:    time.Second / 10,
	}
}

func (ui *UI) getPlayingIndicator() string {
	if ui.playingSpinner == nil {
		ui.playingSpinner = NewPlayingSpinner()
	}

	frameIndex := ui.animationFrame % len(ui.playingSpinner.Frames)
	return ui.playingSpinner.Frames[frameIndex]
}

func (ui *UI) hasModal() bool {
	return ui.pages != nil && ui.pages.HasPage("modal")
}

// inputBypassed reports whether key presses belong to a text field or modal.
func (ui *UI) inputBypassed() bool {
	return ui.hasModal() || ui.app.GetFocus() == ui.searchField
}

func (ui *UI) seekBy(delta float64) {
	snap := ui.currentSnapshot()
	ui.engine.Seek(snap.Progress.Percent + delta)
}

func (ui *UI) globalInputHandler(event *tcell.EventKey) *tcell.EventKey {
	if ui.inputBypassed() {
		return event
	}

	switch event.Key() {
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			ui.stop()
			return nil
		case '/':
			ui.focusSearch()
			return nil
		case ',', '<':
			ui.seekBy(-SeekStep)
			return nil
		case '.', '>':
			ui.seekBy(SeekStep)
			return nil
		case '?':
			ui.showHelpModal()
			return nil
		case 'a', 'A':
			ui.showAboutModal()
			return nil
		}
	case tcell.KeyEscape:
		ui.stop()
		return nil
	}
	return event
}
