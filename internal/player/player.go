package player

import (
	"sync"

	"github.com/glebovdev/trackdeck/internal/audio"
	"github.com/glebovdev/trackdeck/internal/config"
	"github.com/glebovdev/trackdeck/internal/track"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	LoadErrorMessage     = "Unable to load audio. Please check the audio source."
	PlaybackErrorMessage = "Playback failed. Please try again."
)

type PlayerState int

const (
	StateIdle PlayerState = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateErrored
)

func (s PlayerState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateErrored:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	// Version increases with every change; observers may drop older snapshots.
	Version   uint64
	State     PlayerState
	Index     int
	Track     *track.Track
	Tracks    []track.Track
	Query     string
	IsPlaying bool
	IsMuted   bool
	Volume    int
	Progress  Progress
	LastError string
}

// Engine owns the one live audio resource and the playback state around it.
// All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	catalog  []track.Track
	query    string
	filtered []track.Track
	index    int

	state     PlayerState
	isPlaying bool
	isMuted   bool
	volume    int
	progress  Progress
	lastError string
	version   uint64

	factory     audio.Factory
	res         audio.Resource
	unsubscribe func()
	generation  uint64
	ready       bool
	playOnReady bool
	playSeq     uint64

	observers    map[int]func(Snapshot)
	nextObserver int
	closed       bool
}

// New creates an idle engine over catalog. factory is called once per loaded track.
func New(catalog []track.Track, factory audio.Factory) *Engine {
	e := &Engine{
		catalog:   append([]track.Track(nil), catalog...),
		factory:   factory,
		state:     StateIdle,
		volume:    config.DefaultVolume,
		progress:  ComputeProgress(0, 0),
		observers: make(map[int]func(Snapshot)),
	}
	e.filtered = track.Filter(e.catalog, "")
	e.index = -1
	if len(e.filtered) > 0 {
		e.index = 0
	}
	return e
}

// update runs fn under the lock and notifies observers once it returns.
func (e *Engine) update(fn func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	fn()
	e.version++
	snap := e.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(e.observers))
	for _, o := range e.observers {
		observers = append(observers, o)
	}
	e.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

func (e *Engine) setStateLocked(state PlayerState) {
	if e.state != state {
		log.Debug().Msgf("Player state: %s -> %s", e.state, state)
		e.state = state
	}
}

func (e *Engine) hasSelectionLocked() bool {
	return e.index >= 0 && e.index < len(e.filtered)
}

// detachLocked stops the current resource and unbinds its listener.
func (e *Engine) detachLocked() {
	if e.res == nil {
		return
	}

	e.playSeq++
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.res.Pause()
	if err := e.res.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close audio resource")
	}

	e.res = nil
	e.ready = false
	e.playOnReady = false
	e.isPlaying = false
}

func (e *Engine) loadLocked(autoplay bool) {
	e.detachLocked()

	if !e.hasSelectionLocked() {
		e.setStateLocked(StateIdle)
		return
	}

	t := e.filtered[e.index]
	e.generation++
	gen := e.generation

	res := e.factory()
	e.unsubscribe = res.Subscribe(func(ev audio.Event) {
		e.handleEvent(gen, ev)
	})
	res.SetVolume(float64(e.volume) / 100)
	res.SetMuted(e.isMuted)

	e.res = res
	e.playOnReady = autoplay
	e.progress = ComputeProgress(0, res.Duration())
	e.lastError = ""
	e.setStateLocked(StateLoading)

	log.Debug().Str("title", t.Title).Str("url", t.URL).Bool("autoplay", autoplay).Msg("Loading track")
	res.SetSource(t.URL)
}

func (e *Engine) handleEvent(gen uint64, ev audio.Event) {
	e.mu.Lock()
	stale := e.closed || gen != e.generation || e.res == nil
	e.mu.Unlock()
	if stale {
		log.Debug().Str("event", ev.String()).Msg("Ignoring event from detached resource")
		return
	}

	e.update(func() {
		if gen != e.generation || e.res == nil {
			return
		}

		switch ev {
		case audio.EventCanPlay:
			e.ready = true
			e.lastError = ""
			if e.state == StateLoading {
				e.setStateLocked(StateReady)
			}
			e.progress = ComputeProgress(e.res.CurrentTime(), e.res.Duration())
			if e.playOnReady {
				e.playOnReady = false
				e.startPlayLocked()
			}

		case audio.EventError:
			e.ready = false
			e.playOnReady = false
			e.playSeq++
			e.isPlaying = false
			e.lastError = LoadErrorMessage
			e.setStateLocked(StateErrored)
			log.Error().Str("url", e.res.Source()).Msg("Audio resource reported an error")

		case audio.EventEnded:
			if !e.isPlaying || len(e.filtered) == 0 {
				if e.state == StatePlaying {
					e.setStateLocked(StatePaused)
				}
				return
			}
			e.index = (e.index + 1) % len(e.filtered)
			log.Debug().Int("index", e.index).Msg("Track ended, advancing")
			e.loadLocked(true)

		case audio.EventTimeUpdate:
			e.progress = ComputeProgress(e.res.CurrentTime(), e.res.Duration())
		}
	})
}

// startPlayLocked issues a play request tagged with the current track.
func (e *Engine) startPlayLocked() {
	if e.res == nil {
		return
	}

	e.playSeq++
	seq, idx, gen := e.playSeq, e.index, e.generation

	e.isPlaying = true
	e.setStateLocked(StatePlaying)

	result := e.res.Play()
	go e.awaitPlay(result, gen, seq, idx)
}

func (e *Engine) awaitPlay(result <-chan error, gen, seq uint64, idx int) {
	err := <-result

	e.mu.Lock()
	stale := e.closed || gen != e.generation || seq != e.playSeq || idx != e.index
	current := !e.closed && gen == e.generation && e.res != nil
	if stale && err == nil && current && !e.isPlaying && !e.res.Paused() {
		// The resource started for a request the engine has since withdrawn.
		e.res.Pause()
	}
	e.mu.Unlock()

	if stale {
		log.Debug().Err(err).Int("index", idx).Msg("Ignoring stale play result")
		return
	}
	if err == nil {
		return
	}

	log.Error().Err(err).Msg("Play request rejected")
	e.update(func() {
		if gen != e.generation || seq != e.playSeq || idx != e.index || e.res == nil {
			return
		}
		e.isPlaying = false
		e.lastError = PlaybackErrorMessage
		e.setStateLocked(StateErrored)
		e.res.Pause()
	})
}

// Play starts playback of the selected track, loading it first if needed.
func (e *Engine) Play() {
	e.update(e.playLocked)
}

func (e *Engine) playLocked() {
	if !e.hasSelectionLocked() {
		return
	}

	if e.res == nil {
		e.loadLocked(true)
		return
	}

	switch e.state {
	case StateLoading:
		e.playOnReady = true
	case StateReady, StatePaused:
		e.startPlayLocked()
	case StateErrored:
		if e.ready {
			e.startPlayLocked()
		} else {
			e.loadLocked(true)
		}
	case StateIdle:
		e.loadLocked(true)
	}
}

func (e *Engine) Pause() {
	e.update(e.pauseLocked)
}

func (e *Engine) pauseLocked() {
	switch e.state {
	case StateLoading:
		e.playOnReady = false
	case StatePlaying:
		e.playSeq++
		e.res.Pause()
		e.isPlaying = false
		e.setStateLocked(StatePaused)
	}
}

func (e *Engine) TogglePlay() {
	e.update(func() {
		if e.isPlaying || (e.state == StateLoading && e.playOnReady) {
			e.pauseLocked()
		} else {
			e.playLocked()
		}
	})
}

func (e *Engine) Next() {
	e.update(func() {
		n := len(e.filtered)
		if n == 0 {
			return
		}
		e.index = (max(e.index, 0) + 1) % n
		e.loadLocked(true)
	})
}

func (e *Engine) Previous() {
	e.update(func() {
		n := len(e.filtered)
		if n == 0 {
			return
		}
		e.index = (max(e.index, 0) - 1 + n) % n
		e.loadLocked(true)
	})
}

// Select loads and plays the track at index i of the filtered list.
func (e *Engine) Select(i int) {
	e.update(func() {
		if i < 0 || i >= len(e.filtered) {
			return
		}
		e.index = i
		e.loadLocked(true)
	})
}

// Seek moves to percent of the track duration without changing play state.
func (e *Engine) Seek(percent float64) {
	e.update(func() {
		if e.res == nil {
			return
		}
		switch e.state {
		case StateReady, StatePlaying, StatePaused:
		default:
			return
		}

		percent = lo.Clamp(percent, 0, 100)
		duration := e.res.Duration()
		target := percent / 100 * ComputeProgress(0, duration).Duration
		e.res.SetCurrentTime(target)
		e.progress = ComputeProgress(target, duration)
	})
}

func (e *Engine) SetVolume(v int) {
	e.update(func() {
		e.setVolumeLocked(v)
	})
}

func (e *Engine) AdjustVolume(delta int) {
	e.update(func() {
		e.setVolumeLocked(e.volume + delta)
	})
}

func (e *Engine) setVolumeLocked(v int) {
	e.volume = config.ClampVolume(v)
	if e.res != nil {
		e.res.SetVolume(float64(e.volume) / 100)
	}
	log.Debug().Msgf("Volume set to %d%%", e.volume)
}

func (e *Engine) ToggleMute() {
	e.update(func() {
		e.setMutedLocked(!e.isMuted)
	})
}

func (e *Engine) SetMuted(muted bool) {
	e.update(func() {
		e.setMutedLocked(muted)
	})
}

func (e *Engine) setMutedLocked(muted bool) {
	e.isMuted = muted
	if e.res != nil {
		e.res.SetMuted(muted)
	}
}

// SetQuery re-filters the catalog. The selection follows the selected track
// while it stays visible; otherwise playback stops and the index is clamped.
func (e *Engine) SetQuery(query string) {
	e.update(func() {
		var selected *track.Track
		if e.hasSelectionLocked() {
			t := e.filtered[e.index]
			selected = &t
		}

		e.query = query
		e.filtered = track.Filter(e.catalog, query)

		if selected != nil {
			if i := track.IndexOf(e.filtered, selected.URL); i >= 0 {
				e.index = i
				return
			}
		}

		e.detachLocked()
		e.lastError = ""
		e.progress = ComputeProgress(0, 0)
		if len(e.filtered) == 0 {
			e.index = -1
		} else {
			e.index = lo.Clamp(e.index, 0, len(e.filtered)-1)
		}
		e.setStateLocked(StateIdle)
	})
}

// SelectTitle moves the selection to the first visible track titled title
// without loading it. It reports whether such a track exists.
func (e *Engine) SelectTitle(title string) bool {
	found := false
	e.update(func() {
		i := track.IndexByTitle(e.filtered, title)
		if i < 0 {
			return
		}
		found = true
		if i != e.index {
			e.detachLocked()
			e.index = i
			e.setStateLocked(StateIdle)
		}
	})
	return found
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:   e.version,
		State:     e.state,
		Index:     e.index,
		Tracks:    append([]track.Track(nil), e.filtered...),
		Query:     e.query,
		IsPlaying: e.isPlaying,
		IsMuted:   e.isMuted,
		Volume:    e.volume,
		Progress:  e.progress,
		LastError: e.lastError,
	}
	if e.hasSelectionLocked() {
		t := e.filtered[e.index]
		snap.Track = &t
	}
	return snap
}

// Subscribe registers fn to receive a snapshot after every change.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextObserver
	e.nextObserver++
	e.observers[id] = fn

	return func() {
		e.mu.Lock()
		delete(e.observers, id)
		e.mu.Unlock()
	}
}

// Close detaches the resource and drops all observers. Later calls are no-ops.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.detachLocked()
	e.setStateLocked(StateIdle)
	e.observers = make(map[int]func(Snapshot))
	e.closed = true
	log.Debug().Msg("Player closed")
}
