package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
)

const (
	SampleRate          = beep.SampleRate(44100)
	SpeakerBufferSize   = time.Millisecond * 250
	ResampleQuality     = 4
	TimeUpdateInterval  = 250 * time.Millisecond
	VolumeCurveExponent = 0.5
	MinVolumeDB         = -10.0
	LoadTimeout         = 90 * time.Second
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// The speaker is process-wide; every Element resamples to SampleRate.
func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SampleRate, SampleRate.N(SpeakerBufferSize))
		if speakerErr == nil {
			log.Debug().Msgf("Speaker initialized with sample rate: %d Hz, buffer: %v", SampleRate, SpeakerBufferSize)
		}
	})
	return speakerErr
}

// sink is where an Element sends its stream. The speaker is the only
// production sink.
type sink interface {
	init() error
	play(s beep.Streamer)
	lock()
	unlock()
}

type speakerSink struct{}

func (speakerSink) init() error          { return initSpeaker() }
func (speakerSink) play(s beep.Streamer) { speaker.Play(s) }
func (speakerSink) lock()                { speaker.Lock() }
func (speakerSink) unlock()              { speaker.Unlock() }

// Loader resolves a source URL to encoded audio bytes.
type Loader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// Element plays one source at a time through the shared speaker.
type Element struct {
	loader Loader
	out    sink

	mu         sync.Mutex
	source     string
	sourceGen  uint64
	streamGen  uint64
	playSeq    uint64
	cancelLoad context.CancelFunc
	ready      chan struct{}
	loadErr    error

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	attached bool
	paused   bool

	gain       float64
	muted      bool
	stopTicker chan struct{}

	listeners    map[int]Listener
	nextListener int
	closed       bool
}

// NewElement creates an Element that loads sources through loader.
func NewElement(loader Loader) *Element {
	return newElement(loader, speakerSink{})
}

func newElement(loader Loader, out sink) *Element {
	return &Element{
		loader:    loader,
		out:       out,
		paused:    true,
		gain:      1,
		listeners: make(map[int]Listener),
	}
}

// NewFactory returns a Factory producing Elements that share loader.
func NewFactory(loader Loader) Factory {
	return func() Resource {
		return NewElement(loader)
	}
}

func (e *Element) Subscribe(l Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextListener
	e.nextListener++
	e.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// emit delivers ev unless the source changed since gen was captured.
func (e *Element) emit(gen uint64, ev Event) {
	e.mu.Lock()
	if e.closed || gen != e.sourceGen {
		e.mu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

func (e *Element) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// SetSource drops the current stream and starts loading url in the background.
// EventCanPlay or EventError follows once loading finishes.
func (e *Element) SetSource(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.resetLocked()
	e.source = url
	e.ready = make(chan struct{})

	if url == "" {
		e.loadErr = ErrNoSource
		close(e.ready)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), LoadTimeout)
	e.cancelLoad = cancel
	go e.load(ctx, e.sourceGen, url, e.ready)
}

func (e *Element) resetLocked() {
	e.sourceGen++
	e.playSeq++
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	e.stopTickerLocked()
	e.detachLocked()
	if e.streamer != nil {
		if err := e.streamer.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close streamer")
		}
		e.streamer = nil
	}
	e.loadErr = nil
	e.paused = true
}

func (e *Element) load(ctx context.Context, gen uint64, url string, ready chan struct{}) {
	defer close(ready)

	data, err := e.loader.Load(ctx, url)

	var streamer beep.StreamSeekCloser
	var format beep.Format
	if err == nil {
		streamer, format, err = decode(data)
	}

	e.mu.Lock()
	if e.closed || gen != e.sourceGen {
		e.mu.Unlock()
		if streamer != nil {
			streamer.Close()
		}
		log.Debug().Str("url", url).Msg("Discarding load for replaced source")
		return
	}

	if err != nil {
		e.loadErr = err
		e.mu.Unlock()
		log.Error().Err(err).Str("url", url).Msg("Failed to load audio")
		e.emit(gen, EventError)
		return
	}

	e.streamer = streamer
	e.format = format
	e.mu.Unlock()

	log.Debug().Str("url", url).Msgf("Audio ready: %d Hz, %d channels", format.SampleRate, format.NumChannels)
	e.emit(gen, EventCanPlay)
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

func decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	switch {
	case isWAV(data):
		s, f, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to decode WAV: %w", err)
		}
		return s, f, nil
	case isMP3(data):
		s, f, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to decode MP3: %w", err)
		}
		return s, f, nil
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && string(data[0:3]) == "ID3" {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// Play waits for the current source to become ready, then starts output.
func (e *Element) Play() <-chan error {
	result := make(chan error, 1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		result <- ErrAborted
		return result
	}
	if e.source == "" || e.ready == nil {
		e.mu.Unlock()
		result <- ErrNoSource
		return result
	}
	e.playSeq++
	gen, seq := e.sourceGen, e.playSeq
	ready := e.ready
	e.mu.Unlock()

	go func() {
		<-ready

		e.mu.Lock()
		defer e.mu.Unlock()

		// A Pause or a new source since this request supersedes it.
		if e.closed || gen != e.sourceGen || seq != e.playSeq {
			result <- ErrAborted
			return
		}
		if e.loadErr != nil {
			result <- e.loadErr
			return
		}
		if err := e.startLocked(); err != nil {
			result <- err
			return
		}
		result <- nil
	}()

	return result
}

func (e *Element) startLocked() error {
	if e.streamer == nil {
		return ErrNoSource
	}

	if err := e.out.init(); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	if e.attached {
		e.out.lock()
		e.ctrl.Paused = false
		e.out.unlock()
	} else {
		if e.streamer.Position() >= e.streamer.Len() {
			if err := e.streamer.Seek(0); err != nil {
				return fmt.Errorf("failed to rewind: %w", err)
			}
		}
		e.attachLocked()
	}

	e.paused = false
	e.startTickerLocked()
	log.Debug().Str("url", e.source).Msg("Playback started")
	return nil
}

func (e *Element) attachLocked() {
	e.streamGen++
	gen := e.streamGen

	resampled := beep.Resample(ResampleQuality, e.format.SampleRate, SampleRate, e.streamer)
	e.volume = &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   gainToDB(e.gain),
		Silent:   e.muted || e.gain <= 0,
	}
	e.ctrl = &beep.Ctrl{Streamer: e.volume, Paused: false}
	e.attached = true

	// The callback runs with the speaker locked.
	e.out.play(beep.Seq(e.ctrl, beep.Callback(func() {
		go e.handleEnded(gen)
	})))
}

func (e *Element) detachLocked() {
	if e.ctrl != nil {
		e.out.lock()
		e.ctrl.Streamer = nil
		e.out.unlock()
	}
	e.streamGen++
	e.ctrl = nil
	e.volume = nil
	e.attached = false
}

func (e *Element) handleEnded(streamGen uint64) {
	e.mu.Lock()
	if e.closed || streamGen != e.streamGen {
		e.mu.Unlock()
		return
	}
	e.attached = false
	e.paused = true
	e.ctrl = nil
	e.volume = nil
	e.stopTickerLocked()
	gen := e.sourceGen
	e.mu.Unlock()

	log.Debug().Msg("Playback reached end of stream")
	e.emit(gen, EventEnded)
}

func (e *Element) startTickerLocked() {
	if e.stopTicker != nil {
		return
	}
	stop := make(chan struct{})
	e.stopTicker = stop
	gen := e.sourceGen

	go func() {
		ticker := time.NewTicker(TimeUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.emit(gen, EventTimeUpdate)
			}
		}
	}()
}

func (e *Element) stopTickerLocked() {
	if e.stopTicker != nil {
		close(e.stopTicker)
		e.stopTicker = nil
	}
}

// Pause stops output and cancels any play request still waiting on the source.
func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.playSeq++

	if e.attached && e.ctrl != nil {
		e.out.lock()
		e.ctrl.Paused = true
		e.out.unlock()
	}
	e.paused = true
	e.stopTickerLocked()
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gain = math.Max(0, math.Min(1, v))
	e.applyVolumeLocked()
}

func (e *Element) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.muted = muted
	e.applyVolumeLocked()
}

func (e *Element) applyVolumeLocked() {
	if e.volume == nil {
		return
	}
	e.out.lock()
	e.volume.Volume = gainToDB(e.gain)
	e.volume.Silent = e.muted || e.gain <= 0
	e.out.unlock()
}

// gainToDB maps a linear [0, 1] gain onto a perceptual curve for effects.Volume.
func gainToDB(gain float64) float64 {
	if gain <= 0 {
		return MinVolumeDB
	}
	if gain >= 1 {
		return 0
	}
	adjusted := math.Pow(gain, VolumeCurveExponent)
	return (1.0 - adjusted) * MinVolumeDB
}

func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0
	}

	e.out.lock()
	pos := e.streamer.Position()
	e.out.unlock()

	return e.format.SampleRate.D(pos).Seconds()
}

func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return math.NaN()
	}
	return e.format.SampleRate.D(e.streamer.Len()).Seconds()
}

func (e *Element) SetCurrentTime(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil || math.IsNaN(seconds) {
		return
	}

	n := e.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	n = max(0, min(n, e.streamer.Len()))

	e.out.lock()
	err := e.streamer.Seek(n)
	e.out.unlock()

	if err != nil {
		log.Warn().Err(err).Float64("seconds", seconds).Msg("Seek failed")
		return
	}

	go e.emit(e.sourceGen, EventTimeUpdate)
}

// Close stops output, releases the stream and drops every listener.
func (e *Element) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.resetLocked()
	e.closed = true
	e.listeners = make(map[int]Listener)
	return nil
}
