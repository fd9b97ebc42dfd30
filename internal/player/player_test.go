package player

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/glebovdev/trackdeck/internal/audio"
	"github.com/glebovdev/trackdeck/internal/track"
)

type fakeResource struct {
	mu          sync.Mutex
	source      string
	volume      float64
	muted       bool
	currentTime float64
	duration    float64
	paused      bool
	closed      bool
	listeners   map[int]audio.Listener
	nextID      int
	plays       []chan error
}

func newFakeResource() *fakeResource {
	return &fakeResource{
		duration:  math.NaN(),
		paused:    true,
		listeners: make(map[int]audio.Listener),
	}
}

func (r *fakeResource) SetSource(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = url
}

func (r *fakeResource) Source() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

func (r *fakeResource) SetVolume(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = v
}

func (r *fakeResource) SetMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = muted
}

func (r *fakeResource) SetCurrentTime(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentTime = seconds
}

func (r *fakeResource) CurrentTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTime
}

func (r *fakeResource) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

func (r *fakeResource) Play() <-chan error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan error, 1)
	r.plays = append(r.plays, ch)
	r.paused = false
	return ch
}

func (r *fakeResource) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
}

// resume marks the resource as producing sound, as a real one does when a
// pending play request finally starts.
func (r *fakeResource) resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

func (r *fakeResource) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

func (r *fakeResource) Subscribe(l audio.Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

func (r *fakeResource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// emit delivers ev to every listener from the calling goroutine.
func (r *fakeResource) emit(ev audio.Event) {
	r.mu.Lock()
	listeners := make([]audio.Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

func (r *fakeResource) listenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

func (r *fakeResource) lastPlay(t *testing.T) chan error {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.plays) == 0 {
		t.Fatal("no play request issued")
	}
	return r.plays[len(r.plays)-1]
}

type fakeFactory struct {
	mu        sync.Mutex
	resources []*fakeResource
}

func (f *fakeFactory) New() audio.Resource {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := newFakeResource()
	f.resources = append(f.resources, r)
	return r
}

func (f *fakeFactory) last(t *testing.T) *fakeResource {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resources) == 0 {
		t.Fatal("no resource created")
	}
	return f.resources[len(f.resources)-1]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resources)
}

func testCatalog() []track.Track {
	return []track.Track{
		{Title: "Alpha", Artist: "A", URL: "http://example.com/alpha.wav"},
		{Title: "Bravo", Artist: "B", URL: "http://example.com/bravo.wav"},
		{Title: "Charlie", Artist: "C", URL: "http://example.com/charlie.wav"},
	}
}

func newTestEngine() (*Engine, *fakeFactory) {
	f := &fakeFactory{}
	return New(testCatalog(), f.New), f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// startPlaying loads the selected track, signals canplay and resolves the play request.
func startPlaying(t *testing.T, e *Engine, f *fakeFactory) *fakeResource {
	t.Helper()
	e.Play()
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	res.lastPlay(t) <- nil
	if s := e.Snapshot(); s.State != StatePlaying || !s.IsPlaying {
		t.Fatalf("state = %s, isPlaying = %v, want PLAYING", s.State, s.IsPlaying)
	}
	return res
}

func TestPlayerStateString(t *testing.T) {
	tests := []struct {
		state    PlayerState
		expected string
	}{
		{StateIdle, "IDLE"},
		{StateLoading, "LOADING"},
		{StateReady, "READY"},
		{StatePlaying, "PLAYING"},
		{StatePaused, "PAUSED"},
		{StateErrored, "ERROR"},
		{PlayerState(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("PlayerState(%d).String() = %q, want %q", tt.state, got, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	e, f := newTestEngine()
	s := e.Snapshot()

	if s.State != StateIdle {
		t.Errorf("State = %s, want IDLE", s.State)
	}
	if s.Index != 0 {
		t.Errorf("Index = %d, want 0", s.Index)
	}
	if s.Volume != 100 {
		t.Errorf("Volume = %d, want 100", s.Volume)
	}
	if s.IsPlaying || s.IsMuted {
		t.Error("new engine should be neither playing nor muted")
	}
	if len(s.Tracks) != 3 {
		t.Errorf("len(Tracks) = %d, want 3", len(s.Tracks))
	}
	if f.count() != 0 {
		t.Errorf("resources created = %d, want 0", f.count())
	}

	empty := New(nil, f.New)
	if s := empty.Snapshot(); s.Index != -1 || s.Track != nil {
		t.Errorf("empty engine Index = %d, Track = %v", s.Index, s.Track)
	}
}

func TestLoadAndPlay(t *testing.T) {
	e, f := newTestEngine()
	e.SetVolume(40)
	e.ToggleMute()

	e.Play()
	res := f.last(t)
	if res.Source() != "http://example.com/alpha.wav" {
		t.Errorf("Source = %q", res.Source())
	}
	if res.volume != 0.4 || !res.muted {
		t.Errorf("resource volume = %v muted = %v, want 0.4 true", res.volume, res.muted)
	}
	if s := e.Snapshot(); s.State != StateLoading || s.IsPlaying {
		t.Errorf("after Play: state = %s isPlaying = %v, want LOADING false", s.State, s.IsPlaying)
	}

	res.mu.Lock()
	res.duration = 120
	res.mu.Unlock()
	res.emit(audio.EventCanPlay)
	res.lastPlay(t) <- nil

	s := e.Snapshot()
	if s.State != StatePlaying || !s.IsPlaying {
		t.Fatalf("after canplay: state = %s isPlaying = %v", s.State, s.IsPlaying)
	}
	if s.Progress.Duration != 120 || !s.Progress.DurationKnown {
		t.Errorf("Progress = %+v, want known duration 120", s.Progress)
	}
}

func TestCanPlayWithoutIntentStaysReady(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	e.Pause()

	res := f.last(t)
	res.emit(audio.EventCanPlay)

	s := e.Snapshot()
	if s.State != StateReady || s.IsPlaying {
		t.Errorf("state = %s isPlaying = %v, want READY false", s.State, s.IsPlaying)
	}

	e.Play()
	if s := e.Snapshot(); s.State != StatePlaying {
		t.Errorf("Play from READY: state = %s, want PLAYING", s.State)
	}
}

func TestPauseAndResume(t *testing.T) {
	e, f := newTestEngine()
	res := startPlaying(t, e, f)

	e.TogglePlay()
	s := e.Snapshot()
	if s.State != StatePaused || s.IsPlaying || !res.Paused() {
		t.Errorf("after pause: state = %s isPlaying = %v paused = %v", s.State, s.IsPlaying, res.Paused())
	}

	e.TogglePlay()
	if s := e.Snapshot(); s.State != StatePlaying || !s.IsPlaying {
		t.Errorf("after resume: state = %s isPlaying = %v", s.State, s.IsPlaying)
	}
	if f.count() != 1 {
		t.Errorf("resume created %d resources, want 1", f.count())
	}
}

func TestWrapAround(t *testing.T) {
	tests := []struct {
		name  string
		start int
		op    func(*Engine)
		want  int
	}{
		{"next from last wraps", 2, (*Engine).Next, 0},
		{"next from first", 0, (*Engine).Next, 1},
		{"previous from first wraps", 0, (*Engine).Previous, 2},
		{"previous from middle", 1, (*Engine).Previous, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine()
			e.Select(tt.start)
			tt.op(e)
			if got := e.Snapshot().Index; got != tt.want {
				t.Errorf("Index = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextCycleReturnsToStart(t *testing.T) {
	for start := 0; start < 3; start++ {
		e, _ := newTestEngine()
		e.Select(start)
		for i := 0; i < 3; i++ {
			e.Next()
		}
		if got := e.Snapshot().Index; got != start {
			t.Errorf("after 3x Next from %d: Index = %d", start, got)
		}
		for i := 0; i < 3; i++ {
			e.Previous()
		}
		if got := e.Snapshot().Index; got != start {
			t.Errorf("after 3x Previous from %d: Index = %d", start, got)
		}
	}
}

func TestSwitchingDetachesPreviousResource(t *testing.T) {
	e, f := newTestEngine()
	first := startPlaying(t, e, f)

	e.Next()
	second := f.last(t)

	if first == second {
		t.Fatal("Next did not create a new resource")
	}
	if !first.closed || !first.Paused() {
		t.Errorf("previous resource closed = %v paused = %v, want both true", first.closed, first.Paused())
	}
	if n := first.listenerCount(); n != 0 {
		t.Errorf("previous resource still has %d listeners", n)
	}
	if second.Source() != "http://example.com/bravo.wav" {
		t.Errorf("new source = %q", second.Source())
	}

	// Events from the detached resource are ignored.
	first.emit(audio.EventError)
	if s := e.Snapshot(); s.State == StateErrored {
		t.Error("event from detached resource changed state")
	}
}

func TestLoadErrorScenario(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	res := f.last(t)
	res.emit(audio.EventError)

	s := e.Snapshot()
	if s.State != StateErrored {
		t.Errorf("State = %s, want ERROR", s.State)
	}
	if s.IsPlaying {
		t.Error("IsPlaying should be false after load error")
	}
	if s.LastError != "Unable to load audio. Please check the audio source." {
		t.Errorf("LastError = %q", s.LastError)
	}

	// An explicit load clears the error.
	e.Next()
	if s := e.Snapshot(); s.LastError != "" || s.State != StateLoading {
		t.Errorf("after Next: LastError = %q State = %s", s.LastError, s.State)
	}
}

func TestPlayRejected(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	res.lastPlay(t) <- errors.New("blocked")

	waitFor(t, "rejection to be handled", func() bool {
		return e.Snapshot().State == StateErrored
	})

	s := e.Snapshot()
	if s.IsPlaying {
		t.Error("IsPlaying should be false after rejection")
	}
	if s.LastError != PlaybackErrorMessage {
		t.Errorf("LastError = %q, want %q", s.LastError, PlaybackErrorMessage)
	}
	if !res.Paused() {
		t.Error("resource should be paused after rejection")
	}

	// The resource is ready, so Play retries the request on the same resource.
	e.Play()
	if s := e.Snapshot(); s.State != StatePlaying || f.count() != 1 {
		t.Errorf("retry: state = %s resources = %d", s.State, f.count())
	}
}

func TestCanPlayClearsLastError(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	res.lastPlay(t) <- errors.New("blocked")
	waitFor(t, "rejection", func() bool { return e.Snapshot().LastError != "" })

	res.emit(audio.EventCanPlay)
	if s := e.Snapshot(); s.LastError != "" {
		t.Errorf("LastError = %q after canplay, want empty", s.LastError)
	}
}

func TestStalePlayResolutionIgnored(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	first := f.last(t)
	first.emit(audio.EventCanPlay)
	pending := first.lastPlay(t)

	e.Next()
	pending <- errors.New("aborted")
	time.Sleep(50 * time.Millisecond)

	s := e.Snapshot()
	if s.State != StateLoading || s.LastError != "" {
		t.Errorf("stale rejection leaked: state = %s lastError = %q", s.State, s.LastError)
	}
	if s.Index != 1 {
		t.Errorf("Index = %d, want 1", s.Index)
	}
}

func TestStalePlayAfterPause(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	pending := res.lastPlay(t)

	e.Pause()
	pending <- errors.New("late")
	time.Sleep(50 * time.Millisecond)

	if s := e.Snapshot(); s.State != StatePaused || s.IsPlaying || s.LastError != "" {
		t.Errorf("state = %s isPlaying = %v lastError = %q", s.State, s.IsPlaying, s.LastError)
	}
}

func TestLateSuccessfulPlayIsPausedAgain(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	pending := res.lastPlay(t)

	e.Pause()
	res.resume()
	pending <- nil

	waitFor(t, "resource paused again", res.Paused)
	if s := e.Snapshot(); s.State != StatePaused || s.IsPlaying {
		t.Errorf("state = %s isPlaying = %v, want PAUSED and false", s.State, s.IsPlaying)
	}
}

func TestLateSuccessfulPlayForOtherTrackLeavesCurrentAlone(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	first := f.last(t)
	first.emit(audio.EventCanPlay)
	pending := first.lastPlay(t)

	e.Next()
	second := f.last(t)
	second.emit(audio.EventCanPlay)
	second.lastPlay(t) <- nil

	pending <- nil
	time.Sleep(50 * time.Millisecond)

	if second.Paused() {
		t.Error("stale result for the previous track paused the current resource")
	}
	if s := e.Snapshot(); s.State != StatePlaying || s.Index != 1 {
		t.Errorf("state = %s index = %d, want PLAYING at 1", s.State, s.Index)
	}
}

func TestEndedAfterRejectedPlayKeepsError(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	res.lastPlay(t) <- errors.New("blocked")

	waitFor(t, "errored state", func() bool { return e.Snapshot().State == StateErrored })
	res.emit(audio.EventEnded)

	s := e.Snapshot()
	if s.State != StateErrored {
		t.Errorf("State = %s, want ERROR", s.State)
	}
	if s.LastError != PlaybackErrorMessage {
		t.Errorf("LastError = %q, want %q", s.LastError, PlaybackErrorMessage)
	}
	if f.count() != 1 {
		t.Errorf("resources = %d, want 1 (no advance)", f.count())
	}
}

func TestEndedAutoAdvances(t *testing.T) {
	e, f := newTestEngine()
	e.Select(2)
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	res.lastPlay(t) <- nil

	res.emit(audio.EventEnded)

	s := e.Snapshot()
	if s.Index != 0 {
		t.Errorf("Index = %d, want 0 (wrap)", s.Index)
	}
	if s.State != StateLoading {
		t.Errorf("State = %s, want LOADING", s.State)
	}

	next := f.last(t)
	if next == res || next.Source() != "http://example.com/alpha.wav" {
		t.Fatalf("next resource source = %q", next.Source())
	}
	next.emit(audio.EventCanPlay)
	if s := e.Snapshot(); s.State != StatePlaying {
		t.Errorf("after canplay: state = %s, want PLAYING", s.State)
	}
}

func TestEndedWhilePausedDoesNotAdvance(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	e.Pause()
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	res.emit(audio.EventEnded)

	s := e.Snapshot()
	if s.Index != 0 || f.count() != 1 {
		t.Errorf("Index = %d resources = %d, want 0 and 1", s.Index, f.count())
	}
	if s.State != StateReady {
		t.Errorf("State = %s, want READY", s.State)
	}
}

func TestVolumeClamping(t *testing.T) {
	tests := []struct {
		input int
		want  int
	}{
		{150, 100},
		{-20, 0},
		{55, 55},
		{0, 0},
		{100, 100},
	}

	for _, tt := range tests {
		e, f := newTestEngine()
		res := startPlaying(t, e, f)
		e.SetVolume(tt.input)
		e.SetVolume(tt.input)
		if got := e.Snapshot().Volume; got != tt.want {
			t.Errorf("SetVolume(%d) = %d, want %d", tt.input, got, tt.want)
		}
		if res.volume != float64(tt.want)/100 {
			t.Errorf("SetVolume(%d) resource gain = %v", tt.input, res.volume)
		}
	}
}

func TestAdjustVolume(t *testing.T) {
	e, _ := newTestEngine()
	e.AdjustVolume(10)
	if got := e.Snapshot().Volume; got != 100 {
		t.Errorf("Volume = %d, want 100", got)
	}
	e.AdjustVolume(-30)
	if got := e.Snapshot().Volume; got != 70 {
		t.Errorf("Volume = %d, want 70", got)
	}
}

func TestToggleMute(t *testing.T) {
	e, f := newTestEngine()
	res := startPlaying(t, e, f)

	e.ToggleMute()
	if !e.Snapshot().IsMuted || !res.muted {
		t.Error("ToggleMute should mute engine and resource")
	}
	e.ToggleMute()
	if e.Snapshot().IsMuted || res.muted {
		t.Error("second ToggleMute should unmute")
	}
}

func TestSeek(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		percent  float64
		want     float64
	}{
		{"middle", 200, 50, 100},
		{"below range", 200, -10, 0},
		{"above range", 200, 140, 200},
		{"unknown duration", math.NaN(), 50, 0.5},
		{"zero duration", 0, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, f := newTestEngine()
			res := startPlaying(t, e, f)
			res.mu.Lock()
			res.duration = tt.duration
			res.mu.Unlock()

			e.Seek(tt.percent)
			if got := res.CurrentTime(); got != tt.want {
				t.Errorf("currentTime = %v, want %v", got, tt.want)
			}
			if s := e.Snapshot(); s.State != StatePlaying {
				t.Errorf("Seek changed state to %s", s.State)
			}
		})
	}
}

func TestSeekIgnoredWhileLoading(t *testing.T) {
	e, f := newTestEngine()
	e.Play()
	res := f.last(t)
	e.Seek(50)
	if res.CurrentTime() != 0 {
		t.Errorf("Seek while loading moved to %v", res.CurrentTime())
	}
}

func TestTimeUpdateProgress(t *testing.T) {
	e, f := newTestEngine()
	res := startPlaying(t, e, f)

	res.mu.Lock()
	res.duration = 40
	res.currentTime = 10
	res.mu.Unlock()
	res.emit(audio.EventTimeUpdate)

	p := e.Snapshot().Progress
	if p.CurrentTime != 10 || p.Duration != 40 || p.Percent != 25 {
		t.Errorf("Progress = %+v, want 10/40/25", p)
	}
}

func TestEmptyFilterNoOps(t *testing.T) {
	e, f := newTestEngine()
	res := startPlaying(t, e, f)

	e.SetQuery("zzz")
	s := e.Snapshot()
	if s.Track != nil || s.Index != -1 {
		t.Errorf("Track = %v Index = %d, want nil and -1", s.Track, s.Index)
	}
	if s.State != StateIdle || s.IsPlaying {
		t.Errorf("state = %s isPlaying = %v", s.State, s.IsPlaying)
	}
	if !res.closed {
		t.Error("resource should be detached when the selection disappears")
	}

	created := f.count()
	e.Next()
	e.Previous()
	e.Play()
	e.TogglePlay()
	e.Select(0)

	if got := e.Snapshot(); got.Index != -1 || got.State != StateIdle {
		t.Errorf("no-op violated: Index = %d State = %s", got.Index, got.State)
	}
	if f.count() != created {
		t.Errorf("operations on empty list created %d resources", f.count()-created)
	}
}

func TestSetQueryKeepsVisibleSelection(t *testing.T) {
	e, f := newTestEngine()
	e.Select(2)
	res := f.last(t)
	res.emit(audio.EventCanPlay)
	res.lastPlay(t) <- nil

	e.SetQuery("CHAR")
	s := e.Snapshot()
	if s.Index != 0 || s.Track == nil || s.Track.Title != "Charlie" {
		t.Errorf("Index = %d Track = %v, want Charlie at 0", s.Index, s.Track)
	}
	if s.State != StatePlaying || res.closed {
		t.Error("playback should continue when the selected track stays visible")
	}

	e.SetQuery("")
	if s := e.Snapshot(); s.Index != 2 {
		t.Errorf("after clearing query Index = %d, want 2", s.Index)
	}
}

func TestSetQueryClampsIndex(t *testing.T) {
	e, _ := newTestEngine()
	e.Select(2)
	e.SetQuery("a")

	s := e.Snapshot()
	// "Alpha", "Bravo", "Charlie" all contain "a".
	if s.Index != 2 {
		t.Errorf("Index = %d, want 2", s.Index)
	}

	e.SetQuery("alpha")
	s = e.Snapshot()
	if s.Index != 0 || s.State != StateIdle {
		t.Errorf("Index = %d State = %s, want 0 IDLE", s.Index, s.State)
	}
}

func TestSelectTitle(t *testing.T) {
	e, f := newTestEngine()
	if !e.SelectTitle("Bravo") {
		t.Fatal("SelectTitle(Bravo) = false")
	}
	if s := e.Snapshot(); s.Index != 1 || s.State != StateIdle {
		t.Errorf("Index = %d State = %s", s.Index, s.State)
	}
	if f.count() != 0 {
		t.Error("SelectTitle should not load")
	}
	if e.SelectTitle("Missing") {
		t.Error("SelectTitle(Missing) = true")
	}
}

func TestSubscribe(t *testing.T) {
	e, _ := newTestEngine()

	var mu sync.Mutex
	var got []Snapshot
	unsubscribe := e.Subscribe(func(s Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	e.SetVolume(50)
	e.ToggleMute()
	unsubscribe()
	e.SetVolume(20)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("received %d snapshots, want 2", len(got))
	}
	if got[0].Volume != 50 || !got[1].IsMuted {
		t.Errorf("snapshots = %+v", got)
	}
	if got[1].Version <= got[0].Version {
		t.Error("Version should increase")
	}
}

func TestClose(t *testing.T) {
	e, f := newTestEngine()
	res := startPlaying(t, e, f)

	notified := false
	e.Subscribe(func(Snapshot) { notified = true })
	e.Close()

	if !res.closed || res.listenerCount() != 0 {
		t.Error("Close should detach the resource and its listeners")
	}

	e.Next()
	e.SetVolume(10)
	e.Close()
	if notified {
		t.Error("observers notified after Close")
	}
	if f.count() != 1 {
		t.Error("operations after Close created resources")
	}
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		duration float64
		want     Progress
	}{
		{"known", 30, 120, Progress{30, 120, 25, true}},
		{"nan duration", 0.5, math.NaN(), Progress{0.5, 1, 50, false}},
		{"zero duration", 0, 0, Progress{0, 1, 0, false}},
		{"infinite duration", 2, math.Inf(1), Progress{2, 1, 200, false}},
		{"negative current", -3, 10, Progress{0, 10, 0, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeProgress(tt.current, tt.duration); got != tt.want {
				t.Errorf("ComputeProgress(%v, %v) = %+v, want %+v", tt.current, tt.duration, got, tt.want)
			}
		})
	}
}
