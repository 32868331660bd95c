package orchestrator

import (
	"errors"
	"slices"

	"wallpaper/internal/domain"
	"wallpaper/internal/history"
)

// CycleSeconds is the countdown between automatic generations.
const CycleSeconds = 60

var (
	// ErrLoading is returned when a control is ignored because a cycle is in
	// flight.
	ErrLoading = errors.New("generation in progress")
	// ErrEntryNotFound is returned when a history entry id is unknown.
	ErrEntryNotFound = errors.New("history entry not found")
)

// Trigger names what started a cycle.
type Trigger string

const (
	TriggerStartup    Trigger = "startup"
	TriggerTimer      Trigger = "timer"
	TriggerRegenerate Trigger = "regenerate"
	TriggerSelection  Trigger = "selection"
)

// State is the observable orchestrator state.
type State struct {
	// Current is the displayed wallpaper, nil until the first success.
	Current          *history.Entry
	IsLoading        bool
	Error            string
	ErrorKind        domain.ErrorKind
	IsPaused         bool
	CountdownSeconds int
	Selection        domain.GenerationRequestParams
}

// Snapshot is a copy of the state and history at one version.
type Snapshot struct {
	State
	History []history.Entry
	Version uint64
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	out.History = slices.Clone(s.History)
	return out
}

// machine holds the state transitions. It performs no I/O; the loop decides
// when to start cycles based on its return values.
type machine struct {
	state  State
	ledger *history.Ledger
}

func newMachine(selection domain.GenerationRequestParams) *machine {
	return &machine{
		state: State{
			IsLoading:        true,
			CountdownSeconds: CycleSeconds,
			Selection:        selection,
		},
		ledger: history.NewLedger(),
	}
}

// gated reports whether the countdown timer must not run.
func (m *machine) gated() bool {
	return m.state.IsPaused || m.state.IsLoading
}

// begin marks a cycle as started and returns the parameters it runs with.
func (m *machine) begin() domain.GenerationRequestParams {
	m.state.IsLoading = true
	m.state.Error = ""
	m.state.ErrorKind = domain.KindNone
	return m.state.Selection
}

// tick advances the countdown and reports whether a cycle is due.
func (m *machine) tick() bool {
	if m.gated() {
		return false
	}
	if m.state.CountdownSeconds > 0 {
		m.state.CountdownSeconds--
	}
	return m.state.CountdownSeconds == 0
}

func (m *machine) regenerate() error {
	if m.state.IsLoading {
		return ErrLoading
	}
	return nil
}

func (m *machine) setSelection(patch domain.SelectionPatch) error {
	if m.state.IsLoading {
		return ErrLoading
	}
	merged, err := m.state.Selection.Merge(patch)
	if err != nil {
		return err
	}
	m.state.Selection = merged
	return nil
}

func (m *machine) togglePause() error {
	if m.state.IsLoading {
		return ErrLoading
	}
	m.state.IsPaused = !m.state.IsPaused
	return nil
}

func (m *machine) selectHistory(id string) error {
	if m.state.IsLoading {
		return ErrLoading
	}
	entry, ok := m.ledger.Lookup(id)
	if !ok {
		return ErrEntryNotFound
	}
	m.state.Current = &entry
	m.state.IsPaused = true
	return nil
}

// succeed commits a finished cycle.
func (m *machine) succeed(entry history.Entry) {
	m.state.Current = &entry
	m.ledger.Record(entry)
	m.finish()
}

// fail records a failed cycle, keeping the current wallpaper.
func (m *machine) fail(err error) domain.ErrorKind {
	kind := domain.Classify(err)
	m.state.Error = kind.UserMessage()
	m.state.ErrorKind = kind
	if kind.PausesCycle() {
		m.state.IsPaused = true
	}
	m.finish()
	return kind
}

func (m *machine) finish() {
	m.state.IsLoading = false
	m.state.CountdownSeconds = CycleSeconds
}

func (m *machine) snapshot(version uint64) Snapshot {
	return Snapshot{State: m.state, History: m.ledger.Snapshot(), Version: version}.clone()
}
