package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/hishamahamad/stafford-gpt-ui/pkg/gateway"
)

// FailureNotice replaces an assistant placeholder when the gateway call fails.
const FailureNotice = "Sorry, I couldn't reach the knowledge base. Please try again in a moment."

// Greetings seed each mode's timeline at startup and on Clear.
var greetings = map[Mode]string{
	ModeCustomer: "Hello! I'm the Stafford assistant. Ask me anything about our programmes, admissions or fees.",
	ModeInternal: "Internal knowledge base ready. Queries here may surface restricted documents.",
}

// Greeting returns the system greeting for a mode.
func Greeting(mode Mode) string { return greetings[mode] }

var (
	// ErrEmptyQuery is returned when the trimmed query text is empty.
	// Callers treat it as a silent skip.
	ErrEmptyQuery = errors.New("empty query")
	// ErrQueryInFlight is returned when the mode already has an outstanding
	// call. Callers treat it as a silent skip.
	ErrQueryInFlight = errors.New("query already in flight for mode")
	// ErrUnknownMode is returned for a mode the manager does not maintain.
	ErrUnknownMode = errors.New("unknown conversation mode")
)

// QueryClient is the slice of the gateway the manager depends on.
type QueryClient interface {
	Query(ctx context.Context, req gateway.QueryRequest) (*gateway.QueryResponse, error)
}

// session is one mode's isolated state: its timeline, its continuity token
// and whether a call is outstanding. Modes never share or merge sessions.
type session struct {
	timeline *Timeline
	token    string
	inflight bool
}

// Manager orchestrates send/receive cycles against the per-mode
// timeline/token pairs and exposes the single active mode to the UI.
type Manager struct {
	mu       sync.RWMutex
	gateway  QueryClient
	sessions map[Mode]*session
	active   Mode

	eventChan chan Mode
	subs      []chan Mode
}

// NewManager returns a manager with a fresh greeted timeline and an empty
// token slot per mode. The customer mode starts active.
func NewManager(gw QueryClient) *Manager {
	m := &Manager{
		gateway:   gw,
		sessions:  make(map[Mode]*session, len(Modes)),
		active:    ModeCustomer,
		eventChan: make(chan Mode, 100),
	}
	for _, mode := range Modes {
		m.sessions[mode] = &session{timeline: NewTimeline(greetings[mode])}
	}
	go m.broadcastLoop()
	return m
}

// Send appends the user's text and a typing placeholder to the mode's
// timeline, then resolves the gateway call in the background. Empty text and
// an outstanding call for the same mode are validation skips; the two modes'
// calls are independent and may be concurrent.
func (m *Manager) Send(ctx context.Context, mode Mode, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyQuery
	}

	m.mu.Lock()
	s, ok := m.sessions[mode]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownMode
	}
	if s.inflight {
		m.mu.Unlock()
		return ErrQueryInFlight
	}

	s.inflight = true
	s.timeline.Append(RoleUser, text)
	placeholderID, err := s.timeline.AppendPending()
	if err != nil {
		// Can't happen while inflight tracking holds, but don't wedge the mode.
		s.inflight = false
		m.mu.Unlock()
		return err
	}
	token := s.token
	m.mu.Unlock()
	m.publish(mode)

	go m.resolve(ctx, mode, text, token, placeholderID)
	return nil
}

// resolve performs the gateway call for one Send and routes the outcome back
// to the originating mode, regardless of which mode is active by then.
func (m *Manager) resolve(ctx context.Context, mode Mode, text, token, placeholderID string) {
	resp, err := m.gateway.Query(ctx, gateway.QueryRequest{
		Query:     text,
		Namespace: string(mode),
		SessionID: token,
	})

	m.mu.Lock()
	s := m.sessions[mode]
	s.inflight = false
	if err != nil {
		slog.Error("Query failed", "mode", mode, "error", err)
		s.timeline.Resolve(placeholderID, FailureNotice, nil)
		// Token untouched on failure.
	} else {
		if !s.timeline.Resolve(placeholderID, resp.Answer, toCitations(resp.Sources)) {
			// Timeline was cleared while the call was outstanding; drop the
			// answer rather than orphan it.
			slog.Debug("Dropping answer for cleared timeline", "mode", mode)
		}
		if resp.SessionID != "" && resp.SessionID != s.token {
			s.token = resp.SessionID
		}
	}
	m.mu.Unlock()
	m.publish(mode)
}

// Clear replaces the mode's timeline with a single fresh greeting. The
// continuity token is preserved: a fresh greeting does not imply a fresh
// backend session.
func (m *Manager) Clear(mode Mode) error {
	m.mu.Lock()
	s, ok := m.sessions[mode]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownMode
	}
	s.timeline.Reset(greetings[mode])
	m.mu.Unlock()
	m.publish(mode)
	return nil
}

// SwitchMode changes which timeline/token pair is visible and operable.
// It never mutates either pair and never touches the network.
func (m *Manager) SwitchMode(mode Mode) error {
	if !mode.Valid() {
		return ErrUnknownMode
	}
	m.mu.Lock()
	m.active = mode
	m.mu.Unlock()
	return nil
}

// Active returns the currently selected mode.
func (m *Manager) Active() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Messages returns a copy of the mode's timeline.
func (m *Manager) Messages(mode Mode) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[mode]
	if !ok {
		return nil
	}
	return s.timeline.Messages()
}

// Token returns the mode's continuity token, empty if no session has been
// established yet.
func (m *Manager) Token(mode Mode) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[mode]
	if !ok {
		return ""
	}
	return s.token
}

// InFlight reports whether the mode has an outstanding gateway call. The UI
// disables submission for such a mode.
func (m *Manager) InFlight(mode Mode) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[mode]
	return ok && s.inflight
}

// Subscribe returns a channel that emits a mode whenever that mode's state
// changed and a re-render is due.
func (m *Manager) Subscribe() <-chan Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Mode, 10)
	m.subs = append(m.subs, ch)
	return ch
}

func (m *Manager) broadcastLoop() {
	for mode := range m.eventChan {
		m.mu.RLock()
		for _, sub := range m.subs {
			// Non-blocking send
			select {
			case sub <- mode:
			default:
			}
		}
		m.mu.RUnlock()
	}
}

func (m *Manager) publish(mode Mode) {
	select {
	case m.eventChan <- mode:
	default:
	}
}

func toCitations(sources []gateway.Source) []Citation {
	if len(sources) == 0 {
		return nil
	}
	citations := make([]Citation, 0, len(sources))
	for _, src := range sources {
		citations = append(citations, Citation{
			Source:   src.Source,
			Excerpt:  src.Text,
			Score:    src.Score,
			Internal: src.Internal,
		})
	}
	return citations
}
