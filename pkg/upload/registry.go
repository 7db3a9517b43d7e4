// Package upload tracks the lifecycle of files submitted for ingestion.
// Progress through the upload and processing phases is simulated locally by
// per-record timer drivers; no backend call is made. A real transfer call
// would attach at the start of the uploading phase.
package upload

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the lifecycle stage of a tracked file transfer.
type Phase string

const (
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseReady      Phase = "ready"
	PhaseError      Phase = "error"
)

// Terminal reports whether no further mutation may occur in this phase.
func (p Phase) Terminal() bool { return p == PhaseReady || p == PhaseError }

// FileDescriptor names a file selected for upload.
type FileDescriptor struct {
	Name string
	Size int64
}

// Record is one tracked file transfer. Progress is in [0,100] and is only
// meaningful within the current phase.
type Record struct {
	ID        string
	Name      string
	Size      int64
	Phase     Phase
	Progress  int
	Error     string
	CreatedAt time.Time
}

// Registry owns the set of tracked records. It is the only mutator of record
// state; phase and progress move under the per-record simulator drivers it
// starts.
type Registry struct {
	mu      sync.RWMutex
	cfg     Config
	records map[string]*Record
	order   []string
	stops   map[string]chan struct{}

	eventChan chan string
	subs      []chan string
}

// NewRegistry returns an empty registry driving simulations with cfg.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{
		cfg:       cfg.withDefaults(),
		records:   make(map[string]*Record),
		stops:     make(map[string]chan struct{}),
		eventChan: make(chan string, 100),
	}
	go r.broadcastLoop()
	return r
}

// AddFiles creates one record per descriptor in submission order, starts a
// simulator driver for each, and returns the generated IDs.
func (r *Registry) AddFiles(files []FileDescriptor) []string {
	ids := make([]string, 0, len(files))

	r.mu.Lock()
	for _, f := range files {
		id := uuid.New().String()
		r.records[id] = &Record{
			ID:        id,
			Name:      f.Name,
			Size:      f.Size,
			Phase:     PhaseUploading,
			CreatedAt: time.Now(),
		}
		r.order = append(r.order, id)

		stop := make(chan struct{})
		r.stops[id] = stop
		go r.runDriver(id, stop)

		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.publish(id)
	}
	return ids
}

// Remove deletes the record and synchronously halts its driver. It is a
// no-op if the ID is unknown. Other records' drivers are unaffected.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	if _, ok := r.records[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.records, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.stopDriverLocked(id)
	r.mu.Unlock()
	r.publish(id)
}

// Fail moves the record into the terminal error phase with the given reason
// and halts its driver. The simulator never calls this itself; it exists for
// an externally observed transfer failure.
func (r *Registry) Fail(id, reason string) {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok || rec.Phase.Terminal() {
		r.mu.Unlock()
		return
	}
	rec.Phase = PhaseError
	rec.Error = reason
	r.stopDriverLocked(id)
	r.mu.Unlock()
	r.publish(id)
}

// Records returns a snapshot of all records in submission order.
func (r *Registry) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		if rec, ok := r.records[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Get returns a copy of one record.
func (r *Registry) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Subscribe returns a channel that emits a record ID whenever that record
// changed (including removal).
func (r *Registry) Subscribe() <-chan string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan string, 10)
	r.subs = append(r.subs, ch)
	return ch
}

func (r *Registry) stopDriverLocked(id string) {
	if stop, ok := r.stops[id]; ok {
		close(stop)
		delete(r.stops, id)
	}
}

func (r *Registry) broadcastLoop() {
	for id := range r.eventChan {
		r.mu.RLock()
		for _, sub := range r.subs {
			// Non-blocking send
			select {
			case sub <- id:
			default:
			}
		}
		r.mu.RUnlock()
	}
}

func (r *Registry) publish(id string) {
	select {
	case r.eventChan <- id:
	default:
	}
}
