// Package catalog is a read-only projection over the backend's list of
// ingested documents. It fetches and filters; it never mutates or writes
// back.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/hishamahamad/stafford-gpt-ui/pkg/gateway"
)

// Lister is the slice of the gateway the view depends on.
type Lister interface {
	ListDocuments(ctx context.Context) (*gateway.DocumentList, error)
}

// View holds the last successfully fetched document list and the error, if
// any, of the most recent fetch attempt.
type View struct {
	mu      sync.RWMutex
	lister  Lister
	docs    []gateway.Document
	total   int
	lastErr error
}

// NewView returns an empty view backed by the given lister.
func NewView(lister Lister) *View {
	return &View{lister: lister}
}

// Refresh fetches the document list. On failure the previously loaded list
// is left untouched and the error is retained for the UI banner; a later
// success clears it.
func (v *View) Refresh(ctx context.Context) error {
	list, err := v.lister.ListDocuments(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.lastErr = err
		return err
	}
	v.docs = list.Documents
	v.total = list.Total
	v.lastErr = nil
	return nil
}

// Documents returns a copy of the last successfully loaded list.
func (v *View) Documents() []gateway.Document {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]gateway.Document, len(v.docs))
	copy(out, v.docs)
	return out
}

// Total returns the backend-reported total document count.
func (v *View) Total() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.total
}

// Err returns the error of the most recent fetch, nil if it succeeded.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

// Filter narrows the loaded list: case-insensitive substring match of query
// against source and content preview, exact match on docType and namespace
// when non-empty.
func (v *View) Filter(query, docType, namespace string) []gateway.Document {
	v.mu.RLock()
	defer v.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))

	var out []gateway.Document
	for _, d := range v.docs {
		if docType != "" && d.DocType != docType {
			continue
		}
		if namespace != "" && d.Namespace != namespace {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(d.Source), query) &&
			!strings.Contains(strings.ToLower(d.ContentPreview), query) {
			continue
		}
		out = append(out, d)
	}
	return out
}
