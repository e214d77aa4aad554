package convert

import (
	"sync"

	"clipbook/document"
)

// accumulator holds normalized documents between accumulate calls. All
// mutation is serialized: the hotkey handler and any background caller can
// race freely.
type accumulator struct {
	mu   sync.Mutex
	docs []*document.Document
}

// add appends a document and returns the new count.
func (a *accumulator) add(doc *document.Document) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.docs = append(a.docs, doc)
	return len(a.docs)
}

func (a *accumulator) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.docs)
}

// combine merges everything accumulated, in capture order, and clears the
// state. Clearing happens only after the merged document exists, so a failed
// combine never loses accumulated content.
func (a *accumulator) combine() (*document.Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.docs) == 0 {
		return nil, fail(EmptyInput, nil, "accumulator is empty")
	}
	merged := document.Merge(a.docs...)
	a.docs = nil
	return merged, nil
}

func (a *accumulator) clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.docs = nil
}
