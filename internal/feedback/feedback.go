// Package feedback holds per-category coaching messages and builds the
// end-of-session report.
package feedback

import (
	"sync"
)

type Category string

const (
	CategorySpeech     Category = "speech"
	CategoryEyeContact Category = "eyeContact"
	CategoryTechnical  Category = "technical"
)

// Item is one category/message pair in wire form.
type Item struct {
	Category Category `json:"type"`
	Message  string   `json:"message"`
}

// categoryOrder fixes snapshot ordering for display and persistence.
var categoryOrder = []Category{CategorySpeech, CategoryEyeContact, CategoryTechnical}

// Aggregator keeps only the latest message per category. Analyzer callbacks
// arrive from independent event sources in no guaranteed order; each category
// is written independently so any interleaving is safe.
type Aggregator struct {
	mu       sync.Mutex
	latest   map[Category]string
	onUpdate func(Item)
}

// NewAggregator builds an empty aggregator. onUpdate may be nil; when set it
// receives every accepted update for live display.
func NewAggregator(onUpdate func(Item)) *Aggregator {
	return &Aggregator{
		latest:   make(map[Category]string),
		onUpdate: onUpdate,
	}
}

// Set overwrites the latest message for one category.
func (a *Aggregator) Set(category Category, message string) {
	if message == "" {
		return
	}
	a.mu.Lock()
	a.latest[category] = message
	onUpdate := a.onUpdate
	a.mu.Unlock()

	if onUpdate != nil {
		onUpdate(Item{Category: category, Message: message})
	}
}

// Latest returns the current message for a category.
func (a *Aggregator) Latest(category Category) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	message, ok := a.latest[category]
	return message, ok
}

// Snapshot returns the current per-category messages in stable order.
func (a *Aggregator) Snapshot() []Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	items := make([]Item, 0, len(a.latest))
	for _, category := range categoryOrder {
		if message, ok := a.latest[category]; ok {
			items = append(items, Item{Category: category, Message: message})
		}
	}
	return items
}

// Reset discards all messages for a new session.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.latest = make(map[Category]string)
}
