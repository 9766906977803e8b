package application

import (
	"strings"
	"sync"

	"voice-cart/internal/domain"
)

// Cart is the in-memory list of selected products. Lines are keyed by
// display name, compared case-insensitively with surrounding space trimmed.
type Cart struct {
	mu    sync.RWMutex
	lines []domain.CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) Lines() []domain.CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]domain.CartLine, len(c.lines))
	copy(result, c.lines)
	return result
}

func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}

// AddOrUpdate appends a line for p, or overwrites the quantity of the
// existing line. It reports whether a new line was created.
func (c *Cart) AddOrUpdate(p domain.Product, quantity float64, unit string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(p.Name); i >= 0 {
		c.lines[i].Quantity = quantity
		return false
	}

	c.lines = append(c.lines, domain.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  quantity,
		Unit:      unit,
	})
	return true
}

// SetQuantity overwrites the quantity of the line matching name.
func (c *Cart) SetQuantity(name string, quantity float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(name)
	if i < 0 {
		return false
	}
	c.lines[i].Quantity = quantity
	return true
}

// Remove drops every line matching name and returns how many went.
func (c *Cart) Remove(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := normalizeName(name)
	kept := make([]domain.CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		if normalizeName(l.Name) != key {
			kept = append(kept, l)
		}
	}
	removed := len(c.lines) - len(kept)
	c.lines = kept
	return removed
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

func (c *Cart) indexOf(name string) int {
	key := normalizeName(name)
	for i, l := range c.lines {
		if normalizeName(l.Name) == key {
			return i
		}
	}
	return -1
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
