package scan

import "sync"

// memoryClipboard keeps the most recent copied text.
type memoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *memoryClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *memoryClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}
