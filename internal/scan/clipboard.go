package scan

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
)

// Clipboard receives decoded text.
type Clipboard interface {
	Copy(text string) error
}

// WriterClipboard writes each copied text as one line to W.
type WriterClipboard struct {
	W  io.Writer
	mu sync.Mutex
}

// Copy writes text followed by a newline.
func (c *WriterClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.W, text)
	return err
}

// ScanAndCopy decodes img and copies the decoded text to clip.
func ScanAndCopy(ctx context.Context, s *Scanner, img image.Image, clip Clipboard) (Result, error) {
	res, err := s.Scan(ctx, img)
	if err != nil {
		return Result{}, err
	}
	if err := clip.Copy(res.Text); err != nil {
		return res, fmt.Errorf("copy to clipboard: %w", err)
	}
	return res, nil
}
