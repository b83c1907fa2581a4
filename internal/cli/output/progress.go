package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Progress draws a single-line counter bar, e.g. while verifying records.
type Progress struct {
	w       io.Writer
	title   string
	total   int
	current int
	width   int
	mu      sync.Mutex
}

// NewProgress creates a progress bar over total items.
func NewProgress(w io.Writer, title string, total int) *Progress {
	return &Progress{
		w:     w,
		title: title,
		total: total,
		width: 30,
	}
}

// Increment advances the bar by one item.
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.render()
}

// Finish completes the bar and ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

func (p *Progress) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, p.current)
		return
	}

	current := p.current
	if current > p.total {
		current = p.total
	}
	filled := p.width * current / p.total
	bar := strings.Repeat("#", filled) + strings.Repeat(".", p.width-filled)
	fmt.Fprintf(p.w, "\r%s [%s] %d/%d", p.title, bar, current, p.total)
}
