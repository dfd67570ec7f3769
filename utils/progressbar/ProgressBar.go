// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"strings"
	"time"
)

// ProgressBar prints a progress bar to the terminal window. Progress
// is measured on a fixed scale of max units, set with Set or advanced
// with Increment, and printed with Display. ProgressBar redraws in
// place, so nothing else should write to the terminal between Display
// calls.
type ProgressBar struct {
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
}

// New returns a new ProgressBar that is width characters wide and
// reaches 100% when progress reaches max units.
func New(width, max int) *ProgressBar {
	return &ProgressBar{
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
	}
}

// Increment advances the internal progress counter by one unit
func (p *ProgressBar) Increment() {
	p.Set(int(p.currentProgress) + 1)
}

// Set sets the internal progress counter to progress units, clipped
// to [0, max]
func (p *ProgressBar) Set(progress int) {
	p.currentProgress = float64(progress)
	if p.currentProgress > p.maxProgress {
		p.currentProgress = p.maxProgress
	}
	if p.currentProgress < 0 {
		p.currentProgress = 0
	}
}

// Display redraws the progress bar on the current terminal line
func (p *ProgressBar) Display() {
	p.bar.Reset()
	p.bar.WriteString("|")

	currentProg := p.currentProgress / p.maxProgress * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	p.bar.WriteString(fmt.Sprintf("| [%.2f%% | elapsed: %v]",
		p.currentProgress/p.maxProgress*100,
		time.Since(p.startTime).Truncate(time.Second)))

	fmt.Printf("\n\033[1A\033[K%v", p.bar.String())
}

// Close completes the bar and moves the terminal to a fresh line. The
// bar should not be used afterwards.
func (p *ProgressBar) Close() {
	p.Set(int(p.maxProgress))
	p.Display()
	fmt.Println()
}
