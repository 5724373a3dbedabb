// Package notify shows transient user feedback on the console.
package notify

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jonboulle/clockwork"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

const DefaultDismiss = 5 * time.Second

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

var severityColors = map[Severity]*color.Color{
	Success: color.New(color.FgGreen),
	Error:   color.New(color.FgRed, color.Bold),
	Warning: color.New(color.FgYellow),
	Info:    color.New(color.FgCyan),
}

var severityLabels = map[Severity]string{
	Success: "✔",
	Error:   "✖",
	Warning: "!",
	Info:    "i",
}

type Notification struct {
	ID        int
	Severity  Severity
	Message   string
	CreatedAt time.Time
}

// Presenter prints notifications and forgets each one after the dismiss
// interval. It never retries anything.
type Presenter struct {
	out     io.Writer
	clock   clockwork.Clock
	dismiss time.Duration

	mu     sync.Mutex
	nextID int
	active map[int]Notification
	timers map[int]clockwork.Timer
}

func NewPresenter(out io.Writer, clock clockwork.Clock, dismiss time.Duration) *Presenter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if dismiss <= 0 {
		dismiss = DefaultDismiss
	}
	return &Presenter{
		out:     out,
		clock:   clock,
		dismiss: dismiss,
		active:  make(map[int]Notification),
		timers:  make(map[int]clockwork.Timer),
	}
}

func (p *Presenter) Notify(sev Severity, message string) Notification {
	p.mu.Lock()
	p.nextID++
	n := Notification{
		ID:        p.nextID,
		Severity:  sev,
		Message:   message,
		CreatedAt: p.clock.Now(),
	}
	p.active[n.ID] = n
	p.timers[n.ID] = p.clock.AfterFunc(p.dismiss, func() { p.Dismiss(n.ID) })
	p.mu.Unlock()

	logger.Logger.WithField("severity", string(sev)).Debug(message)
	p.print(n)
	return n
}

func (p *Presenter) Success(message string) { p.Notify(Success, message) }
func (p *Presenter) Error(message string)   { p.Notify(Error, message) }
func (p *Presenter) Warning(message string) { p.Notify(Warning, message) }
func (p *Presenter) Info(message string)    { p.Notify(Info, message) }

func (p *Presenter) print(n Notification) {
	if p.out == nil {
		return
	}
	c, ok := severityColors[n.Severity]
	if !ok {
		c = color.New(color.Reset)
	}
	c.Fprintf(p.out, "%s %s\n", severityLabels[n.Severity], n.Message)
}

// Dismiss removes a notification before its timer fires.
func (p *Presenter) Dismiss(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[id]; ok {
		t.Stop()
		delete(p.timers, id)
	}
	delete(p.active, id)
}

// Active returns the notifications that have not been dismissed, oldest first.
func (p *Presenter) Active() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := make([]Notification, 0, len(p.active))
	for _, n := range p.active {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Close stops all pending dismiss timers.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}
