// Package notify carries transient, human-readable feedback about task
// mutations. It is a side channel: nothing in the task store depends on
// whether a notification was shown.
package notify

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Severity selects how a notification is styled.
type Severity string

const (
	Success Severity = "success"
	Warning Severity = "warning"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3 * time.Second

// Emitter receives notifications.
type Emitter interface {
	Notify(message string, severity Severity)
}

// Notification is one message with the sequence number it was issued under.
type Notification struct {
	Seq      uint64
	Message  string
	Severity Severity
}

// Center keeps the single visible notification. A newer notification
// replaces an older one whether or not the older one has expired.
type Center struct {
	ttl     time.Duration
	seq     uint64
	current *Notification
}

// NewCenter returns a Center whose notifications last ttl.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl}
}

// Notify replaces the current notification.
func (c *Center) Notify(message string, severity Severity) {
	c.seq++
	c.current = &Notification{Seq: c.seq, Message: message, Severity: severity}
}

// Current returns the visible notification, if any.
func (c *Center) Current() (Notification, bool) {
	if c.current == nil {
		return Notification{}, false
	}
	return *c.current, true
}

// Seq returns the sequence number of the last notification issued.
func (c *Center) Seq() uint64 {
	return c.seq
}

// Expire clears the current notification if it is still seq.
// Expiry timers for replaced notifications are no-ops.
func (c *Center) Expire(seq uint64) {
	if c.current != nil && c.current.Seq == seq {
		c.current = nil
	}
}

// TTL returns how long notifications stay visible.
func (c *Center) TTL() time.Duration {
	return c.ttl
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
)

// Style returns the lipgloss style for severity.
func Style(severity Severity) lipgloss.Style {
	if severity == Warning {
		return warningStyle
	}
	return successStyle
}

// Icon returns the glyph shown before a message of severity.
func Icon(severity Severity) string {
	if severity == Warning {
		return "!"
	}
	return "✓"
}

// Printer writes each notification as one line.
type Printer struct {
	W io.Writer
}

func (p Printer) Notify(message string, severity Severity) {
	fmt.Fprintln(p.W, Style(severity).Render(Icon(severity)+" "+message))
}

// Discard drops notifications.
type Discard struct{}

func (Discard) Notify(string, Severity) {}
