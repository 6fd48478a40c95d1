// Package pause lets the user suspend a playlist run between items: a key
// pressed while the current item downloads flags a pause, which takes effect
// once that item finishes.
package pause

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/term"
)

// Controller watches the keyboard for a pause request and blocks between
// playlist items while the pause is active. On a non-terminal stdin the
// controller degrades to a no-op: Enable does nothing and WaitIfPaused
// returns immediately.
type Controller struct {
	pauseKey  byte
	resumeKey byte
	out       io.Writer

	requested atomic.Bool

	mu       sync.Mutex
	enabled  bool
	oldState *term.State
	keys     chan byte
	stop     chan struct{}
}

// NewController creates a controller listening for the given keys. Keys are
// single characters; empty strings fall back to 'p' and 'r'.
func NewController(pauseKey, resumeKey string) *Controller {
	c := &Controller{pauseKey: 'p', resumeKey: 'r', out: os.Stdout}
	if pauseKey != "" {
		c.pauseKey = lowerByte(pauseKey[0])
	}
	if resumeKey != "" {
		c.resumeKey = lowerByte(resumeKey[0])
	}
	return c
}

// Enable puts the terminal into raw mode and starts the key listener. It is
// a no-op when stdin is not a terminal or the listener is already running.
func (c *Controller) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw terminal: %w", err)
	}
	c.oldState = oldState
	c.enabled = true
	c.keys = make(chan byte, 8)
	c.stop = make(chan struct{})

	go c.listen(c.keys, c.stop)
	return nil
}

// Disable stops the listener and restores the terminal state.
func (c *Controller) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}
	c.enabled = false
	close(c.stop)
	if c.oldState != nil {
		_ = term.Restore(int(os.Stdin.Fd()), c.oldState)
		c.oldState = nil
	}
}

func (c *Controller) listen(keys chan byte, stop chan struct{}) {
	buf := make([]byte, 1)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		c.handleKey(buf[0], keys)
	}
}

// handleKey routes one keypress: the pause key flags a pause request, other
// keys are forwarded for WaitIfPaused to inspect.
func (c *Controller) handleKey(key byte, keys chan byte) {
	key = lowerByte(key)
	if key == c.pauseKey && !c.requested.Load() {
		c.requested.Store(true)
		fmt.Fprintf(c.out, "\r\nPause requested, takes effect after the current download...\r\n")
		return
	}
	select {
	case keys <- key:
	default:
	}
}

// WaitIfPaused blocks until the resume key (or Enter) is pressed, but only
// when a pause was requested. Without an active listener the request is
// simply cleared.
func (c *Controller) WaitIfPaused() {
	if !c.requested.Load() {
		return
	}

	c.mu.Lock()
	keys := c.keys
	stop := c.stop
	enabled := c.enabled
	c.mu.Unlock()

	fmt.Fprintf(c.out, "\r\n=== PAUSED ===\r\n")
	fmt.Fprintf(c.out, "Press '%c' or Enter to resume, Ctrl+C to quit...\r\n", c.resumeKey)

	if !enabled || keys == nil {
		c.requested.Store(false)
		return
	}

	for {
		var key byte
		select {
		case key = <-keys:
		case <-stop:
			c.requested.Store(false)
			return
		}
		if key == c.resumeKey || key == '\r' || key == '\n' {
			break
		}
		if key == 3 { // Ctrl+C in raw mode
			c.Disable()
			fmt.Fprintf(c.out, "\r\nInterrupted\r\n")
			os.Exit(130)
		}
	}
	c.requested.Store(false)
	fmt.Fprintf(c.out, "Resuming downloads...\r\n\r\n")
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
