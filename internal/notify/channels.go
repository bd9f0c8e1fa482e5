package notify

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gen2brain/beeep"
)

// centerChannel delivers through the notification center, the primary
// UI channel and first in the fallback preference order.
type centerChannel struct {
	center *Center
}

// NewCenterChannel wraps the notification center as a delivery channel.
func NewCenterChannel(center *Center) Channel {
	return &centerChannel{center: center}
}

func (c *centerChannel) Name() string { return "toast" }
func (c *centerChannel) Probe() bool  { return c.center != nil }

func (c *centerChannel) Deliver(n Notification) error {
	n.AutoHide = true
	c.center.Render(n)
	return nil
}

// desktopChannel delivers native OS notifications.
type desktopChannel struct {
	enabled bool
}

// NewDesktopChannel creates the OS notification channel. enabled=false
// (config opt-out) makes the probe fail so the chain skips it.
func NewDesktopChannel(enabled bool) Channel {
	return &desktopChannel{enabled: enabled}
}

func (c *desktopChannel) Name() string { return "desktop" }
func (c *desktopChannel) Probe() bool  { return c.enabled }

func (c *desktopChannel) Deliver(n Notification) error {
	title := n.Title
	if title == "" {
		title = "Vedfolnir"
	}
	return beeep.Notify(title, n.Message, "")
}

// bannerChannel prints a plain one-line banner.
type bannerChannel struct {
	w io.Writer
}

// NewBannerChannel creates the plain-text banner channel.
func NewBannerChannel(w io.Writer) Channel {
	return &bannerChannel{w: w}
}

func (c *bannerChannel) Name() string { return "banner" }
func (c *bannerChannel) Probe() bool  { return c.w != nil }

func (c *bannerChannel) Deliver(n Notification) error {
	_, err := fmt.Fprintf(c.w, "[%s] %s\n", n.Type, n.Message)
	return err
}

// logChannel writes notifications to the structured log.
type logChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates the structured-log channel.
func NewLogChannel(log *slog.Logger) Channel {
	return &logChannel{logger: log}
}

func (c *logChannel) Name() string { return "log" }
func (c *logChannel) Probe() bool  { return c.logger != nil }

func (c *logChannel) Deliver(n Notification) error {
	switch n.Type {
	case TypeError:
		c.logger.Error(n.Message, "notification", true)
	case TypeWarning:
		c.logger.Warn(n.Message, "notification", true)
	default:
		c.logger.Info(n.Message, "notification", true)
	}
	return nil
}

// titleFlashChannel sets the terminal title and rings the bell. Last in
// the chain.
type titleFlashChannel struct {
	w io.Writer
}

// NewTitleFlashChannel creates the terminal-title flash channel.
func NewTitleFlashChannel(w io.Writer) Channel {
	return &titleFlashChannel{w: w}
}

func (c *titleFlashChannel) Name() string { return "title_flash" }

func (c *titleFlashChannel) Probe() bool {
	f, ok := c.w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func (c *titleFlashChannel) Deliver(n Notification) error {
	// OSC 2 sets the window title; BEL both terminates the sequence and
	// rings the terminal bell.
	_, err := fmt.Fprintf(c.w, "\033]2;(!) %s\a", n.Message)
	return err
}
