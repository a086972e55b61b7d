package log

import "strings"

// CategoryLevels holds minimum levels per dotted category prefix.
type CategoryLevels struct {
	Default    Level
	Categories map[string]Level
}

// MinLevelFor returns the minimum level of the longest configured prefix
// of category, matching on dot boundaries, or Default.
func (c CategoryLevels) MinLevelFor(category string) Level {
	best, bestLen := c.Default, -1
	for prefix, lvl := range c.Categories {
		if len(prefix) <= bestLen {
			continue
		}
		if category == prefix || strings.HasPrefix(category, prefix+".") {
			best, bestLen = lvl, len(prefix)
		}
	}
	return best
}

// LevelFilter restricts an inner sink by per-category minimum levels.
type LevelFilter struct {
	inner  Sink
	levels CategoryLevels
}

// NewLevelFilter wraps inner with the given category levels.
func NewLevelFilter(inner Sink, levels CategoryLevels) *LevelFilter {
	return &LevelFilter{inner: inner, levels: levels}
}

// Enabled reports whether the inner sink accepts level with the default
// threshold applied.
func (f *LevelFilter) Enabled(level Level) bool {
	return level >= f.levels.Default && f.inner.Enabled(level)
}

// EnabledFor implements CategoryEnabler.
func (f *LevelFilter) EnabledFor(level Level, category string) bool {
	if level < f.levels.MinLevelFor(category) {
		return false
	}
	return Enabled(f.inner, &Entry{Level: level, Category: category})
}

// Write implements Sink.
func (f *LevelFilter) Write(e *Entry, message string) error {
	return f.inner.Write(e, message)
}

// Close closes the inner sink if it supports closing.
func (f *LevelFilter) Close() error {
	if c, ok := f.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

var (
	_ Sink            = (*LevelFilter)(nil)
	_ CategoryEnabler = (*LevelFilter)(nil)
)
