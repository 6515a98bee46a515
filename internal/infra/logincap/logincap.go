// Package logincap serves per-host login capabilities from the daemon
// configuration.
//
// Capabilities live under login_cap.<class>.<key>. A key missing from the
// selected class falls back to login_cap.default.<key>, then to the
// caller's default. Values are read on every call, so a configuration
// reload takes effect for the next transaction.
package logincap

import (
	"strconv"
	"strings"

	"github.com/yndnr/sod-go/internal/core/domain"
)

// Prefix is the configuration section holding capability classes.
const Prefix = "login_cap"

// DefaultClass is the class consulted when the selected one lacks a key.
const DefaultClass = "default"

// Source is the configuration view capabilities are read from.
// confloader.Loader implements it.
type Source interface {
	Exists(key string) bool
	Get(key string) any
}

var _ domain.Capabilities = (*Capabilities)(nil)

// Capabilities reads one login class.
type Capabilities struct {
	src   Source
	class string
}

// New returns the capabilities of class. An empty class selects
// DefaultClass.
func New(src Source, class string) *Capabilities {
	if class == "" {
		class = DefaultClass
	}
	return &Capabilities{src: src, class: class}
}

// Class returns the selected login class.
func (c *Capabilities) Class() string { return c.class }

func (c *Capabilities) lookup(key string) (any, bool) {
	if c == nil || c.src == nil {
		return nil, false
	}
	for _, class := range []string{c.class, DefaultClass} {
		path := Prefix + "." + class + "." + key
		if c.src.Exists(path) {
			return c.src.Get(path), true
		}
		if class == DefaultClass {
			break
		}
	}
	return nil, false
}

// String returns the capability key as a string, or def.
func (c *Capabilities) String(key, def string) string {
	v, ok := c.lookup(key)
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return def
	}
}

// Int returns the capability key as an int, or def when it is missing or
// not numeric.
func (c *Capabilities) Int(key string, def int) int {
	v, ok := c.lookup(key)
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return def
		}
		return i
	default:
		return def
	}
}
