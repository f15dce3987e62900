// Package x11prop reads string properties of the X11 root window, where
// the sound server publishes its address and cookie for the session.
package x11prop

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// maxLength is the property length requested, in 32 bit units.
const maxLength = 1 << 16

// Read returns the values of the named properties on the root window of
// the default screen of display. Properties that are not set are missing
// from the result.
func Read(display string, names ...string) (map[string]string, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("x11prop: connect to %q: %w", display, err)
	}
	defer conn.Close()

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	out := make(map[string]string, len(names))
	for _, name := range names {
		atom, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
		if err != nil {
			return nil, fmt.Errorf("x11prop: intern %s: %w", name, err)
		}
		if atom.Atom == xproto.AtomNone {
			continue
		}
		prop, err := xproto.GetProperty(conn, false, root, atom.Atom, xproto.GetPropertyTypeAny, 0, maxLength).Reply()
		if err != nil {
			return nil, fmt.Errorf("x11prop: get %s: %w", name, err)
		}
		if prop.Format != 8 || len(prop.Value) == 0 {
			continue
		}
		out[name] = string(prop.Value)
	}
	return out, nil
}
