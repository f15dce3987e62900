package proto

import (
	"sort"
	"strings"
)

// PropList is a property list with dot-separated keys expanded into nested
// levels: "device.description" is stored as {"device": {"description": ...}}.
// Values are either string leaves or nested PropLists. When a key is both a
// leaf and the prefix of other keys, its own value is kept under "".
type PropList map[string]interface{}

// FlatPropList builds a PropList from dotted keys.
func FlatPropList(m map[string]string) PropList {
	p := make(PropList, len(m))
	for k, v := range m {
		p.Set(k, v)
	}
	return p
}

// Set stores value under the dotted key.
func (p PropList) Set(key, value string) {
	segments := strings.Split(key, ".")
	level := p
	for _, s := range segments[:len(segments)-1] {
		switch next := level[s].(type) {
		case PropList:
			level = next
		case string:
			sub := PropList{"": next}
			level[s] = sub
			level = sub
		default:
			sub := PropList{}
			level[s] = sub
			level = sub
		}
	}
	last := segments[len(segments)-1]
	if sub, ok := level[last].(PropList); ok {
		sub[""] = value
		return
	}
	level[last] = value
}

// Get returns the value stored under the dotted key.
func (p PropList) Get(key string) (string, bool) {
	var v interface{} = p
	for _, s := range strings.Split(key, ".") {
		level, ok := v.(PropList)
		if !ok {
			return "", false
		}
		if v, ok = level[s]; !ok {
			return "", false
		}
	}
	switch v := v.(type) {
	case string:
		return v, true
	case PropList:
		s, ok := v[""].(string)
		return s, ok
	}
	return "", false
}

// String returns the value stored under key, or "" if there is none.
func (p PropList) String(key string) string {
	s, _ := p.Get(key)
	return s
}

// Flatten returns the properties keyed by their full dotted names.
func (p PropList) Flatten() map[string]string {
	out := make(map[string]string)
	p.flatten("", out)
	return out
}

func (p PropList) flatten(prefix string, out map[string]string) {
	for k, v := range p {
		key := k
		if prefix != "" {
			key = prefix
			if k != "" {
				key += "." + k
			}
		} else if k == "" {
			continue
		}
		switch v := v.(type) {
		case string:
			out[key] = v
		case PropList:
			v.flatten(key, out)
		case map[string]interface{}:
			PropList(v).flatten(key, out)
		}
	}
}

// Keys returns the sorted dotted keys.
func (p PropList) Keys() []string {
	flat := p.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
