package proto

import (
	"strconv"
	"strings"
)

// SubscriptionMask selects the facilities a client receives events for.
type SubscriptionMask uint32

const (
	SubscriptionMaskNull         SubscriptionMask = 0x0000
	SubscriptionMaskSink         SubscriptionMask = 0x0001
	SubscriptionMaskSource       SubscriptionMask = 0x0002
	SubscriptionMaskSinkInput    SubscriptionMask = 0x0004
	SubscriptionMaskSourceOutput SubscriptionMask = 0x0008
	SubscriptionMaskModule       SubscriptionMask = 0x0010
	SubscriptionMaskClient       SubscriptionMask = 0x0020
	SubscriptionMaskSampleCache  SubscriptionMask = 0x0040
	SubscriptionMaskServer       SubscriptionMask = 0x0080
	SubscriptionMaskAutoload     SubscriptionMask = 0x0100
	SubscriptionMaskCard         SubscriptionMask = 0x0200
	SubscriptionMaskAll          SubscriptionMask = 0x02ff
)

// SubscriptionEventType packs the facility and the kind of change of a
// subscription event.
type SubscriptionEventType uint32

const (
	EventSink         SubscriptionEventType = 0x0000
	EventSource       SubscriptionEventType = 0x0001
	EventSinkInput    SubscriptionEventType = 0x0002
	EventSourceOutput SubscriptionEventType = 0x0003
	EventModule       SubscriptionEventType = 0x0004
	EventClient       SubscriptionEventType = 0x0005
	EventSampleCache  SubscriptionEventType = 0x0006
	EventServer       SubscriptionEventType = 0x0007
	EventAutoload     SubscriptionEventType = 0x0008
	EventCard         SubscriptionEventType = 0x0009
	EventFacilityMask SubscriptionEventType = 0x000F

	EventNew      SubscriptionEventType = 0x0000
	EventChange   SubscriptionEventType = 0x0010
	EventRemove   SubscriptionEventType = 0x0020
	EventTypeMask SubscriptionEventType = 0x0030
)

var facilityNames = [...]string{
	EventSink:         "sink",
	EventSource:       "source",
	EventSinkInput:    "sink-input",
	EventSourceOutput: "source-output",
	EventModule:       "module",
	EventClient:       "client",
	EventSampleCache:  "sample-cache",
	EventServer:       "server",
	EventAutoload:     "autoload",
	EventCard:         "card",
}

func (e SubscriptionEventType) GetFacility() SubscriptionEventType { return e & EventFacilityMask }
func (e SubscriptionEventType) GetType() SubscriptionEventType     { return e & EventTypeMask }

// Valid reports whether both parts of e are known.
func (e SubscriptionEventType) Valid() bool {
	return e&^(EventFacilityMask|EventTypeMask) == 0 &&
		int(e.GetFacility()) < len(facilityNames) &&
		e.GetType() != EventTypeMask
}

// FacilityName returns the facility as used in event tuples, e.g. "sink-input".
func (e SubscriptionEventType) FacilityName() string {
	if f := int(e.GetFacility()); f < len(facilityNames) {
		return facilityNames[f]
	}
	return "facility(" + strconv.Itoa(int(e.GetFacility())) + ")"
}

// TypeName returns "new", "change" or "remove".
func (e SubscriptionEventType) TypeName() string {
	switch e.GetType() {
	case EventNew:
		return "new"
	case EventChange:
		return "change"
	case EventRemove:
		return "remove"
	}
	return "type(" + strconv.Itoa(int(e.GetType())) + ")"
}

func (e SubscriptionEventType) String() string {
	return e.TypeName() + " " + e.FacilityName()
}

// Mask returns the subscription mask bit of the facility of e.
func (e SubscriptionEventType) Mask() SubscriptionMask {
	return 1 << e.GetFacility()
}

var maskNames = map[string]SubscriptionMask{
	"sink":          SubscriptionMaskSink,
	"source":        SubscriptionMaskSource,
	"sink-input":    SubscriptionMaskSinkInput,
	"source-output": SubscriptionMaskSourceOutput,
	"module":        SubscriptionMaskModule,
	"client":        SubscriptionMaskClient,
	"sample-cache":  SubscriptionMaskSampleCache,
	"server":        SubscriptionMaskServer,
	"autoload":      SubscriptionMaskAutoload,
	"card":          SubscriptionMaskCard,
	"all":           SubscriptionMaskAll,
}

// ParseSubscriptionMask parses a comma separated list of facility names.
func ParseSubscriptionMask(s string) (SubscriptionMask, error) {
	var m SubscriptionMask
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		bit, ok := maskNames[name]
		if !ok {
			return 0, invalidf("unknown facility %q", name)
		}
		m |= bit
	}
	return m, nil
}
