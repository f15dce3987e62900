package proto

import (
	"fmt"
	"strconv"
)

// Error is an error code as sent by the server in an ERROR reply. The same
// codes describe failures detected locally, as libpulse does.
type Error uint32

const (
	// ErrUnspecified is what an ERROR reply carrying code 0 decodes to.
	// Servers are not supposed to send it.
	ErrUnspecified Error = iota
	ErrAccessDenied
	ErrUnknownCommand
	ErrInvalidArgument
	ErrEntityExists
	ErrNoSuchEntity
	ErrConnectionRefused
	ErrProtocolError
	ErrTimeout
	ErrNoAuthenticationKey
	ErrInternalError
	ErrConnectionTerminated
	ErrEntityKilled
	ErrInvalidServer
	ErrModuleInitializationFailed
	ErrBadState
	ErrNoData
	ErrIncompatibleProtocolVersion
	ErrTooLarge
	ErrNotSupported
	ErrUnknownErrorCode
	ErrNoSuchExtension
	ErrObsoleteFunctionality
	ErrMissingImplementation
	ErrClientForked
	ErrInputOutputError
	ErrDeviceOrResourceBusy
)

var errorMessages = [...]string{
	ErrUnspecified:                 "pulseaudio: error reply without error code",
	ErrAccessDenied:                "pulseaudio: access denied",
	ErrUnknownCommand:              "pulseaudio: unknown command",
	ErrInvalidArgument:             "pulseaudio: invalid argument",
	ErrEntityExists:                "pulseaudio: entity exists",
	ErrNoSuchEntity:                "pulseaudio: no such entity",
	ErrConnectionRefused:           "pulseaudio: connection refused",
	ErrProtocolError:               "pulseaudio: protocol error",
	ErrTimeout:                     "pulseaudio: timeout",
	ErrNoAuthenticationKey:         "pulseaudio: no authentication key",
	ErrInternalError:               "pulseaudio: internal error",
	ErrConnectionTerminated:        "pulseaudio: connection terminated",
	ErrEntityKilled:                "pulseaudio: entity killed",
	ErrInvalidServer:               "pulseaudio: invalid server",
	ErrModuleInitializationFailed:  "pulseaudio: module initialization failed",
	ErrBadState:                    "pulseaudio: bad state",
	ErrNoData:                      "pulseaudio: no data",
	ErrIncompatibleProtocolVersion: "pulseaudio: incompatible protocol version",
	ErrTooLarge:                    "pulseaudio: too large",
	ErrNotSupported:                "pulseaudio: not supported",
	ErrUnknownErrorCode:            "pulseaudio: unknown error code",
	ErrNoSuchExtension:             "pulseaudio: no such extension",
	ErrObsoleteFunctionality:       "pulseaudio: obsolete functionality",
	ErrMissingImplementation:       "pulseaudio: missing implementation",
	ErrClientForked:                "pulseaudio: client forked",
	ErrInputOutputError:            "pulseaudio: input/output error",
	ErrDeviceOrResourceBusy:        "pulseaudio: device or resource busy",
}

func (e Error) Error() string {
	if int(e) < len(errorMessages) {
		return errorMessages[e]
	}
	return "pulseaudio: unknown error code " + strconv.FormatUint(uint64(e), 10)
}

// A DecodeError reports a malformed packet. It matches ErrProtocolError.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pulseaudio: malformed packet at offset %d: %s", e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrProtocolError }
