package proto

import (
	"math"
	"strconv"
)

const (
	OpError   = 0
	OpTimeout = 1
	OpReply   = 2

	OpCreatePlaybackStream = 3
	OpDeletePlaybackStream = 4
	OpCreateRecordStream   = 5
	OpDeleteRecordStream   = 6

	OpExit          = 7
	OpAuth          = 8
	OpSetClientName = 9

	OpLookupSink          = 10
	OpLookupSource        = 11
	OpDrainPlaybackStream = 12
	OpStat                = 13
	OpGetPlaybackLatency  = 14
	OpCreateUploadStream  = 15
	OpDeleteUploadStream  = 16
	OpFinishUploadStream  = 17
	OpPlaySample          = 18
	OpRemoveSample        = 19

	OpGetServerInfo           = 20
	OpGetSinkInfo             = 21
	OpGetSinkInfoList         = 22
	OpGetSourceInfo           = 23
	OpGetSourceInfoList       = 24
	OpGetModuleInfo           = 25
	OpGetModuleInfoList       = 26
	OpGetClientInfo           = 27
	OpGetClientInfoList       = 28
	OpGetSinkInputInfo        = 29
	OpGetSinkInputInfoList    = 30
	OpGetSourceOutputInfo     = 31
	OpGetSourceOutputInfoList = 32
	OpGetSampleInfo           = 33
	OpGetSampleInfoList       = 34
	OpSubscribe               = 35

	OpSetSinkVolume         = 36
	OpSetSinkInputVolume    = 37
	OpSetSourceVolume       = 38
	OpSetSinkMute           = 39
	OpSetSourceMute         = 40
	OpCorkPlaybackStream    = 41
	OpFlushPlaybackStream   = 42
	OpTriggerPlaybackStream = 43

	OpSetDefaultSink        = 44
	OpSetDefaultSource      = 45
	OpSetPlaybackStreamName = 46
	OpSetRecordStreamName   = 47
	OpKillClient            = 48
	OpKillSinkInput         = 49
	OpKillSourceOutput      = 50

	OpLoadModule   = 51
	OpUnloadModule = 52

	// 4 obsolete commands

	OpGetRecordLatency     = 57
	OpCorkRecordStream     = 58
	OpFlushRecordStream    = 59
	OpPrebufPlaybackStream = 60

	OpRequest              = 61 // server -> client
	OpOverflow             = 62 // server -> client
	OpUnderflow            = 63 // server -> client
	OpPlaybackStreamKilled = 64 // server -> client
	OpRecordStreamKilled   = 65 // server -> client
	OpSubscribeEvent       = 66 // server -> client

	OpMoveSinkInput                  = 67
	OpMoveSourceOutput               = 68
	OpSetSinkInputMute               = 69
	OpSuspendSink                    = 70
	OpSuspendSource                  = 71
	OpSetPlaybackStreamBufferAttr    = 72
	OpSetRecordStreamBufferAttr      = 73
	OpUpdatePlaybackStreamSampleRate = 74
	OpUpdateRecordStreamSampleRate   = 75

	OpPlaybackStreamSuspended = 76 // server -> client
	OpRecordStreamSuspended   = 77 // server -> client
	OpPlaybackStreamMoved     = 78 // server -> client
	OpRecordStreamMoved       = 79 // server -> client

	OpUpdateRecordStreamProplist   = 80
	OpUpdatePlaybackStreamProplist = 81
	OpUpdateClientProplist         = 82
	OpRemoveRecordStreamProplist   = 83
	OpRemovePlaybackStreamProplist = 84
	OpRemoveClientProplist         = 85

	OpStarted = 86 // server -> client

	OpExtension = 87

	OpGetCardInfo     = 88
	OpGetCardInfoList = 89
	OpSetCardProfile  = 90

	OpClientEvent               = 91 // server -> client
	OpPlaybackStreamEvent       = 92 // server -> client
	OpRecordStreamEvent         = 93 // server -> client
	OpPlaybackBufferAttrChanged = 94 // server -> client
	OpRecordBufferAttrChanged   = 95 // server -> client

	OpSetSinkPort           = 96
	OpSetSourcePort         = 97
	OpSetSourceOutputVolume = 98
	OpSetSourceOutputMute   = 99

	OpSetPortLatencyOffset = 100

	OpEnableSRBChannel  = 101
	OpDisableSRBChannel = 102

	OpRegisterMemfdShmid = 103
)

// RequestArgs is implemented by the argument struct of every command.
type RequestArgs interface{ command() uint32 }

// Reply is implemented by the reply struct of every command that has one.
// A reply struct whose fields the codec cannot decode fails the request
// with a *DecodeError and closes the connection.
type Reply interface{ IsReplyTo() uint32 }

// validator is implemented by requests that check their arguments before
// anything is sent.
type validator interface{ validate() error }

// Command returns the command number a request is sent with.
func Command(req RequestArgs) uint32 { return req.command() }

// Validate checks the arguments of a request.
func Validate(req RequestArgs) error {
	if v, ok := req.(validator); ok {
		return v.validate()
	}
	return nil
}

func checkIndex(what string, idx uint32) error {
	if idx == Undefined {
		return invalidf("%s index %#x is reserved", what, idx)
	}
	return nil
}

func checkName(what, name string) error {
	if name == "" {
		return invalidf("empty %s name", what)
	}
	return nil
}

// CookieLength is the size of an authentication cookie.
const CookieLength = 256

type Auth struct {
	Version Version
	Cookie  []byte
}
type AuthReply struct {
	Version Version
}

func (a *Auth) validate() error {
	if len(a.Cookie) != CookieLength {
		return invalidf("cookie of %d bytes", len(a.Cookie))
	}
	return nil
}

// SetClientName carries the client properties. Servers before version 13
// only accept the application name.
type SetClientName struct {
	Props PropList "13"
	Name  string   "<13"
}
type SetClientNameReply struct {
	ClientIndex Index "13"
}

type LookupSink struct{ SinkName string }
type LookupSinkReply struct{ SinkIndex Index }

type LookupSource struct{ SourceName string }
type LookupSourceReply struct{ SourceIndex Index }

func (l *LookupSink) validate() error   { return checkName("sink", l.SinkName) }
func (l *LookupSource) validate() error { return checkName("source", l.SourceName) }

type GetServerInfo struct{}
type GetServerInfoReply struct {
	PackageName    string
	PackageVersion string
	Username       string
	Hostname       string

	DefaultSampleSpec SampleSpec
	DefaultSinkName   string
	DefaultSourceName string

	Cookie uint32

	DefaultChannelMap ChannelMap "15"
}

type GetSinkInfo struct{ Sink Selector }
type GetSinkInfoReply struct {
	SinkIndex          Index
	SinkName           string
	Description        string
	SampleSpec         SampleSpec
	ChannelMap         ChannelMap
	ModuleIndex        Index
	ChannelVolumes     ChannelVolumes
	Mute               bool
	MonitorSourceIndex Index
	MonitorSourceName  string
	Latency            Microseconds
	Driver             string
	Flags              SinkFlags

	Properties       PropList     "13"
	RequestedLatency Microseconds "13"

	BaseVolume     Volume      "15"
	State          DeviceState "15"
	NumVolumeSteps uint32      "15"
	CardIndex      Index       "15"

	Ports          []Port "16"
	ActivePortName string "16"

	Formats []FormatInfo "21"
}

type GetSourceInfo struct{ Source Selector }
type GetSourceInfoReply struct {
	SourceIndex       Index
	SourceName        string
	Description       string
	SampleSpec        SampleSpec
	ChannelMap        ChannelMap
	ModuleIndex       Index
	ChannelVolumes    ChannelVolumes
	Mute              bool
	MonitorOfSink     Index
	MonitorOfSinkName string
	Latency           Microseconds
	Driver            string
	Flags             SourceFlags

	Properties       PropList     "13"
	RequestedLatency Microseconds "13"

	BaseVolume     Volume      "15"
	State          DeviceState "15"
	NumVolumeSteps uint32      "15"
	CardIndex      Index       "15"

	Ports          []Port "16"
	ActivePortName string "16"

	Formats []FormatInfo "22"
}

func (g *GetSinkInfo) validate() error   { return g.Sink.validate() }
func (g *GetSourceInfo) validate() error { return g.Source.validate() }

type GetModuleInfo struct{ ModuleIndex uint32 }

// GetModuleInfoReply describes a loaded module. UsageCount is NoIndex when
// the module does not track its users.
type GetModuleInfoReply struct {
	ModuleIndex Index
	ModuleName  string
	Argument    string
	UsageCount  Index

	Properties PropList "15"
	AutoUnload bool     "<15"
}

type GetClientInfo struct{ ClientIndex uint32 }
type GetClientInfoReply struct {
	ClientIndex Index
	Application string
	ModuleIndex Index
	Driver      string

	Properties PropList "13"
}

type GetSinkInputInfo struct{ SinkInputIndex uint32 }
type GetSinkInputInfoReply struct {
	SinkInputIndex Index
	MediaName      string
	ModuleIndex    Index
	ClientIndex    Index
	SinkIndex      Index
	SampleSpec     SampleSpec
	ChannelMap     ChannelMap
	ChannelVolumes ChannelVolumes
	BufferLatency  Microseconds
	SinkLatency    Microseconds
	ResampleMethod string
	Driver         string

	Muted bool "11"

	Properties PropList "13"

	Corked bool "19"

	HasVolume      bool "20"
	VolumeWritable bool "20"

	Format FormatInfo "21"
}

type GetSourceOutputInfo struct{ SourceOutputIndex uint32 }
type GetSourceOutputInfoReply struct {
	SourceOutputIndex Index
	MediaName         string
	ModuleIndex       Index
	ClientIndex       Index
	SourceIndex       Index
	SampleSpec        SampleSpec
	ChannelMap        ChannelMap
	BufferLatency     Microseconds
	SourceLatency     Microseconds
	ResampleMethod    string
	Driver            string

	Properties PropList "13"

	Corked bool "19"

	ChannelVolumes ChannelVolumes "22"
	Muted          bool           "22"
	HasVolume      bool           "22"
	VolumeWritable bool           "22"
	Format         FormatInfo     "22"
}

func (g *GetModuleInfo) validate() error { return checkIndex("module", g.ModuleIndex) }
func (g *GetClientInfo) validate() error { return checkIndex("client", g.ClientIndex) }
func (g *GetSinkInputInfo) validate() error {
	return checkIndex("sink input", g.SinkInputIndex)
}
func (g *GetSourceOutputInfo) validate() error {
	return checkIndex("source output", g.SourceOutputIndex)
}

type GetCardInfo struct{ Card Selector }
type GetCardInfoReply struct {
	CardIndex         Index
	CardName          string
	ModuleIndex       Index
	Driver            string
	Profiles          []CardProfile
	ActiveProfileName string
	Properties        PropList

	Ports []CardPort "26"
}

func (g *GetCardInfo) validate() error { return g.Card.validate() }

type GetSinkInfoList struct{}
type GetSourceInfoList struct{}
type GetModuleInfoList struct{}
type GetClientInfoList struct{}
type GetCardInfoList struct{}
type GetSinkInputInfoList struct{}
type GetSourceOutputInfoList struct{}

type GetSinkInfoListReply []*GetSinkInfoReply
type GetSourceInfoListReply []*GetSourceInfoReply
type GetModuleInfoListReply []*GetModuleInfoReply
type GetClientInfoListReply []*GetClientInfoReply
type GetCardInfoListReply []*GetCardInfoReply
type GetSinkInputInfoListReply []*GetSinkInputInfoReply
type GetSourceOutputInfoListReply []*GetSourceOutputInfoReply

type Subscribe struct{ Mask SubscriptionMask }

func (s *Subscribe) validate() error {
	if s.Mask&^SubscriptionMaskAll != 0 {
		return invalidf("unknown subscription mask bits %#x", uint32(s.Mask&^SubscriptionMaskAll))
	}
	return nil
}

type SetSinkVolume struct {
	Sink           Selector
	ChannelVolumes ChannelVolumes
}

type SetSourceVolume struct {
	Source         Selector
	ChannelVolumes ChannelVolumes
}

type SetSinkInputVolume struct {
	SinkInputIndex uint32
	ChannelVolumes ChannelVolumes
}

type SetSourceOutputVolume struct {
	SourceOutputIndex uint32
	ChannelVolumes    ChannelVolumes
}

func (s *SetSinkVolume) validate() error {
	if err := s.Sink.validate(); err != nil {
		return err
	}
	return s.ChannelVolumes.validate()
}

func (s *SetSourceVolume) validate() error {
	if err := s.Source.validate(); err != nil {
		return err
	}
	return s.ChannelVolumes.validate()
}

func (s *SetSinkInputVolume) validate() error {
	if err := checkIndex("sink input", s.SinkInputIndex); err != nil {
		return err
	}
	return s.ChannelVolumes.validate()
}

func (s *SetSourceOutputVolume) validate() error {
	if err := checkIndex("source output", s.SourceOutputIndex); err != nil {
		return err
	}
	return s.ChannelVolumes.validate()
}

type SetSinkMute struct {
	Sink Selector
	Mute bool
}

type SetSourceMute struct {
	Source Selector
	Mute   bool
}

type SetSinkInputMute struct {
	SinkInputIndex uint32
	Mute           bool
}

type SetSourceOutputMute struct {
	SourceOutputIndex uint32
	Mute              bool
}

func (s *SetSinkMute) validate() error   { return s.Sink.validate() }
func (s *SetSourceMute) validate() error { return s.Source.validate() }
func (s *SetSinkInputMute) validate() error {
	return checkIndex("sink input", s.SinkInputIndex)
}
func (s *SetSourceOutputMute) validate() error {
	return checkIndex("source output", s.SourceOutputIndex)
}

type SuspendSink struct {
	Sink    Selector
	Suspend bool
}
type SuspendSource struct {
	Source  Selector
	Suspend bool
}

func (s *SuspendSink) validate() error   { return s.Sink.validate() }
func (s *SuspendSource) validate() error { return s.Source.validate() }

type SetDefaultSink struct{ SinkName string }
type SetDefaultSource struct{ SourceName string }

func (s *SetDefaultSink) validate() error   { return checkName("sink", s.SinkName) }
func (s *SetDefaultSource) validate() error { return checkName("source", s.SourceName) }

type KillClient struct{ ClientIndex uint32 }
type KillSinkInput struct{ SinkInputIndex uint32 }
type KillSourceOutput struct{ SourceOutputIndex uint32 }

func (k *KillClient) validate() error    { return checkIndex("client", k.ClientIndex) }
func (k *KillSinkInput) validate() error { return checkIndex("sink input", k.SinkInputIndex) }
func (k *KillSourceOutput) validate() error {
	return checkIndex("source output", k.SourceOutputIndex)
}

type MoveSinkInput struct {
	SinkInputIndex uint32
	Sink           Selector
}

type MoveSourceOutput struct {
	SourceOutputIndex uint32
	Source            Selector
}

func (m *MoveSinkInput) validate() error {
	if err := checkIndex("sink input", m.SinkInputIndex); err != nil {
		return err
	}
	return m.Sink.validate()
}

func (m *MoveSourceOutput) validate() error {
	if err := checkIndex("source output", m.SourceOutputIndex); err != nil {
		return err
	}
	return m.Source.validate()
}

type SetSinkPort struct {
	Sink Selector
	Port string
}

type SetSourcePort struct {
	Source Selector
	Port   string
}

func (s *SetSinkPort) validate() error {
	if err := s.Sink.validate(); err != nil {
		return err
	}
	return checkName("port", s.Port)
}

func (s *SetSourcePort) validate() error {
	if err := s.Source.validate(); err != nil {
		return err
	}
	return checkName("port", s.Port)
}

type SetCardProfile struct {
	Card    Selector
	Profile string
}

func (s *SetCardProfile) validate() error {
	if err := s.Card.validate(); err != nil {
		return err
	}
	return checkName("profile", s.Profile)
}

// SetPortLatencyOffset sets the latency offset of a card port in
// microseconds.
type SetPortLatencyOffset struct {
	Card   Selector
	Port   string
	Offset int64
}

func (s *SetPortLatencyOffset) validate() error {
	if err := s.Card.validate(); err != nil {
		return err
	}
	if err := checkName("port", s.Port); err != nil {
		return err
	}
	if s.Offset == math.MinInt64 {
		return invalidf("latency offset %d out of range", s.Offset)
	}
	return nil
}

// UpdateMode selects how UpdateClientProplist combines properties.
type UpdateMode uint32

const (
	UpdateSet     UpdateMode = 0 // replace existing keys, keep the others
	UpdateMerge   UpdateMode = 1 // only add keys that are not set yet
	UpdateReplace UpdateMode = 2 // drop all keys first
)

func (m UpdateMode) String() string {
	switch m {
	case UpdateSet:
		return "set"
	case UpdateMerge:
		return "merge"
	case UpdateReplace:
		return "replace"
	}
	return "UpdateMode(" + strconv.FormatUint(uint64(m), 10) + ")"
}

type UpdateClientProplist struct {
	Mode       UpdateMode
	Properties PropList
}

func (u *UpdateClientProplist) validate() error {
	if u.Mode > UpdateReplace {
		return invalidf("unknown update mode %d", uint32(u.Mode))
	}
	if len(u.Properties.Flatten()) == 0 && u.Mode != UpdateReplace {
		return invalidf("no properties")
	}
	return nil
}

type RemoveClientProplist struct {
	Keys KeyList
}

func (r *RemoveClientProplist) validate() error {
	if len(r.Keys) == 0 {
		return invalidf("no keys")
	}
	for _, k := range r.Keys {
		if k == "" {
			return invalidf("empty key")
		}
	}
	return nil
}

func (*Auth) command() uint32                    { return OpAuth }
func (*SetClientName) command() uint32           { return OpSetClientName }
func (*LookupSink) command() uint32              { return OpLookupSink }
func (*LookupSource) command() uint32            { return OpLookupSource }
func (*GetServerInfo) command() uint32           { return OpGetServerInfo }
func (*GetSinkInfo) command() uint32             { return OpGetSinkInfo }
func (*GetSinkInfoList) command() uint32         { return OpGetSinkInfoList }
func (*GetSourceInfo) command() uint32           { return OpGetSourceInfo }
func (*GetSourceInfoList) command() uint32       { return OpGetSourceInfoList }
func (*GetModuleInfo) command() uint32           { return OpGetModuleInfo }
func (*GetModuleInfoList) command() uint32       { return OpGetModuleInfoList }
func (*GetClientInfo) command() uint32           { return OpGetClientInfo }
func (*GetClientInfoList) command() uint32       { return OpGetClientInfoList }
func (*GetSinkInputInfo) command() uint32        { return OpGetSinkInputInfo }
func (*GetSinkInputInfoList) command() uint32    { return OpGetSinkInputInfoList }
func (*GetSourceOutputInfo) command() uint32     { return OpGetSourceOutputInfo }
func (*GetSourceOutputInfoList) command() uint32 { return OpGetSourceOutputInfoList }
func (*GetCardInfo) command() uint32             { return OpGetCardInfo }
func (*GetCardInfoList) command() uint32         { return OpGetCardInfoList }
func (*Subscribe) command() uint32               { return OpSubscribe }
func (*SetSinkVolume) command() uint32           { return OpSetSinkVolume }
func (*SetSinkInputVolume) command() uint32      { return OpSetSinkInputVolume }
func (*SetSourceVolume) command() uint32         { return OpSetSourceVolume }
func (*SetSourceOutputVolume) command() uint32   { return OpSetSourceOutputVolume }
func (*SetSinkMute) command() uint32             { return OpSetSinkMute }
func (*SetSourceMute) command() uint32           { return OpSetSourceMute }
func (*SetSinkInputMute) command() uint32        { return OpSetSinkInputMute }
func (*SetSourceOutputMute) command() uint32     { return OpSetSourceOutputMute }
func (*SuspendSink) command() uint32             { return OpSuspendSink }
func (*SuspendSource) command() uint32           { return OpSuspendSource }
func (*SetDefaultSink) command() uint32          { return OpSetDefaultSink }
func (*SetDefaultSource) command() uint32        { return OpSetDefaultSource }
func (*KillClient) command() uint32              { return OpKillClient }
func (*KillSinkInput) command() uint32           { return OpKillSinkInput }
func (*KillSourceOutput) command() uint32        { return OpKillSourceOutput }
func (*MoveSinkInput) command() uint32           { return OpMoveSinkInput }
func (*MoveSourceOutput) command() uint32        { return OpMoveSourceOutput }
func (*SetSinkPort) command() uint32             { return OpSetSinkPort }
func (*SetSourcePort) command() uint32           { return OpSetSourcePort }
func (*SetCardProfile) command() uint32          { return OpSetCardProfile }
func (*SetPortLatencyOffset) command() uint32    { return OpSetPortLatencyOffset }
func (*UpdateClientProplist) command() uint32    { return OpUpdateClientProplist }
func (*RemoveClientProplist) command() uint32    { return OpRemoveClientProplist }

func (*AuthReply) IsReplyTo() uint32                    { return OpAuth }
func (*SetClientNameReply) IsReplyTo() uint32           { return OpSetClientName }
func (*LookupSinkReply) IsReplyTo() uint32              { return OpLookupSink }
func (*LookupSourceReply) IsReplyTo() uint32            { return OpLookupSource }
func (*GetServerInfoReply) IsReplyTo() uint32           { return OpGetServerInfo }
func (*GetSinkInfoReply) IsReplyTo() uint32             { return OpGetSinkInfo }
func (*GetSinkInfoListReply) IsReplyTo() uint32         { return OpGetSinkInfoList }
func (*GetSourceInfoReply) IsReplyTo() uint32           { return OpGetSourceInfo }
func (*GetSourceInfoListReply) IsReplyTo() uint32       { return OpGetSourceInfoList }
func (*GetModuleInfoReply) IsReplyTo() uint32           { return OpGetModuleInfo }
func (*GetModuleInfoListReply) IsReplyTo() uint32       { return OpGetModuleInfoList }
func (*GetClientInfoReply) IsReplyTo() uint32           { return OpGetClientInfo }
func (*GetClientInfoListReply) IsReplyTo() uint32       { return OpGetClientInfoList }
func (*GetSinkInputInfoReply) IsReplyTo() uint32        { return OpGetSinkInputInfo }
func (*GetSinkInputInfoListReply) IsReplyTo() uint32    { return OpGetSinkInputInfoList }
func (*GetSourceOutputInfoReply) IsReplyTo() uint32     { return OpGetSourceOutputInfo }
func (*GetSourceOutputInfoListReply) IsReplyTo() uint32 { return OpGetSourceOutputInfoList }
func (*GetCardInfoReply) IsReplyTo() uint32             { return OpGetCardInfo }
func (*GetCardInfoListReply) IsReplyTo() uint32         { return OpGetCardInfoList }

// SubscribeEvent is sent by the server, with tag NoTag, for every change
// matching the subscription mask.
type SubscribeEvent struct {
	Event SubscriptionEventType
	Index Index
}

var opNames = map[uint32]string{
	OpError:                   "Error",
	OpReply:                   "Reply",
	OpAuth:                    "Auth",
	OpSetClientName:           "SetClientName",
	OpLookupSink:              "LookupSink",
	OpLookupSource:            "LookupSource",
	OpGetServerInfo:           "GetServerInfo",
	OpGetSinkInfo:             "GetSinkInfo",
	OpGetSinkInfoList:         "GetSinkInfoList",
	OpGetSourceInfo:           "GetSourceInfo",
	OpGetSourceInfoList:       "GetSourceInfoList",
	OpGetModuleInfo:           "GetModuleInfo",
	OpGetModuleInfoList:       "GetModuleInfoList",
	OpGetClientInfo:           "GetClientInfo",
	OpGetClientInfoList:       "GetClientInfoList",
	OpGetSinkInputInfo:        "GetSinkInputInfo",
	OpGetSinkInputInfoList:    "GetSinkInputInfoList",
	OpGetSourceOutputInfo:     "GetSourceOutputInfo",
	OpGetSourceOutputInfoList: "GetSourceOutputInfoList",
	OpGetCardInfo:             "GetCardInfo",
	OpGetCardInfoList:         "GetCardInfoList",
	OpSubscribe:               "Subscribe",
	OpSubscribeEvent:          "SubscribeEvent",
	OpSetSinkVolume:           "SetSinkVolume",
	OpSetSinkInputVolume:      "SetSinkInputVolume",
	OpSetSourceVolume:         "SetSourceVolume",
	OpSetSourceOutputVolume:   "SetSourceOutputVolume",
	OpSetSinkMute:             "SetSinkMute",
	OpSetSourceMute:           "SetSourceMute",
	OpSetSinkInputMute:        "SetSinkInputMute",
	OpSetSourceOutputMute:     "SetSourceOutputMute",
	OpSuspendSink:             "SuspendSink",
	OpSuspendSource:           "SuspendSource",
	OpSetDefaultSink:          "SetDefaultSink",
	OpSetDefaultSource:        "SetDefaultSource",
	OpKillClient:              "KillClient",
	OpKillSinkInput:           "KillSinkInput",
	OpKillSourceOutput:        "KillSourceOutput",
	OpMoveSinkInput:           "MoveSinkInput",
	OpMoveSourceOutput:        "MoveSourceOutput",
	OpSetSinkPort:             "SetSinkPort",
	OpSetSourcePort:           "SetSourcePort",
	OpSetCardProfile:          "SetCardProfile",
	OpSetPortLatencyOffset:    "SetPortLatencyOffset",
	OpUpdateClientProplist:    "UpdateClientProplist",
	OpRemoveClientProplist:    "RemoveClientProplist",
}

// OpName returns the name of a command, for logs and metrics.
func OpName(op uint32) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "Op(" + strconv.FormatUint(uint64(op), 10) + ")"
}
