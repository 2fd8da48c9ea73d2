package roombus

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/types/name"
)

// Room represents a conferencing room. A limit of -1 means unlimited.
type Room struct {
	ID               uuid.UUID
	Name             name.Name
	ParticipantLimit int
	InputLimit       int
	Roles            []Role
	Views            []View
	CreatedAt        time.Time
}

// RoleNames returns the names of the declared roles in order.
func (r Room) RoleNames() []string {
	names := make([]string, len(r.Roles))
	for i, rl := range r.Roles {
		names[i] = rl.Name
	}
	return names
}

// HasRole reports whether the room declares a role with exactly this name.
func (r Room) HasRole(role string) bool {
	return slices.ContainsFunc(r.Roles, func(rl Role) bool {
		return rl.Name == role
	})
}

// NewRoom contains information needed to create a new room. Nil Roles or
// Views take the defaults.
type NewRoom struct {
	Name             name.Name
	ParticipantLimit int
	InputLimit       int
	Roles            []Role
	Views            []View
}

// =============================================================================

// Role names a participant class and what it may send and receive.
type Role struct {
	Name      string     `json:"role"`
	Publish   Capability `json:"publish"`
	Subscribe Capability `json:"subscribe"`
}

// Capability is the audio/video matrix of a role.
type Capability struct {
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

// DefaultRoles is the role set of a room created without roles.
func DefaultRoles() []Role {
	return []Role{
		{Name: "presenter", Publish: Capability{Audio: true, Video: true}, Subscribe: Capability{Audio: true, Video: true}},
		{Name: "viewer", Publish: Capability{}, Subscribe: Capability{Audio: true, Video: true}},
		{Name: "guest", Publish: Capability{Audio: true, Video: true}, Subscribe: Capability{Audio: true, Video: true}},
	}
}

// =============================================================================

// View is one mixed output of the room. Audio and Video are either disabled
// (encoded as false) or carry their settings.
type View struct {
	Label string            `json:"label"`
	Audio Feature[AudioMix] `json:"audio"`
	Video Feature[VideoMix] `json:"video"`
}

// AudioMix configures the mixed audio of a view.
type AudioMix struct {
	Format AudioFormat `json:"format"`
	VAD    bool        `json:"vad"`
}

// AudioFormat identifies an audio codec.
type AudioFormat struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sampleRate,omitempty"`
	ChannelNum int    `json:"channelNum,omitempty"`
}

// VideoMix configures the mixed video of a view.
type VideoMix struct {
	Format                 VideoFormat     `json:"format"`
	Parameters             VideoParameters `json:"parameters"`
	MaxInput               int             `json:"maxInput"`
	BgColor                Color           `json:"bgColor"`
	MotionFactor           float64         `json:"motionFactor"`
	KeepActiveInputPrimary bool            `json:"keepActiveInputPrimary"`
	Layout                 Layout          `json:"layout"`
}

// VideoFormat identifies a video codec.
type VideoFormat struct {
	Codec   string `json:"codec"`
	Profile string `json:"profile,omitempty"`
}

// VideoParameters are the encoding parameters of the mixed video.
type VideoParameters struct {
	Resolution       Resolution `json:"resolution"`
	Framerate        int        `json:"framerate"`
	Bitrate          int        `json:"bitrate,omitempty"`
	KeyFrameInterval int        `json:"keyFrameInterval"`
}

// Resolution in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Color is an RGB background color.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Layout controls how inputs are placed in the mixed video.
type Layout struct {
	FitPolicy string `json:"fitPolicy"`
}

// DefaultViews is the view set of a room created without views.
func DefaultViews() []View {
	return []View{
		{
			Label: "common",
			Audio: On(AudioMix{
				Format: AudioFormat{Codec: "opus", SampleRate: 48000, ChannelNum: 2},
				VAD:    true,
			}),
			Video: On(VideoMix{
				Format: VideoFormat{Codec: "h264"},
				Parameters: VideoParameters{
					Resolution:       Resolution{Width: 640, Height: 480},
					Framerate:        24,
					KeyFrameInterval: 100,
				},
				MaxInput:     16,
				MotionFactor: 0.8,
				Layout:       Layout{FitPolicy: "letterbox"},
			}),
		},
	}
}
