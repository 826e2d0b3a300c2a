package wled

import (
	"encoding/json"
	"fmt"
)

// RGB is a single colour value. Each channel is 0-255.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// String returns the colour as "r,g,b"
func (c RGB) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// Triplet returns the colour in the [r,g,b] form used by the WLED JSON API
func (c RGB) Triplet() []int {
	return []int{c.R, c.G, c.B}
}

// Baseline is the configuration pushed to every device after it comes back
// from a firmware update.
type Baseline struct {
	Power      bool // Maps to "on"
	Brightness int  // Maps to "bri" (0-255)
	Color      RGB  // Maps to seg[0].col[0]
}

// DefaultBaseline returns the post-flash state applied when nothing else is
// configured: on, brightness 64, violet.
func DefaultBaseline() Baseline {
	return Baseline{
		Power:      true,
		Brightness: 64,
		Color:      RGB{R: 50, G: 20, B: 110},
	}
}

// ToState converts the baseline into the JSON state document accepted by
// POST /json/state
func (b Baseline) ToState() *State {
	on := b.Power
	bri := b.Brightness
	return &State{
		On:  &on,
		Bri: &bri,
		Seg: []Segment{
			{Col: [][]int{b.Color.Triplet()}},
		},
	}
}

// State is the WLED state object, as sent to POST /json/state and as
// received in the "state" member of websocket messages.
//
// Only the fields this tool writes or verifies are modelled; unknown fields
// are ignored on decode.
type State struct {
	On  *bool     `json:"on,omitempty"`
	Bri *int      `json:"bri,omitempty"`
	Seg []Segment `json:"seg,omitempty"`
}

// Segment is one LED segment. Col holds up to three colour slots, each an
// [r,g,b] or [r,g,b,w] array.
type Segment struct {
	Col [][]int `json:"col,omitempty"`
}

// PrimaryColor returns the first colour slot of the first segment, if any
func (s *State) PrimaryColor() (RGB, bool) {
	if len(s.Seg) == 0 || len(s.Seg[0].Col) == 0 || len(s.Seg[0].Col[0]) < 3 {
		return RGB{}, false
	}
	c := s.Seg[0].Col[0]
	return RGB{R: c[0], G: c[1], B: c[2]}, true
}

// Info is the subset of GET /json/info this tool reports on
type Info struct {
	Version string `json:"ver"`  // Firmware version, e.g. "0.15.0"
	Build   int    `json:"vid"`  // Build id, e.g. 2412100
	Name    string `json:"name"` // Friendly name
	MAC     string `json:"mac"`
	Arch    string `json:"arch"` // "esp32", "esp8266", ...
	Brand   string `json:"brand"`
	Product string `json:"product"`
}

// StateResponse is the body returned by POST /json/state. Newer firmware
// returns {"success":true}; some revisions return the full state instead,
// and some return nothing at all.
type StateResponse struct {
	Success *bool `json:"success,omitempty"`
}

// Confirmed reports whether the response explicitly acknowledged the update
func (r *StateResponse) Confirmed() bool {
	return r != nil && r.Success != nil && *r.Success
}

// wsMessage is the full-state frame pushed by the /ws endpoint
type wsMessage struct {
	State *State          `json:"state"`
	Info  json.RawMessage `json:"info,omitempty"`
}
