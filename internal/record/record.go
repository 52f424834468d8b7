// Package record parses SpeedRunIGT run-record documents into a normalized,
// temporally ordered set of milestone timestamps plus run-level flags.
//
// Parsing is a pure function of the input bytes. Required top-level fields
// that are missing or of the wrong type yield an error wrapping
// [ErrMalformedRecord]; optional fields are represented as nil pointers.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedRecord is wrapped by every error returned from [Parse].
var ErrMalformedRecord = errors.New("malformed run record")

// SurvivalMode is the default_gamemode value for survival worlds.
const SurvivalMode = 0

// RandomSeed is the run_type tag for random-seed runs.
const RandomSeed = "random_seed"

// PearlItem is the crafted-statistics key for ender pearls.
const PearlItem = "minecraft:ender_pearl"

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Event is one timeline entry as recorded in the document.
type Event struct {
	Name string `json:"name"`
	// RTA is real time since the run started, in milliseconds.
	RTA int64 `json:"rta"`
	// IGT is in-game time since the run started, in milliseconds.
	IGT int64 `json:"igt"`
}

// Record is the parsed form of one run-record file.
type Record struct {
	GameMode      int
	RunType       string
	CheatsAllowed bool
	Coop          bool
	Completed     bool

	// OpenLAN is the RTA at which the world was opened to LAN; nil if never.
	OpenLAN    *int64
	FinalRTA   *int64
	RetimedIGT *int64

	// Timeline is every entry in document order, before the LAN cutoff.
	Timeline []Event

	// Milestones maps each known milestone reached before the LAN cutoff to
	// its IGT. The first occurrence of a name wins.
	Milestones map[Milestone]int64
	// Extra holds unknown timeline names that survived the LAN cutoff.
	Extra map[string]int64

	// EnderPearlsCrafted is nil when the stats block is absent or malformed.
	EnderPearlsCrafted *int
}

// Has reports whether the run reached m.
func (r *Record) Has(m Milestone) bool {
	_, ok := r.Milestones[m]
	return ok
}

// At returns the IGT of m and whether it was reached.
func (r *Record) At(m Milestone) (int64, bool) {
	v, ok := r.Milestones[m]
	return v, ok
}

// OpenedToLAN reports whether the record carries an open_lan time.
func (r *Record) OpenedToLAN() bool { return r.OpenLAN != nil }

// Reached returns the known milestones in the order they were reached.
func (r *Record) Reached() []Milestone {
	out := make([]Milestone, 0, len(r.Milestones))
	for m := range r.Milestones {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := r.Milestones[out[i]], r.Milestones[out[j]]
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

// ///////////////////////////////////////////////
// Parsing
// ///////////////////////////////////////////////

// wireEvent mirrors a timeline entry with pointer fields so missing keys can
// be told apart from zero values.
type wireEvent struct {
	Name *string `json:"name"`
	RTA  *int64  `json:"rta"`
	IGT  *int64  `json:"igt"`
}

// Parse decodes one run-record document. Events with an RTA at or after the
// open_lan time are excluded from [Record.Milestones]: anything reached once
// the world is shared is not attributable to solo play.
func Parse(data []byte) (*Record, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrMalformedRecord)
	}

	r := &Record{
		Milestones: make(map[Milestone]int64),
		Extra:      make(map[string]int64),
	}

	if err := requireField(top, "default_gamemode", &r.GameMode); err != nil {
		return nil, err
	}
	if err := requireField(top, "is_cheat_allowed", &r.CheatsAllowed); err != nil {
		return nil, err
	}
	if err := requireField(top, "is_coop", &r.Coop); err != nil {
		return nil, err
	}
	if err := requireField(top, "is_completed", &r.Completed); err != nil {
		return nil, err
	}

	var events []wireEvent
	if err := requireField(top, "timelines", &events); err != nil {
		return nil, err
	}

	// run_type is absent in older records; a mistyped value is still malformed.
	if raw, ok := top["run_type"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &r.RunType); err != nil {
			return nil, fmt.Errorf("%w: field run_type: %v", ErrMalformedRecord, err)
		}
	}

	r.OpenLAN = optionalInt(top, "open_lan")
	r.FinalRTA = optionalInt(top, "final_rta")
	r.RetimedIGT = optionalInt(top, "retimed_igt")

	r.Timeline = make([]Event, 0, len(events))
	for i, we := range events {
		if we.Name == nil || we.RTA == nil || we.IGT == nil {
			return nil, fmt.Errorf("%w: timelines[%d] is missing name, rta or igt", ErrMalformedRecord, i)
		}
		ev := Event{Name: *we.Name, RTA: *we.RTA, IGT: *we.IGT}
		r.Timeline = append(r.Timeline, ev)

		if r.OpenLAN != nil && ev.RTA >= *r.OpenLAN {
			continue
		}
		if m, ok := ParseMilestone(ev.Name); ok {
			if _, seen := r.Milestones[m]; !seen {
				r.Milestones[m] = ev.IGT
			}
			continue
		}
		if _, seen := r.Extra[ev.Name]; !seen {
			r.Extra[ev.Name] = ev.IGT
		}
	}

	r.EnderPearlsCrafted = craftedCount(top["stats"], PearlItem)
	return r, nil
}

// requireField decodes top[name] into dst, failing when the key is absent,
// null, or of the wrong JSON type.
func requireField(top map[string]json.RawMessage, name string, dst any) error {
	raw, ok := top[name]
	if !ok || isNull(raw) {
		return fmt.Errorf("%w: missing field %s", ErrMalformedRecord, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrMalformedRecord, name, err)
	}
	return nil
}

// optionalInt returns nil when the key is absent, null or not an integer.
func optionalInt(top map[string]json.RawMessage, name string) *int64 {
	raw, ok := top[name]
	if !ok || isNull(raw) {
		return nil
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// craftedCount walks stats.<player>.stats["minecraft:crafted"][item]. The
// lexically first player key is used so results are deterministic. Any
// missing or mistyped level yields nil.
func craftedCount(raw json.RawMessage, item string) *int {
	if isNull(raw) {
		return nil
	}
	var players map[string]json.RawMessage
	if err := json.Unmarshal(raw, &players); err != nil || len(players) == 0 {
		return nil
	}
	keys := make([]string, 0, len(players))
	for k := range players {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var player struct {
		Stats map[string]map[string]json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal(players[keys[0]], &player); err != nil {
		return nil
	}
	countRaw, ok := player.Stats["minecraft:crafted"][item]
	if !ok {
		return nil
	}
	var n int
	if err := json.Unmarshal(countRaw, &n); err != nil {
		return nil
	}
	return &n
}
