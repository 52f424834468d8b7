package record

// ///////////////////////////////////////////////
// Milestones
// ///////////////////////////////////////////////

// Milestone is one of the timeline events the classifier understands. Wire
// names outside this set are preserved in [Record.Extra] but never classified.
type Milestone int

const (
	GoldBlock Milestone = iota
	FoundVillager
	TradeWithVillager
	EnterNether
	EnterFortress
	NetherTravel
	EnterStronghold
	EnterEnd

	milestoneCount
)

// milestoneNames maps each [Milestone] to its timeline wire name.
var milestoneNames = [milestoneCount]string{
	GoldBlock:         "pick_gold_block",
	FoundVillager:     "found_villager",
	TradeWithVillager: "trade_with_villager",
	EnterNether:       "enter_nether",
	EnterFortress:     "enter_fortress",
	NetherTravel:      "nether_travel",
	EnterStronghold:   "enter_stronghold",
	EnterEnd:          "enter_end",
}

var milestonesByName = func() map[string]Milestone {
	m := make(map[string]Milestone, milestoneCount)
	for i, name := range milestoneNames {
		m[name] = Milestone(i)
	}
	return m
}()

// String returns the wire name, or "unknown" for out-of-range values.
func (m Milestone) String() string {
	if m < 0 || m >= milestoneCount {
		return "unknown"
	}
	return milestoneNames[m]
}

// ParseMilestone looks up a timeline wire name.
func ParseMilestone(name string) (Milestone, bool) {
	m, ok := milestonesByName[name]
	return m, ok
}

// AllMilestones returns every known milestone in declaration order.
func AllMilestones() []Milestone {
	out := make([]Milestone, milestoneCount)
	for i := range out {
		out[i] = Milestone(i)
	}
	return out
}
