// Package classify maps a parsed run record onto the tracker's fixed taxonomy
// of counter buckets and duration series.
//
// [Classify] is pure: it returns the increments to apply and leaves applying
// them to the caller, so it can be tested against literal milestone sets.
package classify

import (
	"tools.zach/dev/runtracker/internal/record"
)

// ///////////////////////////////////////////////
// Buckets
// ///////////////////////////////////////////////

// Bucket names one session counter.
type Bucket int

const (
	BucketGold Bucket = iota
	BucketVillage
	BucketTrading
	BucketTenPearls
	BucketNether
	BucketFort
	BucketNetherExit
	BucketStronghold
	BucketEndEnter
	BucketFinished

	bucketCount
)

// bucketKeys are the persisted counter field names.
var bucketKeys = [bucketCount]string{
	BucketGold:       "runsWithGold",
	BucketVillage:    "runsWithVillage",
	BucketTrading:    "runsWithTrading",
	BucketTenPearls:  "runsWith10Pearls",
	BucketNether:     "runsWithNether",
	BucketFort:       "runsWithFort",
	BucketNetherExit: "runsWithNetherExit",
	BucketStronghold: "runsWithStronghold",
	BucketEndEnter:   "runsWithEndEnter",
	BucketFinished:   "runsFinished",
}

func (b Bucket) String() string {
	if b < 0 || b >= bucketCount {
		return "unknown"
	}
	return bucketKeys[b]
}

// AllBuckets returns every bucket in declaration order.
func AllBuckets() []Bucket {
	out := make([]Bucket, bucketCount)
	for i := range out {
		out[i] = Bucket(i)
	}
	return out
}

// ///////////////////////////////////////////////
// Series
// ///////////////////////////////////////////////

// Series names one duration series.
type Series int

const (
	SeriesGoldBlock Series = iota
	SeriesVillage
	SeriesNether
	SeriesFortress
	SeriesNetherExit
	SeriesStronghold
	SeriesEndEnter
	SeriesFinish

	seriesCount
)

var seriesKeys = [seriesCount]string{
	SeriesGoldBlock:  "goldBlockPickupTimes",
	SeriesVillage:    "villageEnterTimes",
	SeriesNether:     "netherEnterTimes",
	SeriesFortress:   "fortressEnterTimes",
	SeriesNetherExit: "netherExitTimes",
	SeriesStronghold: "strongholdEnterTimes",
	SeriesEndEnter:   "endEnterTimes",
	SeriesFinish:     "runFinishTimes",
}

func (s Series) String() string {
	if s < 0 || s >= seriesCount {
		return "unknown"
	}
	return seriesKeys[s]
}

// AllSeries returns every series in declaration order.
func AllSeries() []Series {
	out := make([]Series, seriesCount)
	for i := range out {
		out[i] = Series(i)
	}
	return out
}

// SeriesEntry is one duration to append.
type SeriesEntry struct {
	Series Series
	Millis int64
}

// ///////////////////////////////////////////////
// Result
// ///////////////////////////////////////////////

// Result is the outcome of classifying one record.
type Result struct {
	// Tracked is false when the run failed the eligibility gate; Buckets and
	// Series are then empty.
	Tracked bool
	// Regular reports whether the run has the regular insomniac shape.
	Regular bool
	Buckets []Bucket
	Series  []SeriesEntry
}

// Has reports whether b is among the result's bucket increments.
func (r Result) Has(b Bucket) bool {
	for _, x := range r.Buckets {
		if x == b {
			return true
		}
	}
	return false
}

// Saves reports whether applying r should trigger a session save: the run
// incremented at least one bucket.
func (r Result) Saves() bool {
	return r.Tracked && len(r.Buckets) > 0
}

// ///////////////////////////////////////////////
// Classification
// ///////////////////////////////////////////////

// PearlThreshold is the crafted ender pearl count for [BucketTenPearls].
const PearlThreshold = 10

// milestoneBuckets maps single milestones to their counter. Nether exit is
// handled separately because either of two milestones satisfies it.
var milestoneBuckets = []struct {
	m record.Milestone
	b Bucket
}{
	{record.GoldBlock, BucketGold},
	{record.FoundVillager, BucketVillage},
	{record.TradeWithVillager, BucketTrading},
	{record.EnterNether, BucketNether},
	{record.EnterFortress, BucketFort},
	{record.EnterStronghold, BucketStronghold},
	{record.EnterEnd, BucketEndEnter},
}

// regularChain is the causal order of the early-game series. Appending stops
// at the first missing milestone.
var regularChain = []struct {
	m record.Milestone
	s Series
}{
	{record.GoldBlock, SeriesGoldBlock},
	{record.FoundVillager, SeriesVillage},
	{record.EnterNether, SeriesNether},
	{record.EnterFortress, SeriesFortress},
	{record.NetherTravel, SeriesNetherExit},
}

// Eligible reports whether r passes the tracking gate: survival, random seed
// (when the record carries a run type), no cheats, no coop.
func Eligible(r *record.Record) bool {
	if r == nil {
		return false
	}
	if r.GameMode != record.SurvivalMode {
		return false
	}
	if r.RunType != "" && r.RunType != record.RandomSeed {
		return false
	}
	return !r.CheatsAllowed && !r.Coop
}

// IsRegular reports whether the run has the regular insomniac shape: the gold
// block was picked up and either no village was found or the village was found
// strictly after the gold block.
func IsRegular(r *record.Record) bool {
	gold, ok := r.At(record.GoldBlock)
	if !ok {
		return false
	}
	village, ok := r.At(record.FoundVillager)
	return !ok || village > gold
}

// finishedSolo reports whether a completion is attributable to the player: the
// world was never opened to LAN, or was opened strictly after the final time.
func finishedSolo(r *record.Record) bool {
	if !r.Completed {
		return false
	}
	if r.OpenLAN == nil {
		return true
	}
	return r.FinalRTA != nil && *r.OpenLAN > *r.FinalRTA
}

// Classify computes the bucket increments and series entries for r.
func Classify(r *record.Record) Result {
	if !Eligible(r) {
		return Result{}
	}
	res := Result{Tracked: true, Regular: IsRegular(r)}

	if finishedSolo(r) {
		res.Buckets = append(res.Buckets, BucketFinished)
		if r.RetimedIGT != nil {
			res.Series = append(res.Series, SeriesEntry{SeriesFinish, *r.RetimedIGT})
		}
	}

	for _, mb := range milestoneBuckets {
		if r.Has(mb.m) {
			res.Buckets = append(res.Buckets, mb.b)
		}
	}
	if r.Has(record.NetherTravel) || r.Has(record.EnterEnd) {
		res.Buckets = append(res.Buckets, BucketNetherExit)
	}
	if r.Has(record.TradeWithVillager) && r.EnderPearlsCrafted != nil && *r.EnderPearlsCrafted >= PearlThreshold {
		res.Buckets = append(res.Buckets, BucketTenPearls)
	}

	if v, ok := r.At(record.EnterStronghold); ok {
		res.Series = append(res.Series, SeriesEntry{SeriesStronghold, v})
	}
	if v, ok := r.At(record.EnterEnd); ok {
		res.Series = append(res.Series, SeriesEntry{SeriesEndEnter, v})
	}

	if res.Regular {
		for _, link := range regularChain {
			v, ok := r.At(link.m)
			if !ok {
				break
			}
			res.Series = append(res.Series, SeriesEntry{link.s, v})
		}
	}
	return res
}
