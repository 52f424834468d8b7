// Tests for run classification: the eligibility gate, completion attribution,
// bucket independence, the pearl sub-stat, regular-shape gating of the early
// duration series and chain short-circuiting. Literal records are built with
// [newRecord] so each case states exactly which milestones it reached.
package classify

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tools.zach/dev/runtracker/internal/record"
)

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// newRecord returns an eligible random-seed survival record with the given
// milestone IGTs already normalized.
func newRecord(milestones map[record.Milestone]int64) *record.Record {
	if milestones == nil {
		milestones = map[record.Milestone]int64{}
	}
	return &record.Record{
		GameMode:   record.SurvivalMode,
		RunType:    record.RandomSeed,
		Milestones: milestones,
	}
}

func i64(v int64) *int64 { return &v }

func seriesOf(res Result, s Series) []int64 {
	var out []int64
	for _, e := range res.Series {
		if e.Series == s {
			out = append(out, e.Millis)
		}
	}
	return out
}

// ///////////////////////////////////////////////
// Eligibility
// ///////////////////////////////////////////////

func TestEligibilityGate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *record.Record)
		want   bool
	}{
		{"eligible", func(r *record.Record) {}, true},
		{"no run type", func(r *record.Record) { r.RunType = "" }, true},
		{"creative", func(r *record.Record) { r.GameMode = 1 }, false},
		{"set seed", func(r *record.Record) { r.RunType = "set_seed" }, false},
		{"cheats", func(r *record.Record) { r.CheatsAllowed = true }, false},
		{"coop", func(r *record.Record) { r.Coop = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecord(map[record.Milestone]int64{record.GoldBlock: 1000, record.EnterEnd: 9000})
			tt.mutate(r)

			res := Classify(r)
			if res.Tracked != tt.want {
				t.Fatalf("Tracked = %v, want %v", res.Tracked, tt.want)
			}
			if !tt.want && (len(res.Buckets) != 0 || len(res.Series) != 0) {
				t.Errorf("untracked run produced increments: %+v", res)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if res := Classify(nil); res.Tracked {
		t.Error("nil record should not be tracked")
	}
}

// ///////////////////////////////////////////////
// Completion
// ///////////////////////////////////////////////

func TestCompletion(t *testing.T) {
	tests := []struct {
		name       string
		completed  bool
		openLAN    *int64
		finalRTA   *int64
		retimed    *int64
		wantBucket bool
		wantSeries []int64
	}{
		{"not completed", false, nil, i64(500), i64(450), false, nil},
		{"completed solo", true, nil, i64(500), i64(450), true, []int64{450}},
		{"completed solo without retime", true, nil, i64(500), nil, true, nil},
		{"lan after finish", true, i64(600), i64(500), i64(450), true, []int64{450}},
		{"lan at finish", true, i64(500), i64(500), i64(450), false, nil},
		{"lan before finish", true, i64(100), i64(500), i64(450), false, nil},
		{"lan without final time", true, i64(100), nil, i64(450), false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecord(nil)
			r.Completed = tt.completed
			r.OpenLAN = tt.openLAN
			r.FinalRTA = tt.finalRTA
			r.RetimedIGT = tt.retimed

			res := Classify(r)
			if got := res.Has(BucketFinished); got != tt.wantBucket {
				t.Errorf("Has(BucketFinished) = %v, want %v", got, tt.wantBucket)
			}
			got := seriesOf(res, SeriesFinish)
			if len(got) != len(tt.wantSeries) {
				t.Fatalf("finish series = %v, want %v", got, tt.wantSeries)
			}
			for i := range got {
				if got[i] != tt.wantSeries[i] {
					t.Errorf("finish series[%d] = %d, want %d", i, got[i], tt.wantSeries[i])
				}
			}
		})
	}
}

// ///////////////////////////////////////////////
// Buckets
// ///////////////////////////////////////////////

func TestMilestoneBuckets(t *testing.T) {
	tests := []struct {
		name string
		m    record.Milestone
		want []Bucket
	}{
		{"gold", record.GoldBlock, []Bucket{BucketGold}},
		{"village", record.FoundVillager, []Bucket{BucketVillage}},
		{"trading", record.TradeWithVillager, []Bucket{BucketTrading}},
		{"nether", record.EnterNether, []Bucket{BucketNether}},
		{"fort", record.EnterFortress, []Bucket{BucketFort}},
		{"nether travel", record.NetherTravel, []Bucket{BucketNetherExit}},
		{"stronghold", record.EnterStronghold, []Bucket{BucketStronghold}},
		{"end", record.EnterEnd, []Bucket{BucketEndEnter, BucketNetherExit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Classify(newRecord(map[record.Milestone]int64{tt.m: 1000}))
			if len(res.Buckets) != len(tt.want) {
				t.Fatalf("Buckets = %v, want %v", res.Buckets, tt.want)
			}
			for _, b := range tt.want {
				if !res.Has(b) {
					t.Errorf("missing bucket %v in %v", b, res.Buckets)
				}
			}
		})
	}
}

func TestNetherExitCountedOnce(t *testing.T) {
	res := Classify(newRecord(map[record.Milestone]int64{record.NetherTravel: 100, record.EnterEnd: 200}))
	n := 0
	for _, b := range res.Buckets {
		if b == BucketNetherExit {
			n++
		}
	}
	if n != 1 {
		t.Errorf("BucketNetherExit appears %d times, want 1", n)
	}
}

func TestVillageBeforeGoldStillCounts(t *testing.T) {
	res := Classify(newRecord(map[record.Milestone]int64{record.FoundVillager: 100, record.GoldBlock: 200}))
	if !res.Has(BucketVillage) || !res.Has(BucketGold) {
		t.Errorf("Buckets = %v, want gold and village", res.Buckets)
	}
}

func TestPearlBucket(t *testing.T) {
	pearls := func(n int) *int { return &n }
	tests := []struct {
		name    string
		trading bool
		pearls  *int
		want    bool
	}{
		{"ten pearls with trading", true, pearls(10), true},
		{"many pearls with trading", true, pearls(16), true},
		{"nine pearls", true, pearls(9), false},
		{"no pearl data", true, nil, false},
		{"pearls without trading", false, pearls(12), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := map[record.Milestone]int64{record.GoldBlock: 100}
			if tt.trading {
				ms[record.TradeWithVillager] = 300
			}
			r := newRecord(ms)
			r.EnderPearlsCrafted = tt.pearls

			if got := Classify(r).Has(BucketTenPearls); got != tt.want {
				t.Errorf("Has(BucketTenPearls) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSaves(t *testing.T) {
	if !Classify(newRecord(map[record.Milestone]int64{record.GoldBlock: 1})).Saves() {
		t.Error("gold run should trigger a save")
	}
	if !Classify(newRecord(map[record.Milestone]int64{record.EnterNether: 1})).Saves() {
		t.Error("nether run without gold should trigger a save")
	}
	if Classify(newRecord(nil)).Saves() {
		t.Error("run with no milestones should not trigger a save")
	}
}

// ///////////////////////////////////////////////
// Duration Series
// ///////////////////////////////////////////////

func TestRegularShape(t *testing.T) {
	tests := []struct {
		name string
		ms   map[record.Milestone]int64
		want bool
	}{
		{"gold only", map[record.Milestone]int64{record.GoldBlock: 100}, true},
		{"gold then village", map[record.Milestone]int64{record.GoldBlock: 100, record.FoundVillager: 200}, true},
		{"village then gold", map[record.Milestone]int64{record.GoldBlock: 200, record.FoundVillager: 100}, false},
		{"village with gold at same time", map[record.Milestone]int64{record.GoldBlock: 100, record.FoundVillager: 100}, false},
		{"no gold", map[record.Milestone]int64{record.EnterNether: 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRegular(newRecord(tt.ms)); got != tt.want {
				t.Errorf("IsRegular = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegularChainFull(t *testing.T) {
	res := Classify(newRecord(map[record.Milestone]int64{
		record.GoldBlock:       1000,
		record.FoundVillager:   2000,
		record.EnterNether:     3000,
		record.EnterFortress:   4000,
		record.NetherTravel:    5000,
		record.EnterStronghold: 6000,
		record.EnterEnd:        7000,
	}))

	want := map[Series]int64{
		SeriesGoldBlock:  1000,
		SeriesVillage:    2000,
		SeriesNether:     3000,
		SeriesFortress:   4000,
		SeriesNetherExit: 5000,
		SeriesStronghold: 6000,
		SeriesEndEnter:   7000,
	}
	for s, v := range want {
		got := seriesOf(res, s)
		if len(got) != 1 || got[0] != v {
			t.Errorf("series %v = %v, want [%d]", s, got, v)
		}
	}
}

func TestRegularChainShortCircuits(t *testing.T) {
	// Fortress is missing, so nether exit must not be recorded even though
	// nether_travel was reached.
	res := Classify(newRecord(map[record.Milestone]int64{
		record.GoldBlock:     1000,
		record.FoundVillager: 2000,
		record.EnterNether:   3000,
		record.NetherTravel:  5000,
	}))

	for _, s := range []Series{SeriesGoldBlock, SeriesVillage, SeriesNether} {
		if len(seriesOf(res, s)) != 1 {
			t.Errorf("series %v should have one entry", s)
		}
	}
	for _, s := range []Series{SeriesFortress, SeriesNetherExit} {
		if len(seriesOf(res, s)) != 0 {
			t.Errorf("series %v should be empty after the chain breaks", s)
		}
	}
	if !res.Has(BucketNetherExit) {
		t.Error("nether exit bucket is independent of the series chain")
	}
}

func TestGoldWithoutVillageStopsAtVillage(t *testing.T) {
	res := Classify(newRecord(map[record.Milestone]int64{
		record.GoldBlock:   1000,
		record.EnterNether: 3000,
	}))
	if len(seriesOf(res, SeriesGoldBlock)) != 1 {
		t.Error("gold series should be recorded for a regular run")
	}
	if len(seriesOf(res, SeriesNether)) != 0 {
		t.Error("nether series needs a village in the chain")
	}
}

func TestVillageFirstSkipsEarlySeries(t *testing.T) {
	res := Classify(newRecord(map[record.Milestone]int64{
		record.FoundVillager:   500,
		record.GoldBlock:       1000,
		record.EnterNether:     3000,
		record.EnterFortress:   4000,
		record.NetherTravel:    5000,
		record.EnterStronghold: 6000,
		record.EnterEnd:        7000,
	}))

	for _, s := range []Series{SeriesGoldBlock, SeriesVillage, SeriesNether, SeriesFortress, SeriesNetherExit} {
		if got := seriesOf(res, s); len(got) != 0 {
			t.Errorf("series %v = %v, want empty for a village-first run", s, got)
		}
	}
	for _, b := range []Bucket{BucketGold, BucketVillage, BucketNether, BucketFort, BucketNetherExit} {
		if !res.Has(b) {
			t.Errorf("bucket %v should still count for a village-first run", b)
		}
	}
	if len(seriesOf(res, SeriesStronghold)) != 1 || len(seriesOf(res, SeriesEndEnter)) != 1 {
		t.Error("stronghold and end series are recorded regardless of shape")
	}
}

// ///////////////////////////////////////////////
// Names
// ///////////////////////////////////////////////

func TestNames(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range AllBuckets() {
		if b.String() == "unknown" || seen[b.String()] {
			t.Errorf("bucket %d has bad or duplicate name %q", b, b.String())
		}
		seen[b.String()] = true
	}
	for _, s := range AllSeries() {
		if s.String() == "unknown" || seen[s.String()] {
			t.Errorf("series %d has bad or duplicate name %q", s, s.String())
		}
		seen[s.String()] = true
	}
}

// ///////////////////////////////////////////////
// Properties
// ///////////////////////////////////////////////

// singleBucket is the bucket each milestone implies on its own, excluding the
// shared nether-exit bucket.
var singleBucket = map[record.Milestone]Bucket{
	record.GoldBlock:         BucketGold,
	record.FoundVillager:     BucketVillage,
	record.TradeWithVillager: BucketTrading,
	record.EnterNether:       BucketNether,
	record.EnterFortress:     BucketFort,
	record.NetherTravel:      BucketNetherExit,
	record.EnterStronghold:   BucketStronghold,
	record.EnterEnd:          BucketEndEnter,
}

func milestonesFrom(mask int, times []int64) map[record.Milestone]int64 {
	ms := map[record.Milestone]int64{}
	for i, m := range record.AllMilestones() {
		if mask&(1<<i) != 0 {
			ms[m] = times[i]
		}
	}
	return ms
}

func TestBucketIndependenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("each present milestone yields its bucket, absent ones never do", prop.ForAll(
		func(mask int, times []int64) bool {
			ms := milestonesFrom(mask, times)
			res := Classify(newRecord(ms))
			for m, b := range singleBucket {
				_, present := ms[m]
				if present && !res.Has(b) {
					return false
				}
				if b != BucketNetherExit && !present && res.Has(b) {
					return false
				}
			}
			seen := map[Bucket]bool{}
			for _, b := range res.Buckets {
				if seen[b] {
					return false
				}
				seen[b] = true
			}
			return true
		},
		gen.IntRange(0, 255),
		gen.SliceOfN(8, gen.Int64Range(0, 3_600_000)),
	))

	properties.Property("series only appear for reached milestones", prop.ForAll(
		func(mask int, times []int64) bool {
			ms := milestonesFrom(mask, times)
			res := Classify(newRecord(ms))
			if !res.Regular && len(seriesOf(res, SeriesGoldBlock)) != 0 {
				return false
			}
			for _, s := range AllSeries() {
				if len(seriesOf(res, s)) > 1 {
					return false
				}
			}
			chain := []Series{SeriesGoldBlock, SeriesVillage, SeriesNether, SeriesFortress, SeriesNetherExit}
			for i := 1; i < len(chain); i++ {
				if len(seriesOf(res, chain[i])) == 1 && len(seriesOf(res, chain[i-1])) == 0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 255),
		gen.SliceOfN(8, gen.Int64Range(0, 3_600_000)),
	))

	properties.TestingRun(t)
}
