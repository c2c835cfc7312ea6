package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_GetMissingFieldIsEmpty(t *testing.T) {
	var r Record
	assert.Equal(t, "", r.Get(FieldCity))

	r = NewRecord("1", []string{"city"}, []string{"AUSTIN"})
	assert.Equal(t, "AUSTIN", r.Get(FieldCity))
	assert.Equal(t, "", r.Get(FieldStreetName))
}

func TestNewRecord_ShortValues(t *testing.T) {
	r := NewRecord("1", []string{"a", "b", "c"}, []string{"x"})
	assert.Equal(t, []string{"a", "b", "c"}, r.Columns)
	assert.Equal(t, "x", r.Get("a"))
	assert.Equal(t, "", r.Get("c"))
}

func TestRecord_SetKeepsColumnOrder(t *testing.T) {
	var r Record
	r.Set("b", "1")
	r.Set("a", "2")
	r.Set("b", "3")
	assert.Equal(t, []string{"b", "a"}, r.Columns)
	assert.Equal(t, "3", r.Get("b"))
}

func TestRecord_HasAddress(t *testing.T) {
	r := NewRecord("1", []string{FieldFirstName}, []string{"ANN"})
	assert.False(t, r.HasAddress())
	r.Set(FieldCity, "AUSTIN")
	assert.True(t, r.HasAddress())
}

func TestIsMatchable(t *testing.T) {
	assert.True(t, IsMatchable(FieldZipCleaned))
	assert.True(t, IsMatchable(FieldUnitNumber))
	assert.False(t, IsMatchable("customer_id"))
	assert.True(t, IsNameField(FieldMiddleInitial))
	assert.False(t, IsNameField(FieldCity))
}

func TestWeightTables_Sums(t *testing.T) {
	assert.InDelta(t, 0.94, DefaultWeights().Sum(), 1e-9)
	assert.InDelta(t, 0.9571, NoNameWeights().Sum(), 1e-9)

	for _, f := range NoNameWeights().Fields() {
		assert.False(t, IsNameField(f), "no-name table must not weight %s", f)
	}
}

func TestWeightTables_FreshCopies(t *testing.T) {
	a := DefaultWeights()
	a[0].Weight = 99
	assert.Equal(t, 0.25, DefaultWeights()[0].Weight)
}

func TestSelectWeights(t *testing.T) {
	assert.Equal(t, DefaultWeights(), SelectWeights(false))
	assert.Equal(t, NoNameWeights(), SelectWeights(true))
}

func TestWeightTable_Validate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
	require.NoError(t, NoNameWeights().Validate())

	tests := []struct {
		name  string
		table WeightTable
		want  string
	}{
		{"empty", WeightTable{}, "empty"},
		{"negative", WeightTable{{Field: "city", Weight: -1}, {Field: "state", Weight: 2}}, "city weight must be >= 0"},
		{"zero sum", WeightTable{{Field: "city", Weight: 0}}, "weight sum must be > 0"},
		{"duplicate", WeightTable{{Field: "city", Weight: 1}, {Field: "city", Weight: 1}}, "duplicate field"},
		{"blank", WeightTable{{Field: " ", Weight: 1}}, "blank field name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWeightTable_Weight(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 0.15, w.Weight(FieldAddressNumber))
	assert.Equal(t, 0.0, w.Weight(FieldZipCleaned))
}

func TestTierTable_Classify(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		score float64
		want  string
		ok    bool
	}{
		{100, TierNearExact, true},
		{90, TierNearExact, true},
		{89.99, TierHigh, true},
		{80, TierHigh, true},
		{79.99, TierMedium, true},
		{70, TierMedium, true},
		{60.01, TierLow, true},
		{60, TierLow, true},
		{59.99, "", false},
		{0, "", false},
	}
	for _, tt := range tests {
		name, ok := tiers.Classify(tt.score)
		assert.Equal(t, tt.ok, ok, "score %v", tt.score)
		assert.Equal(t, tt.want, name, "score %v", tt.score)
	}
}

func TestTierTable_ClassifySortedDoesNotAllocate(t *testing.T) {
	tiers := DefaultTiers().Sorted()
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = tiers.Classify(85)
	})
	assert.Zero(t, allocs)
}

func TestTierTable_ClassifyUnorderedInput(t *testing.T) {
	tiers := TierTable{
		{Name: TierLow, Min: 60},
		{Name: TierNearExact, Min: 90},
		{Name: TierMedium, Min: 70},
		{Name: TierHigh, Min: 80},
	}
	name, ok := tiers.Classify(85)
	require.True(t, ok)
	assert.Equal(t, TierHigh, name)
	assert.Equal(t, []string{TierNearExact, TierHigh, TierMedium, TierLow}, tiers.Names())
	assert.Equal(t, 60.0, tiers.Lowest())
}

func TestTierTable_Validate(t *testing.T) {
	require.NoError(t, DefaultTiers().Validate())
	assert.Error(t, TierTable{}.Validate())
	assert.Error(t, TierTable{{Name: "a", Min: 1}, {Name: "a", Min: 2}}.Validate())
	assert.Error(t, TierTable{{Name: "a", Min: 101}}.Validate())
}

func TestScoredAndFailures(t *testing.T) {
	cands := []Candidate{
		{IDA: "a1", IDB: "b1", Score: 91, Tier: TierNearExact},
		{IDA: "a2", IDB: "b2", Failure: &Failure{Reason: FailureMissingRecordID}},
		{IDA: "a3", IDB: "b3", Score: 65, Tier: TierLow},
	}
	scored := Scored(cands)
	require.Len(t, scored, 2)
	assert.Equal(t, "a3", scored[1].IDA)

	failed := Failures(cands)
	require.Len(t, failed, 1)
	assert.True(t, failed[0].Failed())
	assert.Equal(t, "missing_record_id", failed[0].Failure.Error())
}

func TestFailure_ErrorWithDetail(t *testing.T) {
	f := &Failure{Reason: FailureScorerPanic, Detail: "boom"}
	assert.Equal(t, "scorer_panic: boom", f.Error())
}
