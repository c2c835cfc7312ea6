package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payasparab/addressmatcher/internal/model"
)

func TestExactFields(t *testing.T) {
	for _, f := range []string{model.FieldStreetType, model.FieldState, model.FieldUnitType} {
		assert.True(t, IsExact(f), f)
		assert.Equal(t, 1.0, Field(f, "ST", "ST"))
		assert.Equal(t, 0.0, Field(f, "ST", "AVE"))
		assert.Equal(t, 1.0, Field(f, "", ""), "empty vs empty matches")
		assert.Equal(t, 0.0, Field(f, "", "ST"), "empty vs non-empty mismatches")
	}
	assert.False(t, IsExact(model.FieldStreetName))
}

func TestExact_CaseSensitive(t *testing.T) {
	assert.Equal(t, 0.0, Exact("St", "ST"))
}

func TestIndelRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"MAIN", "MAIN", 1},
		{"MAIN", "", 0},
		{"", "MAIN", 0},
		{"100", "999", 0},
		{"1234", "1235", 0.75},
		{"123", "124", 4.0 / 6.0},
		{"SMITH", "SMYTH", 0.8},
		{"ABC", "XYZ", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, IndelRatio(tt.a, tt.b), 1e-9, "%q vs %q", tt.a, tt.b)
	}
}

func TestIndelRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"MAPLE", "MAPLEWOOD"},
		{"KATHERINE", "CATHERINE"},
		{"12B", "12"},
		{"APT", "PTA"},
	}
	for _, p := range pairs {
		assert.Equal(t, IndelRatio(p[0], p[1]), IndelRatio(p[1], p[0]), "%v", p)
	}
}

func TestIndelRatio_Bounded(t *testing.T) {
	inputs := []string{"", "A", "AB", "ABC", "1600 PENNSYLVANIA", "ÉCOLE", "O'BRIEN"}
	for _, a := range inputs {
		for _, b := range inputs {
			r := IndelRatio(a, b)
			assert.GreaterOrEqual(t, r, 0.0)
			assert.LessOrEqual(t, r, 1.0)
		}
	}
}

func TestLevenshteinRatio(t *testing.T) {
	assert.Equal(t, 1.0, LevenshteinRatio("", ""))
	assert.Equal(t, 1.0, LevenshteinRatio("OAK", "OAK"))
	assert.Equal(t, 0.0, LevenshteinRatio("OAK", ""))
	assert.InDelta(t, 0.75, LevenshteinRatio("1234", "1235"), 1e-9)
	assert.InDelta(t, 0.8, LevenshteinRatio("SMITH", "SMYTH"), 1e-9)
}

func TestJaroWinkler(t *testing.T) {
	assert.Equal(t, 1.0, JaroWinkler("", ""))
	assert.Equal(t, 0.0, JaroWinkler("", "A"))
	assert.Equal(t, 1.0, JaroWinkler("MARTHA", "MARTHA"))
	jw := JaroWinkler("MARTHA", "MARHTA")
	assert.Greater(t, jw, 0.9)
	assert.Less(t, jw, 1.0)
}

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, MethodIndel, c.Method())

	c, err = New(MethodLevenshtein)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, c.Field(model.FieldAddressNumber, "1234", "1235"), 1e-9)
	assert.Equal(t, 0.0, c.Field(model.FieldState, "TX", "CA"))

	c, err = New(MethodJaroWinkler)
	require.NoError(t, err)
	assert.Equal(t, MethodJaroWinkler, c.Method())

	_, err = New("soundex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown method")
}
