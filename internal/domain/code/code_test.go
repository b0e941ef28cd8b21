package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"01", "01000000"},
		{"0101", "01010000"},
		{"010121", "01012100"},
		{"0101210", "01012100"},
		{"01012100", "01012100"},
		{"0901.21.00", "09012100"},
		{"09-01", "09010000"},
		{" 8517.13 ", "85171300"},
		{"1", "10000000"},
		{"123", "12300000"},
		{"", ""},
		{"..", ""},
		{"abc", ""},
		{"0901x", ""},
		{"123456789", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"01", "0101", "010121", "0101210", "01012100", "8517.13.00", "", "abc"} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "raw=%q", raw)
		if once != "" {
			assert.Len(t, once, Width)
		}
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0101.21.00", Format("01012100"))
	assert.Equal(t, "0901", Format("0901"))
	assert.Equal(t, "", Format(""))
	assert.Equal(t, "0101.21.00", Format(Normalize("010121")))
}

func TestDetectLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want Level
	}{
		{"01", LevelCategory},
		{"01000000", LevelCategory},
		{"0101", LevelGrouping},
		{"01010000", LevelGrouping},
		{"010121", LevelSubgrouping},
		{"01012100", LevelSubgrouping}, // trailing zeros win over the item reading
		{"01012110", LevelItem},
		{"0101.21.10", LevelItem},
		{"0101210", LevelUnknown},
		{"", LevelUnknown},
		{"ab", LevelUnknown},
		{"123456789", LevelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLevel(tt.raw))
		})
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "0901", Prefix("0901.21.00", 4))
	assert.Equal(t, "0901", Prefix("09012100", 4))
	assert.Equal(t, "09", Prefix("09", 4))
	assert.Equal(t, "", Prefix("", 4))
	assert.Equal(t, "", Prefix("0901", -1))
}

func TestLevel_Priority(t *testing.T) {
	for i := 1; i < len(Levels); i++ {
		assert.Less(t, Levels[i-1].Priority(), Levels[i].Priority())
	}
	assert.Equal(t, LevelUnknown.Priority(), Level("bogus").Priority())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelItem, ParseLevel("ITEM"))
	assert.Equal(t, LevelUnknown, ParseLevel("chapter"))
	assert.Equal(t, LevelUnknown, ParseLevel(""))
}

func TestBuildParents(t *testing.T) {
	parents := BuildParents([]string{"01", "0101", "0101.21.00", "0101.21.10", "0901.11.10", "xx"})

	require.Len(t, parents, 5)
	assert.Equal(t, Parents{}, parents["01000000"])
	assert.Equal(t, Parents{Category: "01000000"}, parents["01010000"])
	assert.Equal(t, Parents{Category: "01000000", Grouping: "01010000"}, parents["01012110"])
	assert.Equal(t, Parents{Category: "01000000", Grouping: "01010000"}, parents["01012100"])
	// chapter 09 rows are absent from the corpus
	assert.Equal(t, Parents{}, parents["09011110"])
}
