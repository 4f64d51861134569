package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimToNil(t *testing.T) {
	assert.Nil(t, TrimToNil(nil))
	assert.Nil(t, TrimToNil(strPtr("")))
	assert.Nil(t, TrimToNil(strPtr(" \t\n")))
	assert.Equal(t, "FT-001", *TrimToNil(strPtr("  FT-001 ")))
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"omitted takes default", 0, 50},
		{"negative clamps to one", -7, 1},
		{"one", 1, 1},
		{"in range", 120, 120},
		{"upper bound", 200, 200},
		{"above upper bound", 5000, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLimit(tt.limit, DefaultLimit, MaxLimit))
		})
	}
}

func TestClampLimit_BadBounds(t *testing.T) {
	assert.Equal(t, 50, ClampLimit(0, 0, 0))
	assert.Equal(t, 20, ClampLimit(0, 80, 20), "default is capped by the ceiling")
}

func TestIsExcludedItem(t *testing.T) {
	for _, id := range []string{"06.MP-100", "02.mp.aço", " 07.MP", "08.EM-CAIXA", "01.Mp-1"} {
		assert.True(t, IsExcludedItem(id, ExcludedItemPrefixes), id)
	}
	for _, id := range []string{"PC-777", "03.MP-1", "X06.MP", "08.E", ""} {
		assert.False(t, IsExcludedItem(id, ExcludedItemPrefixes), id)
	}
	assert.False(t, IsExcludedItem("06.MP-100", nil))
	assert.False(t, IsExcludedItem("06.MP-100", []string{" "}))
}

func TestContainsPattern_EscapesMetacharacters(t *testing.T) {
	assert.Equal(t, "%12345%", containsPattern("12345"))
	assert.Equal(t, `%50\%\_OFF\\%`, containsPattern(`50%_OFF\`))
}

func TestPrefixPatterns(t *testing.T) {
	assert.Equal(t,
		[]string{"06.MP%", "02.MP%", "07.MP%", "08.EM%", "01.MP%"},
		prefixPatterns(ExcludedItemPrefixes))
	assert.Equal(t, []string{`AB\_C%`}, prefixPatterns([]string{"", " ab_c "}))
}
