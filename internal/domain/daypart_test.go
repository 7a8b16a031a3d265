package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaypartForHour_PartitionsDay(t *testing.T) {
	covered := make(map[Daypart]int)
	for h := 0; h < 24; h++ {
		part, ok := DaypartForHour(h)
		require.True(t, ok, "hour %d", h)

		start, end := part.Hours()
		assert.GreaterOrEqual(t, h, start)
		assert.Less(t, h, end)
		covered[part]++
	}

	assert.Len(t, covered, 4)
	for _, part := range Dayparts {
		assert.Equal(t, 6, covered[part], part.String())
	}
}

func TestDaypartForHour_Boundaries(t *testing.T) {
	tests := []struct {
		hour     int
		expected Daypart
	}{
		{0, Night},
		{5, Night},
		{6, Morning},
		{11, Morning},
		{12, Afternoon},
		{17, Afternoon},
		{18, Evening},
		{23, Evening},
	}
	for _, tt := range tests {
		part, ok := DaypartForHour(tt.hour)
		require.True(t, ok)
		assert.Equal(t, tt.expected, part, "hour %d", tt.hour)
	}

	_, ok := DaypartForHour(24)
	assert.False(t, ok)
	_, ok = DaypartForHour(-1)
	assert.False(t, ok)
}

func TestDaypart_OrderIsNotAlphabetical(t *testing.T) {
	assert.Less(t, Night, Morning)
	assert.Less(t, Morning, Afternoon)
	assert.Less(t, Afternoon, Evening)
	assert.Equal(t, []string{"night", "morning", "afternoon", "evening"},
		[]string{Night.String(), Morning.String(), Afternoon.String(), Evening.String()})
}

func TestDaypart_TextRoundTrip(t *testing.T) {
	data, err := json.Marshal(struct {
		Part Daypart `json:"part"`
	}{Afternoon})
	require.NoError(t, err)
	assert.JSONEq(t, `{"part":"afternoon"}`, string(data))

	var decoded struct {
		Part Daypart `json:"part"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"part":"evening"}`), &decoded))
	assert.Equal(t, Evening, decoded.Part)

	_, err = ParseDaypart("noon")
	assert.Error(t, err)
}
