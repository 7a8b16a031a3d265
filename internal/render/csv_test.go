package render

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV_Render(t *testing.T) {
	data, err := CSV{}.Render(testReport())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "location,date,daypart,temperature_mean_c,windspeed_mean_kmh,windgust_max_kmh,"+
		"precipitation_sum_mm,snowfall_sum_mm,precip_type,fog,visibility_min_m,models_used,models_used_count,"+
		"snow_min_mm,snow_max_mm,snow_p90_mm,snow_models_count,snow_models_pct",
		strings.Join(records[0], ","))

	assert.Equal(t, []string{
		"Warszawa", "2025-01-10", "night", "-2.5", "11.3", "24.0", "0.0", "0.0", "none", "true", "180",
		"dwd_icon, gfs", "2", "0", "0", "0", "0", "0",
	}, records[1])

	morning := records[2]
	assert.Equal(t, "morning", morning[2])
	assert.Empty(t, morning[4], "missing wind speed renders as an empty cell")
	assert.Empty(t, morning[10], "missing visibility renders as an empty cell")
	assert.Equal(t, "rain", morning[8])
	assert.Equal(t, []string{"0.1", "0.5", "0.5"}, morning[13:16])
	assert.Equal(t, "100", morning[17])
}
