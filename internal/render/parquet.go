package render

import (
	"bytes"
	"fmt"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetRow is the columnar form of one EnsembleSummary.
type parquetRow struct {
	Location           string   `parquet:"name=location,type=BYTE_ARRAY,convertedtype=UTF8,encoding=PLAIN_DICTIONARY"`
	Date               string   `parquet:"name=date,type=BYTE_ARRAY,convertedtype=UTF8"`
	Daypart            string   `parquet:"name=daypart,type=BYTE_ARRAY,convertedtype=UTF8,encoding=PLAIN_DICTIONARY"`
	TemperatureMeanC   *float64 `parquet:"name=temperature_mean_c,type=DOUBLE,repetitiontype=OPTIONAL"`
	WindSpeedMeanKmh   *float64 `parquet:"name=windspeed_mean_kmh,type=DOUBLE,repetitiontype=OPTIONAL"`
	WindGustMaxKmh     *float64 `parquet:"name=windgust_max_kmh,type=DOUBLE,repetitiontype=OPTIONAL"`
	PrecipitationSumMM *float64 `parquet:"name=precipitation_sum_mm,type=DOUBLE,repetitiontype=OPTIONAL"`
	SnowfallSumMM      *float64 `parquet:"name=snowfall_sum_mm,type=DOUBLE,repetitiontype=OPTIONAL"`
	PrecipType         *string  `parquet:"name=precip_type,type=BYTE_ARRAY,convertedtype=UTF8,repetitiontype=OPTIONAL"`
	Fog                *bool    `parquet:"name=fog,type=BOOLEAN,repetitiontype=OPTIONAL"`
	VisibilityMinM     *int32   `parquet:"name=visibility_min_m,type=INT32,repetitiontype=OPTIONAL"`
	ModelsUsed         string   `parquet:"name=models_used,type=BYTE_ARRAY,convertedtype=UTF8"`
	ModelsUsedCount    int32    `parquet:"name=models_used_count,type=INT32"`
	SnowMinMM          float64  `parquet:"name=snow_min_mm,type=DOUBLE"`
	SnowMaxMM          float64  `parquet:"name=snow_max_mm,type=DOUBLE"`
	SnowP90MM          float64  `parquet:"name=snow_p90_mm,type=DOUBLE"`
	SnowModelsCount    int32    `parquet:"name=snow_models_count,type=INT32"`
	SnowModelsPct      int32    `parquet:"name=snow_models_pct,type=INT32"`
	GeneratedAt        int64    `parquet:"name=generated_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
}

func toParquetRow(e domain.EnsembleSummary, generatedAtMillis int64) parquetRow {
	row := parquetRow{
		Location:           e.Location,
		Date:               e.Date,
		Daypart:            e.Daypart.String(),
		TemperatureMeanC:   e.TemperatureMeanC,
		WindSpeedMeanKmh:   e.WindSpeedMeanKmh,
		WindGustMaxKmh:     e.WindGustMaxKmh,
		PrecipitationSumMM: e.PrecipitationSumMM,
		SnowfallSumMM:      e.SnowfallSumMM,
		Fog:                e.Fog,
		ModelsUsed:         e.ModelsUsed,
		ModelsUsedCount:    int32(e.ModelsUsedCount),
		SnowMinMM:          e.SnowMinMM,
		SnowMaxMM:          e.SnowMaxMM,
		SnowP90MM:          e.SnowP90MM,
		SnowModelsCount:    int32(e.SnowModelsCount),
		SnowModelsPct:      int32(e.SnowModelsPct),
		GeneratedAt:        generatedAtMillis,
	}
	if e.PrecipType != nil {
		s := string(*e.PrecipType)
		row.PrecipType = &s
	}
	if e.VisibilityMinM != nil {
		v := int32(*e.VisibilityMinM)
		row.VisibilityMinM = &v
	}
	return row
}

// Parquet writes the ensemble table as a SNAPPY-compressed Parquet file.
type Parquet struct{}

func (Parquet) Name() string        { return "parquet" }
func (Parquet) Filename() string    { return "forecast_dayparts.parquet" }
func (Parquet) ContentType() string { return "application/vnd.apache.parquet" }

func (Parquet) Render(report domain.Report) (data []byte, err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(parquetRow), 1)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	generatedAt := report.GeneratedAt.UnixMilli()
	for _, e := range report.Rows {
		if err := pw.Write(toParquetRow(e, generatedAt)); err != nil {
			return nil, fmt.Errorf("write row %s: %w", e.Key(), err)
		}
	}

	// WriteStop can panic on schema mismatches inside the library.
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("parquet writer panicked during WriteStop: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return buf.Bytes(), nil
}
