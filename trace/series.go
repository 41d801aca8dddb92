package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
)

// LoadSeries reads an observed daily series from a "date,value" CSV file.
func LoadSeries(path string) (*model.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	series, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	series.Labels["source"] = path
	return series, nil
}

// ReadSeries parses "date,value" rows. A first row whose value is not a
// number is taken as a header. Dates must be strictly increasing.
func ReadSeries(r io.Reader) (*model.TimeSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	series := &model.TimeSeries{Labels: map[string]string{}}
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w: %v", line, common.ErrorInvalidValue, err)
		}
		at, err := time.Parse(DateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, common.ErrorInvalidValue, err)
		}
		if n := len(series.Values); n > 0 && !at.After(series.Values[n-1].Time) {
			return nil, fmt.Errorf("line %d: %w: dates not increasing", line, common.ErrorInvalidValue)
		}
		series.Values = append(series.Values, model.TimeValue{Time: at, Value: value})
	}
	return series, nil
}
