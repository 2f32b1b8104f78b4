package weather

import "encoding/json"

// The payload is decoded field by field. A value of the wrong shape leaves
// only that field nil; only a body that is not an object fails the forecast.

func (f *Forecast) UnmarshalJSON(data []byte) error {
	var raw struct {
		Location  json.RawMessage `json:"location"`
		Forecasts json.RawMessage `json:"forecasts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = Forecast{}
	if present(raw.Location) {
		var location Location
		if lenient(raw.Location, &location) {
			f.Location = &location
		}
	}

	var days []json.RawMessage
	if !present(raw.Forecasts) || !lenient(raw.Forecasts, &days) {
		return nil
	}
	f.Forecasts = make([]DayForecast, len(days))
	for i, day := range days {
		lenient(day, &f.Forecasts[i])
	}

	return nil
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Prefecture json.RawMessage `json:"prefecture"`
		District   json.RawMessage `json:"district"`
	}
	*l = Location{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	l.Prefecture = optionalString(raw.Prefecture)
	l.District = optionalString(raw.District)
	return nil
}

func (d *DayForecast) UnmarshalJSON(data []byte) error {
	var raw struct {
		DateLabel   json.RawMessage `json:"dateLabel"`
		Telop       json.RawMessage `json:"telop"`
		Temperature json.RawMessage `json:"temperature"`
	}
	*d = DayForecast{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.DateLabel = optionalString(raw.DateLabel)
	d.Telop = optionalString(raw.Telop)
	if present(raw.Temperature) {
		var temperature Temperature
		if lenient(raw.Temperature, &temperature) {
			d.Temperature = &temperature
		}
	}

	return nil
}

func (t *Temperature) UnmarshalJSON(data []byte) error {
	var raw struct {
		Max json.RawMessage `json:"max"`
		Min json.RawMessage `json:"min"`
	}
	*t = Temperature{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Max = optionalReading(raw.Max)
	t.Min = optionalReading(raw.Min)
	return nil
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw struct {
		Celsius json.RawMessage `json:"celsius"`
	}
	*r = Reading{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Celsius = optionalString(raw.Celsius)
	return nil
}

func optionalReading(raw json.RawMessage) *Reading {
	if !present(raw) {
		return nil
	}

	var reading Reading
	if !lenient(raw, &reading) {
		return nil
	}
	return &reading
}

func optionalString(raw json.RawMessage) *string {
	if !present(raw) {
		return nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return &value
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func lenient(raw json.RawMessage, v any) bool {
	return json.Unmarshal(raw, v) == nil
}
