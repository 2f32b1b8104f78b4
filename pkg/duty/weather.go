package duty

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"maidchan/pkg/rule"
	"maidchan/pkg/weather"
)

const (
	weatherTrigger  = "天気を教えて！"
	weatherTemplate = "%sの%sの天気は *%s* 、最高気温は %s です！"
	umbrellaNotice  = " *傘を忘れないで!!* "
	weatherUnknown  = "今日の天気は分かりません(;_;)"

	unknownDateLabel   = "いつか分からない日"
	unknownLocation    = "どこか分からない場所"
	unknownTelop       = "わかりません"
	unknownTemperature = "わかりません"

	// From this hour on, an unqualified question is about tomorrow.
	eveningHour = 18
	defaultCity = "130010" // 東京
)

// Later entries win when a message names more than one.
var (
	forecastDays = []struct {
		label  string
		offset int
	}{
		{label: "今日", offset: 0},
		{label: "明日", offset: 1},
		{label: "明後日", offset: 2},
	}

	// See https://weather.tsukumijima.net/primary_area.xml for more codes.
	cityCodes = []struct {
		name string
		code string
	}{
		{name: "大阪", code: "270000"},
		{name: "名古屋", code: "230010"},
		{name: "福岡", code: "400010"},
		{name: "仙台", code: "040010"},
		{name: "札幌", code: "016010"},
		{name: "広島", code: "340010"},
		{name: "新潟", code: "150010"},
		{name: "富山", code: "160010"},
		{name: "金沢", code: "170010"},
		{name: "長野", code: "200010"},
	}

	locationCorrections = map[string]string{
		"東京都東京地方": "東京地方",
		"大阪府大阪府":  "大阪府",
	}
)

// WeatherReporter answers forecast questions for a handful of known cities.
type WeatherReporter struct {
	prefix  string
	fetcher weather.Fetcher
	now     func() time.Time
	log     *slog.Logger
}

func NewWeatherReporter(name string, fetcher weather.Fetcher, now func() time.Time, log *slog.Logger) *WeatherReporter {
	if log == nil {
		log = slog.Default()
	}

	return &WeatherReporter{
		prefix:  addressed(name),
		fetcher: fetcher,
		now:     now,
		log:     log.With("component", "duty.weather"),
	}
}

func (w *WeatherReporter) Name() string {
	return "weather"
}

func (w *WeatherReporter) Description() string {
	return "メイドちゃんが天気予報をするよ！\n\n" +
		"`メイドちゃん！` で始まって `天気を教えて！` で終わるように話しかけると、メイドちゃんが天気を教えてあげるよ！\n" +
		"「大阪の天気を教えて！」みたいに、メイドちゃんの知ってる都市の名前を言ってくれると、その地域の天気を教えるよ！\n" +
		"メイドちゃんの知らない都市だったら、東京の天気を教えるね (^^;\n\n" +
		"`今日` 、 `明日` 、 `明後日` の天気が教えられるよ！\n" +
		"いつの天気か言わなかったら、時間帯に応じて今日か明日の天気を教えるね！"
}

func (w *WeatherReporter) IsTarget(text string, _ rule.Message) bool {
	return strings.HasPrefix(text, w.prefix) && strings.HasSuffix(text, weatherTrigger)
}

// Perform never fails: missing data degrades to placeholder text.
func (w *WeatherReporter) Perform(ctx context.Context, text string, _ rule.Message) (string, error) {
	return w.Report(ctx, cityCode(text), forecastDay(text, w.now())), nil
}

// Report renders the forecast for city, day days from today.
func (w *WeatherReporter) Report(ctx context.Context, city string, day int) string {
	log := w.log.With("city", city, "day", day)

	forecast, err := w.fetcher.Forecast(ctx, city)
	if err != nil {
		log.Error("Failed to fetch forecast", "error", err)
		return weatherUnknown
	}

	var target *weather.DayForecast
	if day >= 0 && day < len(forecast.Forecasts) {
		target = &forecast.Forecasts[day]
	}

	var missing []string

	dateLabel := unknownDateLabel
	if target != nil && target.DateLabel != nil {
		dateLabel = *target.DateLabel
	} else {
		missing = append(missing, "dateLabel")
	}

	location := unknownLocation
	if loc := forecast.Location; loc != nil && loc.Prefecture != nil && loc.District != nil {
		location = *loc.Prefecture + *loc.District
		if corrected, ok := locationCorrections[location]; ok {
			location = corrected
		}
	} else {
		missing = append(missing, "location")
	}

	telop := unknownTelop
	if target != nil && target.Telop != nil {
		telop = *target.Telop
	} else {
		missing = append(missing, "telop")
	}

	temperature := unknownTemperature
	if celsius, ok := maxCelsius(target); ok {
		temperature = celsius + "度"
	} else {
		missing = append(missing, "temperature")
	}

	if len(missing) > 0 {
		log.Warn("Forecast is missing fields", "fields", strings.Join(missing, ","))
	}

	message := fmt.Sprintf(weatherTemplate, dateLabel, location, telop, temperature)

	// The API has no precipitation chance, so go by the condition text.
	if strings.Contains(telop, "雨") || strings.Contains(telop, "雪") {
		message += umbrellaNotice
	}

	return message
}

func maxCelsius(day *weather.DayForecast) (string, bool) {
	if day == nil || day.Temperature == nil || day.Temperature.Max == nil || day.Temperature.Max.Celsius == nil {
		return "", false
	}

	return *day.Temperature.Max.Celsius, true
}

// forecastDay picks today or tomorrow by the JST hour unless the text names a day.
func forecastDay(text string, now time.Time) int {
	day := 0
	if now.In(jst).Hour() >= eveningHour {
		day = 1
	}

	for _, candidate := range forecastDays {
		if strings.Contains(text, candidate.label) {
			day = candidate.offset
		}
	}

	return day
}

func cityCode(text string) string {
	city := defaultCity
	for _, candidate := range cityCodes {
		if strings.Contains(text, candidate.name) {
			city = candidate.code
		}
	}

	return city
}
