package duty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maidchan/pkg/horoscope"
	"maidchan/pkg/rule"
)

const (
	horoscopeTrigger = "占って！"
	birthdayLength   = 4
	maxStars         = 5
)

const horoscopeTemplate = `%s 様の今日の運勢はこちらです！
%d位 %s
総合: %s
恋愛運: %s
金運: %s
仕事運: %s
ラッキーカラー: %s
ラッキーアイテム: %s
%s`

// HoroscopeReader tells today's fortune for a birthday or sign name.
type HoroscopeReader struct {
	fetcher horoscope.Fetcher
	now     func() time.Time
}

func NewHoroscopeReader(fetcher horoscope.Fetcher, now func() time.Time) *HoroscopeReader {
	return &HoroscopeReader{fetcher: fetcher, now: now}
}

func (h *HoroscopeReader) Name() string {
	return "horoscope"
}

func (h *HoroscopeReader) Description() string {
	return "雑談カフェでご主人様、お嬢様の今日の運勢を占ってあげるよ！\n\n" +
		"`占って！` のあとに数字4桁で誕生日を書いてね！例えば `占って！0101` みたいに言ってね！"
}

func (h *HoroscopeReader) IsTarget(text string, _ rule.Message) bool {
	return strings.HasPrefix(text, horoscopeTrigger)
}

func (h *HoroscopeReader) Perform(ctx context.Context, text string, msg rule.Message) (string, error) {
	index, err := ResolveZodiacIndex(lastRunes(text, birthdayLength))
	if err != nil {
		return "", err
	}

	date := horoscope.Today(h.now())
	entries, err := h.fetcher.Daily(ctx, date)
	if err != nil {
		return "", fmt.Errorf("fetch horoscope for %s: %w", date, err)
	}
	if index >= len(entries) {
		return "", fmt.Errorf("%w: %d readings for %s, need sign %d", horoscope.ErrUnavailable, len(entries), date, index)
	}

	return renderHoroscope(mention(msg.UserID), entries[index]), nil
}

func renderHoroscope(who string, entry horoscope.Entry) string {
	return fmt.Sprintf(horoscopeTemplate,
		who,
		entry.Rank,
		entry.Sign,
		stars(entry.Total),
		stars(entry.Love),
		stars(entry.Money),
		stars(entry.Job),
		entry.Color,
		entry.Item,
		entry.Content,
	)
}

// stars renders a 1-5 rating as filled stars padded with empty ones.
func stars(n int) string {
	n = min(max(n, 0), maxStars)
	return strings.Repeat("★", n) + strings.Repeat("☆", maxStars-n)
}
