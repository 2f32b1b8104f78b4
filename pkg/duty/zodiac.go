package duty

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// ErrInvalidBirthday is returned for input that is neither a sign name nor MMDD.
var ErrInvalidBirthday = errors.New("invalid birthday")

const zodiacSuffix = "座"

// Sign fragments as they appear right before 座 once the input is cut to four
// characters. Overlapping spellings are intentional, and the tiers are tried
// widest first.
var zodiacTiers = []struct {
	width     int
	fragments map[string]int
}{
	{
		width: 3,
		fragments: map[string]int{
			"ひつじ": 0,
			"おうし": 1,
			"ふたご": 2,
			"おとめ": 5,
			"んびん": 6,
			"さそり": 7,
			"ずがめ": 10,
		},
	},
	{
		width: 2,
		fragments: map[string]int{
			"牡羊": 0,
			"牡牛": 1,
			"双子": 2,
			"かに": 3,
			"しし": 4,
			"獅子": 4,
			"乙女": 5,
			"天秤": 6,
			"いて": 8,
			"射手": 8,
			"やぎ": 9,
			"山羊": 9,
			"水瓶": 10,
			"うお": 11,
		},
	},
	{
		width: 1,
		fragments: map[string]int{
			"蟹": 3,
			"蠍": 7,
			"魚": 11,
		},
	},
}

// First day of the next sign for each month, January first.
var signChangeDay = [12]int{20, 19, 21, 20, 21, 22, 23, 23, 23, 24, 22, 23}

// ResolveZodiacIndex maps a sign name or an MMDD birthday to a sign index,
// 0 for Aries through 11 for Pisces.
func ResolveZodiacIndex(input string) (int, error) {
	if strings.HasSuffix(input, zodiacSuffix) {
		runes := []rune(input)
		end := len(runes) - 1
		for _, tier := range zodiacTiers {
			if end < tier.width {
				continue
			}
			if index, ok := tier.fragments[string(runes[end-tier.width:end])]; ok {
				return index, nil
			}
		}
	}

	return birthdayIndex(input)
}

func birthdayIndex(input string) (int, error) {
	// Full-width digits are common in Japanese input.
	digits := []rune(width.Narrow.String(input))
	if len(digits) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBirthday, input)
	}

	month, err := strconv.Atoi(string(digits[:2]))
	if err != nil {
		return 0, fmt.Errorf("%w: month %q", ErrInvalidBirthday, string(digits[:2]))
	}
	day, err := strconv.Atoi(string(digits[2:]))
	if err != nil {
		return 0, fmt.Errorf("%w: day %q", ErrInvalidBirthday, string(digits[2:]))
	}
	if month < 0 || day < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBirthday, input)
	}

	next := 0
	if day >= signChangeDay[mod(month-1, 12)] {
		next = 1
	}

	return mod(month+8+next, 12), nil
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
