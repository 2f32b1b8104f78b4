package duty

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maidchan/pkg/rule"
)

// ErrEmptyChoiceSet is returned when a question carries no candidates.
var ErrEmptyChoiceSet = errors.New("no candidates to choose from")

const (
	choiceTemplate  = "どうしようかなあ。。。じゃあ %s が良いと思う！"
	choiceSeparator = "、"
)

// The nesting order of these lists decides which suffix wins when several
// overlap, so keep them as declared.
var (
	choicePunctuation = []string{"", "？", "！", "。"}
	choiceJudgements  = []string{"いいかな", "良いかな", "良いと思う", "いいと思う"}
	choiceReferents   = []string{"どれ", "どっち", "どの子"}
)

// ChoicePicker answers "which one is better?" questions by picking a candidate.
type ChoicePicker struct {
	intn func(int) int
}

func NewChoicePicker(intn func(int) int) *ChoicePicker {
	return &ChoicePicker{intn: intn}
}

func (c *ChoicePicker) Name() string {
	return "choice"
}

func (c *ChoicePicker) Description() string {
	return `メイドちゃんが選んであげるよ！

迷うことがあったら雑談カフェで私に言ってね！私が選んであげるよ！「いか、たこどっちがいいかな？」「赤　青　きいろどれがいいかな？」みたいに聞いてね！`
}

// IsTarget requires both a known suffix and at least one candidate before it.
func (c *ChoicePicker) IsTarget(text string, _ rule.Message) bool {
	candidates, ok := choiceCandidates(text)
	return ok && len(candidates) > 0
}

func (c *ChoicePicker) Perform(_ context.Context, text string, _ rule.Message) (string, error) {
	candidates, _ := choiceCandidates(text)
	choice, err := Choose(candidates, c.intn)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(choiceTemplate, choice), nil
}

// Choose picks one candidate uniformly.
func Choose(candidates []string, intn func(int) int) (string, error) {
	if len(candidates) == 0 {
		return "", ErrEmptyChoiceSet
	}

	return candidates[intn(len(candidates))], nil
}

// choiceSuffix returns the first declared suffix text ends with.
func choiceSuffix(text string) (string, bool) {
	for _, punctuation := range choicePunctuation {
		for _, judgement := range choiceJudgements {
			for _, referent := range choiceReferents {
				suffix := referent + "が" + judgement + punctuation
				if strings.HasSuffix(text, suffix) {
					return suffix, true
				}
			}
		}
	}

	return "", false
}

// choiceCandidates strips the question suffix and tokenizes the rest.
func choiceCandidates(text string) ([]string, bool) {
	suffix, ok := choiceSuffix(text)
	if !ok {
		return nil, false
	}

	remainder := strings.TrimSuffix(text, suffix)
	return strings.Fields(strings.ReplaceAll(remainder, choiceSeparator, " ")), true
}
