package duty

import (
	"context"
	"strings"

	"maidchan/pkg/rule"
)

var bashfulReplies = []string{"ありがとう！ (〃'∇'〃)ゝｴﾍﾍ", "そんなことないよ！（*´▽｀*）"}

// FlatteryReaction thanks members who call the assistant cute and, most of
// the time, introduces one of its duties.
type FlatteryReaction struct {
	name string
	intn func(int) int
}

func NewFlatteryReaction(name string, intn func(int) int) *FlatteryReaction {
	return &FlatteryReaction{name: name, intn: intn}
}

func (f *FlatteryReaction) Name() string {
	return "flattery"
}

func (f *FlatteryReaction) Description() string {
	return "褒められると嬉しくなっちゃって、お屋敷の秘密教えちゃうかも！"
}

func (f *FlatteryReaction) IsTarget(text string, _ rule.Message) bool {
	return containsAny(text, "かわいい", "可愛い") && strings.Contains(text, f.name)
}

func (f *FlatteryReaction) Perform(ctx context.Context, _ string, _ rule.Message) (string, error) {
	reply := bashfulReplies[f.intn(len(bashfulReplies))]

	// 7 in 10
	if f.intn(10) < 3 {
		return reply, nil
	}

	registry, ok := rule.RegistryFrom(ctx)
	if !ok {
		return reply, nil
	}

	duties := registry.All()
	if len(duties) == 0 {
		return reply, nil
	}

	return reply + "\n" + duties[f.intn(len(duties))].Description(), nil
}
