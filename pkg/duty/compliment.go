package duty

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"maidchan/pkg/rule"
)

const (
	complimentTrigger         = "褒めて！"
	complimentTemplate        = "%s、%sんだ！すごーい！"
	complimentTemplateNoCause = "%sすごーい！"
	honorific                 = "さん"
	objectParticle            = "を"
	possessiveParticle        = "の"
	attributiveParticle       = "な"
	causalConnective          = "から"
)

var (
	mentionPattern = regexp.MustCompile(`<(.+?)>`)
	selfReferences = []string{"僕を", "私を", "俺を"}
)

// ComplimentComposer praises the mentioned members, or the caller, for a reason.
type ComplimentComposer struct {
	prefix string
}

func NewComplimentComposer(name string) *ComplimentComposer {
	return &ComplimentComposer{prefix: addressed(name)}
}

func (c *ComplimentComposer) Name() string {
	return "compliment"
}

func (c *ComplimentComposer) Description() string {
	return "頑張ってる人をメイドちゃんが褒めてあげるよ！\n\n" +
		"`メイドちゃん！` で始まって `褒めて！` で終わるように話しかけてね！\n" +
		"間に @ メンションがあるとその人を褒めてあげるよ！\n" +
		"誰もメンションがなければあなたを褒めるよ！でも `僕を` `私を` `俺を` 褒めてって言ってくれると嬉しいな。\n" +
		"理由も書いてね☆\n" +
		"私、どのチャネルにでも駆けつけるよ！"
}

func (c *ComplimentComposer) IsTarget(text string, _ rule.Message) bool {
	return strings.HasPrefix(text, c.prefix) && strings.HasSuffix(text, complimentTrigger)
}

func (c *ComplimentComposer) Perform(_ context.Context, text string, msg rule.Message) (string, error) {
	return Compliment(between(text, c.prefix, complimentTrigger), msg.UserID), nil
}

// Compliment composes the praise for the text between the address and the
// trigger. The steps run in a fixed order because each one shifts offsets the
// next relies on.
func Compliment(text string, userID string) string {
	caller := mention(userID) + honorific

	who := ""
	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		who += "<" + match[1] + ">" + honorific
	}

	for _, self := range selfReferences {
		if strings.HasSuffix(text, self) {
			who = caller
			text = strings.TrimSuffix(text, self)
			break
		}
	}

	if who == "" {
		who = caller
	}

	reason := text
	spans := mentionPattern.FindAllStringIndex(text, -1)
	for i := len(spans) - 1; i >= 0; i-- {
		reason = reason[:spans[i][0]] + reason[spans[i][1]:]
	}

	reason = strings.TrimSuffix(reason, causalConnective)
	reason = strings.TrimSuffix(reason, objectParticle)
	if strings.HasSuffix(reason, possessiveParticle) {
		reason = strings.TrimSuffix(reason, possessiveParticle) + attributiveParticle
	}

	who = strings.TrimSpace(who)
	reason = strings.TrimSpace(reason)

	if reason != "" {
		return fmt.Sprintf(complimentTemplate, who, reason)
	}

	return fmt.Sprintf(complimentTemplateNoCause, who)
}

// addressed is how a message calling the assistant by name begins.
func addressed(name string) string {
	return name + "！"
}

// between returns text without prefix and suffix, or "" when they overlap.
func between(text string, prefix string, suffix string) string {
	if len(text) < len(prefix)+len(suffix) {
		return ""
	}

	return text[len(prefix) : len(text)-len(suffix)]
}
