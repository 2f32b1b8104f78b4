package duty

import (
	"context"
	"fmt"

	"maidchan/pkg/rule"
)

// keywordDuty replies with a fixed greeting whenever any keyword appears.
type keywordDuty struct {
	name     string
	about    string
	keywords []string
	template string
}

func (k *keywordDuty) Name() string {
	return k.name
}

func (k *keywordDuty) Description() string {
	return k.about
}

func (k *keywordDuty) IsTarget(text string, _ rule.Message) bool {
	return containsAny(text, k.keywords...)
}

func (k *keywordDuty) Perform(_ context.Context, _ string, msg rule.Message) (string, error) {
	return fmt.Sprintf(k.template, mention(msg.UserID)), nil
}

func Morning() rule.Rule {
	return &keywordDuty{
		name: "morning",
		about: `おはようのご挨拶をするよ！

朝起きたら雑談カフェで一言言ってね！`,
		keywords: []string{"おはよう", "おはよー"},
		template: "＼（⌒∇⌒）／ おはようごさいます！ %s 様",
	}
}

func Night() rule.Rule {
	return &keywordDuty{
		name: "night",
		about: `おやすみのご挨拶をするよ！

ご就寝前に雑談カフェで一言言ってね！`,
		keywords: []string{"おやすみ", "お休み", "寝"},
		template: "(｡･ω･｡)ﾉ おやすみなさいませ。 %s 様",
	}
}

func WelcomeHome() rule.Rule {
	return &keywordDuty{
		name: "welcome_home",
		about: `ご帰宅のご主人様、お嬢様をお出迎えするよ。

帰ったら雑談カフェで言ってね！`,
		keywords: []string{"帰", "ただいま", "きたく", "かえる"},
		template: "おかえりなさいませ！ %s 様 （*´▽｀*）",
	}
}

func Fatigue() rule.Rule {
	return &keywordDuty{
		name: "fatigue",
		about: `おつかれのご主人様、お嬢様をねぎらってあげるよ。

疲れたら雑談カフェで言ってね！`,
		keywords: []string{"疲", "つかれ", "終", "おわた", "おわった"},
		template: "お疲れ様です。 %s 様 ＼(^o^)／",
	}
}

func Departure() rule.Rule {
	return &keywordDuty{
		name: "departure",
		about: "ご主人様、お嬢様をお見送りするよ！\n\n" +
			"お出かけするときは `行ってきます` `いってきます` `出発` って雑談カフェで言ってね！",
		keywords: []string{"行ってきます", "いってきます", "出かけ", "行きます", "いきます", "出発"},
		template: "(★･∀･)ﾉ〃行ってらっしゃいませ！ %s 様",
	}
}

const piDigits = "3.1415926535897932384626433832795028841971693993"

// PiResponder recites pi when asked for it or when "pie" is mentioned.
type PiResponder struct{}

func NewPiResponder() *PiResponder {
	return &PiResponder{}
}

func (p *PiResponder) Name() string {
	return "pi"
}

func (p *PiResponder) Description() string {
	return `メイドちゃんは円周率を言うのが得意だよ！

「ぱい」は円周率のことだよね！`
}

func (p *PiResponder) IsTarget(text string, _ rule.Message) bool {
	if containsAny(text, "円周率") && containsAny(text, "おしえて") {
		return true
	}

	return containsAny(text, "ぱい", "パイ", "π")
}

func (p *PiResponder) Perform(context.Context, string, rule.Message) (string, error) {
	return piDigits, nil
}
