//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package analysis

// EnglishStopWords is the classic English stop set used by most search
// engines' default English analyzers.
var EnglishStopWords = newSet(
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for",
	"if", "in", "into", "is", "it", "no", "not", "of", "on", "or",
	"such", "that", "the", "their", "then", "there", "these", "they",
	"this", "to", "was", "will", "with",
)

// RussianStopWords is the Snowball Russian stop list.
var RussianStopWords = newSet(
	"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как", "а",
	"то", "все", "она", "так", "его", "но", "да", "ты", "к", "у", "же",
	"вы", "за", "бы", "по", "только", "ее", "мне", "было", "вот", "от",
	"меня", "еще", "нет", "о", "из", "ему", "теперь", "когда", "даже",
	"ну", "вдруг", "ли", "если", "уже", "или", "ни", "быть", "был", "него",
	"до", "вас", "нибудь", "опять", "уж", "вам", "сказал", "ведь", "там",
	"потом", "себя", "ничего", "ей", "может", "они", "тут", "где", "есть",
	"надо", "ней", "для", "мы", "тебя", "их", "чем", "была", "сам", "чтоб",
	"без", "будто", "человек", "чего", "раз", "тоже", "себе", "под",
	"жизнь", "будет", "ж", "тогда", "кто", "этот", "говорил", "того",
	"потому", "этого", "какой", "совсем", "ним", "здесь", "этом", "один",
	"почти", "мой", "тем", "чтобы", "нее", "кажется", "сейчас", "были",
	"куда", "зачем", "сказать", "всех", "никогда", "сегодня", "можно",
	"при", "наконец", "два", "об", "другой", "хоть", "после", "над",
	"больше", "тот", "через", "эти", "нас", "про", "всего", "них", "какая",
	"много", "разве", "сказала", "три", "эту", "моя", "впрочем", "хорошо",
	"свою", "этой", "перед", "иногда", "лучше", "чуть", "том", "нельзя",
	"такой", "им", "более", "всегда", "конечно", "всю", "между",
)

func newSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
