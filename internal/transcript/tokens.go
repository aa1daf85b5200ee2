package transcript

import "strings"

type Token struct {
	StartTime    string
	Content      string
	Type         ItemType
	LanguageCode string
}

// Tokens maps start-time keys to tokens and remembers insertion order.
// Punctuation re-attaches to the last inserted key, not the nearest time.
type Tokens struct {
	keys  []string
	byKey map[string]*Token
}

// NormalizeTokens folds punctuation items into the token inserted just
// before them. Punctuation seen before any word is dropped.
func NormalizeTokens(items []Item) *Tokens {
	t := &Tokens{byKey: make(map[string]*Token, len(items))}
	for _, item := range items {
		if item.Type == Punctuation {
			last := t.last()
			if last == nil || len(item.Alternatives) == 0 {
				continue
			}
			last.Content += item.Alternatives[0].Content
			continue
		}
		t.put(&Token{
			StartTime:    item.StartTime,
			Content:      strings.Join(item.contents(), " "),
			Type:         item.Type,
			LanguageCode: item.LanguageCode,
		})
	}
	return t
}

// put keeps the original position when a key is inserted twice.
func (t *Tokens) put(tok *Token) {
	if _, ok := t.byKey[tok.StartTime]; !ok {
		t.keys = append(t.keys, tok.StartTime)
	}
	t.byKey[tok.StartTime] = tok
}

func (t *Tokens) last() *Token {
	if len(t.keys) == 0 {
		return nil
	}
	return t.byKey[t.keys[len(t.keys)-1]]
}

func (t *Tokens) Len() int { return len(t.keys) }

func (t *Tokens) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *Tokens) Get(key string) (Token, bool) {
	tok, ok := t.byKey[key]
	if !ok {
		return Token{}, false
	}
	return *tok, true
}
