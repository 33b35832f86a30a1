package symptom

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ----------------------------------------------------------------------------
// Dependency parse model
// ----------------------------------------------------------------------------

// Universal POS tags and dependency labels used by the negation detector.
const (
	POSNoun  = "NOUN"
	POSPropn = "PROPN"
	POSAdj   = "ADJ"
	POSVerb  = "VERB"
	POSAux   = "AUX"
	POSAdv   = "ADV"
	POSDet   = "DET"
	POSPron  = "PRON"
	POSAdp   = "ADP"
	POSCconj = "CCONJ"
	POSSconj = "SCONJ"
	POSPart  = "PART"
	POSNum   = "NUM"
	POSPunct = "PUNCT"

	DepNeg = "neg"
)

// Token is one parsed token.  Head, LeftEdge and RightEdge are indexes into
// Doc.Tokens; Start is the byte offset of Text in Doc.Text.
type Token struct {
	Text      string `json:"text"`
	Lemma     string `json:"lemma"`
	POS       string `json:"pos"`
	Dep       string `json:"dep"`
	Head      int    `json:"head"`
	LeftEdge  int    `json:"left_edge"`
	RightEdge int    `json:"right_edge"`
	Start     int    `json:"idx"`
}

// Doc is a parsed text.
type Doc struct {
	Text   string
	Tokens []Token
}

// SpanText returns the source text covering tokens left..right inclusive.
func (d *Doc) SpanText(left, right int) string {
	if left < 0 || right >= len(d.Tokens) || left > right {
		return ""
	}
	start := d.Tokens[left].Start
	end := d.Tokens[right].Start + len(d.Tokens[right].Text)
	if start < 0 || end > len(d.Text) || start > end {
		return ""
	}
	return d.Text[start:end]
}

// Parser produces a dependency parse of text.
type Parser interface {
	Parse(ctx context.Context, text string) (*Doc, error)
}

// ----------------------------------------------------------------------------
// RuleParser
// ----------------------------------------------------------------------------

// tokenRe splits words (keeping contractions such as "can't" whole) from
// single punctuation characters.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['’][\p{L}]+)*|[^\s\p{L}\p{N}_]`)

var closedClass = map[string]string{}

func init() {
	groups := map[string]string{
		POSDet:   "no a an the any some this that these those my your his her its our their every each all",
		POSPron:  "i me you he she it we they him them us myself yourself himself herself itself ourselves themselves mine yours",
		POSAux:   "am is are was were be been being have has had having do does did can could will would shall should may might must",
		POSAdp:   "without in on at of for with to from by about into over under after before since during around through",
		POSCconj: "and or nor but yet so",
		POSSconj: "although though because while if when however except whereas unless",
		POSPart:  "not never",
		POSVerb:  "feel feels feeling felt get gets getting got experience experiencing experienced report reports reported notice noticed noticing complain complains complaining deny denies denied seem seems think",
		POSAdv:   "very really also too just quite still lately recently currently always sometimes often",
	}
	for pos, words := range groups {
		for _, w := range strings.Fields(words) {
			closedClass[w] = pos
		}
	}
}

// clauseBreak reports whether a lowercased token ends a negation scope.
func clauseBreak(lower string) bool {
	switch lower {
	case ",", ".", ";", ":", "!", "?", "but", "however", "although", "though", "except", "yet", "whereas":
		return true
	}
	return false
}

// RuleParser is a deterministic parser for clinical complaints.  It assigns
// POS tags from a closed-class lexicon (open-class words become NOUN), marks
// "not", "never" and n't-contractions as negation modifiers, attaches each
// cue to the next content word and gives that head a subtree running from
// the cue to the end of its clause.
type RuleParser struct{}

// NewRuleParser returns a RuleParser.
func NewRuleParser() *RuleParser { return &RuleParser{} }

// Parse implements Parser.
func (p *RuleParser) Parse(ctx context.Context, text string) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locs := tokenRe.FindAllStringIndex(text, -1)
	doc := &Doc{Text: text, Tokens: make([]Token, len(locs))}
	for i, loc := range locs {
		raw := text[loc[0]:loc[1]]
		lower := strings.ToLower(raw)
		doc.Tokens[i] = Token{
			Text:      raw,
			Lemma:     lower,
			POS:       tagPOS(lower),
			Head:      i,
			LeftEdge:  i,
			RightEdge: i,
			Start:     loc[0],
		}
	}

	for i := range doc.Tokens {
		if !isNegationCue(doc.Tokens[i].Lemma) {
			continue
		}
		doc.Tokens[i].Dep = DepNeg
		doc.Tokens[i].POS = POSPart

		end := i
		for end+1 < len(doc.Tokens) && !clauseBreak(doc.Tokens[end+1].Lemma) {
			end++
		}
		head := i
		for j := i + 1; j <= end; j++ {
			if isContentPOS(doc.Tokens[j].POS) {
				head = j
				break
			}
		}
		doc.Tokens[i].Head = head
		h := &doc.Tokens[head]
		h.LeftEdge = min(h.LeftEdge, i)
		h.RightEdge = max(h.RightEdge, end)
	}
	return doc, nil
}

func tagPOS(lower string) string {
	if pos, ok := closedClass[lower]; ok {
		return pos
	}
	r, _ := utf8.DecodeRuneInString(lower)
	switch {
	case r == utf8.RuneError:
		return POSPunct
	case !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_':
		return POSPunct
	case isDigits(lower):
		return POSNum
	}
	return POSNoun
}

func isContentPOS(pos string) bool {
	switch pos {
	case POSNoun, POSPropn, POSAdj, POSVerb:
		return true
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
