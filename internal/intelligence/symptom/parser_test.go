package symptom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleParser_Tokens(t *testing.T) {
	t.Parallel()

	doc, err := NewRuleParser().Parse(context.Background(), "I can't sleep, 3 nights.")
	require.NoError(t, err)

	texts := make([]string, len(doc.Tokens))
	for i, tok := range doc.Tokens {
		texts[i] = tok.Text
		assert.Equal(t, tok.Text, doc.Text[tok.Start:tok.Start+len(tok.Text)])
	}
	assert.Equal(t, []string{"I", "can't", "sleep", ",", "3", "nights", "."}, texts)

	assert.Equal(t, POSPron, doc.Tokens[0].POS)
	assert.Equal(t, "i", doc.Tokens[0].Lemma)
	assert.Equal(t, POSPunct, doc.Tokens[3].POS)
	assert.Equal(t, POSNum, doc.Tokens[4].POS)
	assert.Equal(t, POSNoun, doc.Tokens[5].POS)
}

func TestRuleParser_NegationScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		cue      int
		headText string
		span     string
	}{
		{"not before noun", "I do not have a fever, but my head hurts", 2, "fever", "not have a fever"},
		{"contraction", "I don't feel nauseous", 1, "feel", "don't feel nauseous"},
		{"never", "never had a rash", 0, "rash", "never had a rash"},
		{"clause word ends scope", "not dizzy however tired", 0, "dizzy", "not dizzy"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := NewRuleParser().Parse(context.Background(), tt.text)
			require.NoError(t, err)

			cue := doc.Tokens[tt.cue]
			assert.Equal(t, DepNeg, cue.Dep)
			head := doc.Tokens[cue.Head]
			assert.Equal(t, tt.headText, head.Text)
			assert.Equal(t, tt.span, doc.SpanText(head.LeftEdge, head.RightEdge))
		})
	}
}

func TestRuleParser_NoIsDeterminer(t *testing.T) {
	t.Parallel()

	doc, err := NewRuleParser().Parse(context.Background(), "no fever")
	require.NoError(t, err)
	assert.Equal(t, POSDet, doc.Tokens[0].POS)
	assert.Empty(t, doc.Tokens[0].Dep)
}

func TestRuleParser_CueWithoutHead(t *testing.T) {
	t.Parallel()

	doc, err := NewRuleParser().Parse(context.Background(), "definitely not.")
	require.NoError(t, err)
	cue := doc.Tokens[1]
	assert.Equal(t, DepNeg, cue.Dep)
	assert.Equal(t, 1, cue.Head, "a cue with no content word attaches to itself")
}

func TestRuleParser_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRuleParser().Parse(ctx, "fever")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoc_SpanText_OutOfRange(t *testing.T) {
	t.Parallel()

	doc := &Doc{Text: "ab", Tokens: []Token{{Text: "ab", Start: 0}}}
	assert.Equal(t, "ab", doc.SpanText(0, 0))
	assert.Empty(t, doc.SpanText(0, 1))
	assert.Empty(t, doc.SpanText(-1, 0))
}
