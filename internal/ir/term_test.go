package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTermRoundTrip(t *testing.T) {
	tests := []string{
		"x",
		"(+ 0 x)",
		"(+ 0 (* 1 foo))",
		"(f (g a b) h c)",
		"(f à)",
		"(concat 日本 語)",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			term, err := ParseTerm(src)
			require.NoError(t, err)
			assert.Equal(t, src, term.String())
		})
	}
}

func TestParseTermNullaryListIsLeaf(t *testing.T) {
	term := MustParseTerm("(f (g a b) (h) c)")

	assert.Equal(t, "(f (g a b) h c)", term.String())
	assert.Equal(t, MustParseTerm("(f (g a b) h c)").Nodes(), term.Nodes())
}

func TestParseTermUnicodeAtoms(t *testing.T) {
	term := MustParseTerm("(f à\u00a0b)")

	nodes := term.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, "à", nodes[0].Op.String())
	assert.Equal(t, "b", nodes[1].Op.String())

	accented, err := TermHash(MustParseTerm("(f à)"))
	require.NoError(t, err)
	truncated, err := TermHash(MustParseTerm("(f a)"))
	require.NoError(t, err)
	assert.NotEqual(t, accented, truncated)
}

func TestParseTermPostOrder(t *testing.T) {
	term := MustParseTerm("(+ 0 (* 1 foo))")

	nodes := term.Nodes()
	require.Len(t, nodes, 5)
	assert.Equal(t, ID(4), term.Root())
	for i, n := range nodes {
		for _, c := range n.Children {
			assert.Less(t, int(c), i, "children must precede their parent")
		}
	}
	assert.Equal(t, "+", nodes[term.Root()].Op.String())
}

func TestParseTermErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "   ", "empty expression"},
		{"unclosed", "(+ 1 2", "unclosed"},
		{"stray close", ")", "unexpected ')'"},
		{"trailing", "(+ 1 2) x", "trailing input"},
		{"empty list", "(+ ())", "empty list"},
		{"list operator", "((f) x)", "operator must be an atom"},
		{"invalid utf8", "(f \xc3)", "invalid UTF-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTerm(tt.src)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Message, tt.want)
		})
	}
}

func TestTermTextMarshaling(t *testing.T) {
	var term Term
	require.NoError(t, term.UnmarshalText([]byte("(* a b)")))

	text, err := term.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "(* a b)", string(text))
}

func TestTermAddRejectsForwardReference(t *testing.T) {
	var term Term
	assert.Panics(t, func() {
		term.Add(NewNode("f", 3))
	})
}

func TestSymbolInterning(t *testing.T) {
	a := Intern("commute-add")
	b := Intern("commute-add")
	c := Intern("add-zero")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "commute-add", a.String())
}

func TestSubstExtendDoesNotAlias(t *testing.T) {
	base := Subst{}.Extend("?a", 1)
	left := base.Extend("?b", 2)
	right := base.Extend("?b", 3)

	l, _ := left.Lookup("?b")
	r, _ := right.Lookup("?b")
	assert.Equal(t, ID(2), l)
	assert.Equal(t, ID(3), r)
	assert.Len(t, base, 1)
	assert.Equal(t, "{?a=e1, ?b=e2}", left.String())
}

func TestTotalMatches(t *testing.T) {
	ms := []SearchMatches{
		{EClass: 1, Substs: []Subst{{}, {}}},
		{EClass: 2, Substs: []Subst{{}}},
	}
	assert.Equal(t, 3, TotalMatches(ms))
	assert.Equal(t, 0, TotalMatches(nil))
}

func TestSchedulerSpecMerge(t *testing.T) {
	got := SchedulerSpec{IterationLimit: 3}.Merge(SchedulerSpec{IterationLimit: 30, NodeLimit: 10000, BanLength: 5})
	assert.Equal(t, SchedulerSpec{IterationLimit: 3, NodeLimit: 10000, BanLength: 5}, got)
}
