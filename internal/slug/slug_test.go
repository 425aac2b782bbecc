package slug

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var slugShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestCreate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation", "Green Valley Co-op!!", "green-valley-co-op"},
		{"leading and trailing noise", "  --Mbale Growers--  ", "mbale-growers"},
		{"collapses runs", "A  &  B", "a-b"},
		{"digits kept", "Cooperative 42", "cooperative-42"},
		{"non ascii letters become separators", "Café Nyeri", "caf-nyeri"},
		{"only symbols", "!!! ***", "org"},
		{"empty", "", "org"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Create(tc.in))
		})
	}
}

func TestCreateShape(t *testing.T) {
	inputs := []string{"Kisumu Farmers' Union", "-x-", "ÅÄÖ", "abc___def", "UPPER lower 123", "🌽 Maize"}
	for _, in := range inputs {
		got := Create(in)
		assert.Equal(t, strings.ToLower(got), got, in)
		assert.Regexp(t, slugShape, got, in)
		assert.False(t, strings.HasPrefix(got, "-"), in)
		assert.False(t, strings.HasSuffix(got, "-"), in)
	}
}

func TestSuffixUsesTailOfEntropy(t *testing.T) {
	assert.Equal(t, "a1b2c3", Suffix("7f0e2c1d-0000-4000-8000-0000a1b2c3"))
	assert.Equal(t, "abc", Suffix("ABC"))
	assert.Equal(t, "12ab", Suffix("xx-12_AB"))
}

func TestSuffixFallsBackToRandom(t *testing.T) {
	hex6 := regexp.MustCompile(`^[a-f0-9]{6}$`)

	a := Suffix("")
	b := Suffix("------")
	assert.Regexp(t, hex6, a)
	assert.Regexp(t, hex6, b)
	assert.NotEqual(t, Suffix(""), Suffix(""))
}

func TestDefault(t *testing.T) {
	got := Default("Jane Wanjiru", "5b6a7c2e-1111-4222-8333-9d8e7f6a5b4c")
	assert.Equal(t, "jane-wanjiru-6a5b4c", got)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("green-valley"))
	assert.True(t, Valid("g1"))
	assert.False(t, Valid("g"))
	assert.False(t, Valid("-green"))
	assert.False(t, Valid("Green"))
	assert.False(t, Valid(strings.Repeat("a", 65)))
}
