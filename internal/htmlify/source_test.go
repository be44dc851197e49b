package htmlify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineStartsBareNewlines(t *testing.T) {
	tests := []struct {
		src  string
		want []int
	}{
		{"", []int{0}},
		{"abc", []int{0}},
		{"int x;\n", []int{0, 7}},
		{"a\nbb\n\nccc", []int{0, 2, 5, 6}},
		{"\n\n", []int{0, 1, 2}},
	}
	for _, tc := range tests {
		got := LineStarts([]byte(tc.src))
		assert.Equal(t, tc.want, got, "source %q", tc.src)
		assert.Len(t, got, strings.Count(tc.src, "\n")+1)
		assert.Equal(t, 0, got[0])
	}
}

func TestLineStartsCarriageReturns(t *testing.T) {
	assert.Equal(t, []int{0, 4, 7, 11}, LineStarts([]byte("ab\r\ncd\nef\r\ng")))
	assert.Equal(t, []int{0, 2}, LineStarts([]byte("a\rb")))
	assert.Equal(t, []int{0, 2}, LineStarts([]byte("a\r")))
	assert.Equal(t, []int{0, 3}, LineStarts([]byte("a\r\n")))
}

func TestLineColMatchesOffsetAcrossLineEndings(t *testing.T) {
	sources := []string{
		"int a;\r\nint bb;\nchar c;\r\n\r\nx",
		"first\nsecond\r\nthird",
		"\r\n\r\nlast line",
	}
	for _, src := range sources {
		m := scanSource([]byte(src))
		lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
		require.Len(t, m.lineStarts, len(lines), "source %q", src)

		for i, line := range lines {
			for col := 0; col < len(line); col++ {
				idx, err := m.resolve(LineCol(i+1, col))
				require.NoError(t, err)
				assert.Equal(t, line[col], src[idx], "source %q line %d col %d", src, i+1, col)
			}
		}
	}
}

func TestResolveBounds(t *testing.T) {
	m := scanSource([]byte("ab\ncd"))

	idx, err := m.resolve(Offset(5))
	require.NoError(t, err)
	assert.Equal(t, 5, idx)

	idx, err = m.resolve(LineCol(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, idx)

	_, err = m.resolve(Offset(6))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	_, err = m.resolve(Offset(-1))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	_, err = m.resolve(LineCol(2, 3))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	_, err = m.resolve(LineCol(0, 0))
	assert.ErrorIs(t, err, ErrLineOutOfRange)
	_, err = m.resolve(LineCol(3, 0))
	assert.ErrorIs(t, err, ErrLineOutOfRange)
	_, err = m.resolve(Position{})
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestEscapeKeepsMultibyteRunes(t *testing.T) {
	src := []byte("a<b>&\"é\"")
	m := scanSource(src)
	got := newSplicer(len(src)).render(m.chars)
	assert.Equal(t, "a&lt;b&gt;&amp;\"é\"", got)
}

func TestSplicerZeroLengthRegion(t *testing.T) {
	src := []byte("abc")
	m := scanSource(src)
	sp := newSplicer(len(src))
	sp.wrap(1, 1, `<span class="caret">`, "</span>")

	got := sp.render(m.chars)
	assert.Equal(t, `a<span class="caret"></span>bc`, got)
	assert.Equal(t, "abc", strings.ReplaceAll(got, `<span class="caret"></span>`, ""))
}

func TestSplicerNesting(t *testing.T) {
	src := []byte("abc")
	chars := scanSource(src).chars

	t.Run("identical ranges nest later outside", func(t *testing.T) {
		sp := newSplicer(len(src))
		sp.wrap(0, 3, "<i>", "</i>")
		sp.wrap(0, 3, "<b>", "</b>")
		assert.Equal(t, "<b><i>abc</i></b>", sp.render(chars))
	})

	t.Run("shared start longer outside", func(t *testing.T) {
		sp := newSplicer(len(src))
		sp.wrap(0, 1, "<x>", "</x>")
		sp.wrap(0, 3, "<y>", "</y>")
		assert.Equal(t, "<y><x>a</x>bc</y>", sp.render(chars))
	})

	t.Run("shared end longer outside", func(t *testing.T) {
		sp := newSplicer(len(src))
		sp.wrap(0, 3, "<y>", "</y>")
		sp.wrap(2, 3, "<x>", "</x>")
		assert.Equal(t, "<y>ab<x>c</x></y>", sp.render(chars))
	})

	t.Run("adjacent ranges close before open", func(t *testing.T) {
		sp := newSplicer(len(src))
		sp.wrap(1, 2, "<b>", "</b>")
		sp.wrap(0, 1, "<a>", "</a>")
		assert.Equal(t, "<a>a</a><b>b</b>c", sp.render(chars))
	})

	t.Run("region ending at end of file", func(t *testing.T) {
		sp := newSplicer(len(src))
		sp.wrap(3, 3, "<e>", "</e>")
		assert.Equal(t, "abc<e></e>", sp.render(chars))
	})
}
