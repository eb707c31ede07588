package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumn(t *testing.T) {
	m := Column(
		Button{Text: "A", Unique: "pick", Data: "a"},
		Button{Text: "B", Unique: "pick", Data: "b"},
	)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 1)
	assert.Equal(t, "A", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "pick", m.InlineKeyboard[0][0].Unique)
	assert.Contains(t, m.InlineKeyboard[1][0].Data, "b")
}

func TestInlineSkipsEmptyRows(t *testing.T) {
	m := Inline(nil, []Button{{Text: "W", Unique: "stats", Data: "week"}, {Text: "M", Unique: "stats", Data: "month"}})
	require.Len(t, m.InlineKeyboard, 1)
	require.Len(t, m.InlineKeyboard[0], 2)
	assert.Equal(t, "stats", m.InlineKeyboard[0][1].Unique)
	assert.Contains(t, m.InlineKeyboard[0][1].Data, "month")
}
