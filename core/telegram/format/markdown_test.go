package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	got, err := EscapeMarkdown("a_b*c`d[e]", MarkdownV1)
	require.NoError(t, err)
	assert.Equal(t, "a\\_b\\*c\\`d\\[e]", got)

	got, err = EscapeMarkdown("v1.2 (beta)!", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, "v1\\.2 \\(beta\\)\\!", got)

	got, err = EscapeMarkdown("2026-03-11 a+b=c, 10:30; x<y", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, "2026\\-03\\-11 a\\+b\\=c, 10:30; x<y", got)

	_, err = EscapeMarkdown("x", 3)
	assert.Error(t, err)

	assert.Equal(t, "Anna\\_K", Escape("Anna_K"))
	assert.Equal(t, "Анна", Escape("Анна"))
}
