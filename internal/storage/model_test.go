package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateKeyUsesLocation(t *testing.T) {
	ts := time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-10", DateKey(ts))
	assert.Equal(t, "2026-03-11", DateKey(ts.In(time.FixedZone("MSK", 3*60*60))))
}

func TestMoodHelpers(t *testing.T) {
	for _, m := range ReportMoods {
		assert.True(t, m.Valid())
		assert.NotEmpty(t, m.Emoji())
	}
	assert.False(t, Mood("red").Valid())
	assert.Empty(t, Mood("red").Emoji())
}

func TestDecodeKeepsOrderAndBackfills(t *testing.T) {
	s, err := Decode([]byte(`{"20": {"name": "B"}, "3": {"name": "A", "entries": {"2026-03-01": 10}}, "20": {"name": "B2", "moods": {"2026-03-01": "blue"}}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"20", "3"}, s.UserIDs())
	u, ok := s.User("20")
	require.True(t, ok)
	assert.Equal(t, "B2", u.Name)
	assert.NotNil(t, u.Entries)
	assert.Equal(t, MoodBlue, u.Moods["2026-03-01"])

	a, _ := s.User("3")
	assert.NotNil(t, a.Moods)
	assert.Equal(t, 10, a.Entries["2026-03-01"])
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, in := range []string{``, `[]`, `"x"`, `{"1": 5}`, `{"1": {"name": "a"}`} {
		_, err := Decode([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestEncode(t *testing.T) {
	s := NewSnapshot()
	u, created := s.Ensure("9", "Анна <3>")
	require.True(t, created)
	u.Entries["2026-03-01"] = 1500
	_, created = s.Ensure("9", "ignored")
	assert.False(t, created)
	s.Ensure("1", "Boris")

	data, err := s.Encode()
	require.NoError(t, err)
	want := `{
  "9": {
    "name": "Анна <3>",
    "entries": {
      "2026-03-01": 1500
    },
    "moods": {}
  },
  "1": {
    "name": "Boris",
    "entries": {},
    "moods": {}
  }
}
`
	assert.Equal(t, want, string(data))

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "1"}, back.UserIDs())
}

func TestEncodeEmpty(t *testing.T) {
	data, err := NewSnapshot().Encode()
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}
