package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day key format used in entries and moods.
const DateLayout = "2006-01-02"

// DateKey formats t as a calendar-day key in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Mood tags a member's day.
type Mood string

const (
	MoodPurple Mood = "purple"
	MoodBlue   Mood = "blue"
	MoodYellow Mood = "yellow"
	MoodGreen  Mood = "green"
)

// ReportMoods is the fixed order moods are listed in reports.
var ReportMoods = []Mood{MoodGreen, MoodBlue, MoodYellow, MoodPurple}

// Valid reports whether m is one of the known tags.
func (m Mood) Valid() bool {
	switch m {
	case MoodPurple, MoodBlue, MoodYellow, MoodGreen:
		return true
	}
	return false
}

// Emoji returns the heart used for m in messages.
func (m Mood) Emoji() string {
	switch m {
	case MoodPurple:
		return "💜"
	case MoodBlue:
		return "💙"
	case MoodYellow:
		return "💛"
	case MoodGreen:
		return "💚"
	}
	return ""
}

// UserRecord is everything stored about one member.
type UserRecord struct {
	Name    string          `json:"name"`
	Entries map[string]int  `json:"entries"`
	Moods   map[string]Mood `json:"moods"`
}

func newUserRecord(name string) *UserRecord {
	return &UserRecord{
		Name:    name,
		Entries: make(map[string]int),
		Moods:   make(map[string]Mood),
	}
}

func (u *UserRecord) backfill() {
	if u.Entries == nil {
		u.Entries = make(map[string]int)
	}
	if u.Moods == nil {
		u.Moods = make(map[string]Mood)
	}
}

// Snapshot is the whole persisted document: user records in document order.
type Snapshot struct {
	order []string
	users map[string]*UserRecord
}

// NewSnapshot returns an empty document.
func NewSnapshot() *Snapshot {
	return &Snapshot{users: make(map[string]*UserRecord)}
}

// Len returns the number of users.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// UserIDs returns user ids in document order.
func (s *Snapshot) UserIDs() []string {
	return append([]string(nil), s.order...)
}

// User looks up a record by id.
func (s *Snapshot) User(id string) (*UserRecord, bool) {
	u, ok := s.users[id]
	return u, ok
}

// Ensure returns the record for id, appending a new one named name if absent.
func (s *Snapshot) Ensure(id, name string) (*UserRecord, bool) {
	if u, ok := s.users[id]; ok {
		return u, false
	}
	u := newUserRecord(name)
	s.users[id] = u
	s.order = append(s.order, id)
	return u, true
}

// Each visits records in document order.
func (s *Snapshot) Each(fn func(id string, u *UserRecord)) {
	for _, id := range s.order {
		fn(id, s.users[id])
	}
}

// Encode renders the document as two-space indented JSON, keeping user order.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalRaw(id)
		if err != nil {
			return nil, err
		}
		val, err := marshalRaw(s.users[id])
		if err != nil {
			return nil, fmt.Errorf("encode user %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Decode parses a persisted document. Records missing entries or moods get
// empty maps. A repeated user key keeps its first position and last value.
func Decode(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode stats: expected object, got %v", tok)
	}

	s := NewSnapshot()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
		id, _ := tok.(string)
		var u UserRecord
		if err := dec.Decode(&u); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", id, err)
		}
		u.backfill()
		if _, seen := s.users[id]; !seen {
			s.order = append(s.order, id)
		}
		s.users[id] = &u
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return s, nil
}

func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
