package decode

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	At   Time   `json:"at"`
}

func (r record) Validate() error {
	if r.ID == "" {
		return errors.New("record: missing id")
	}
	if r.Name == "" {
		return errors.New("record: missing name")
	}
	return nil
}

func TestParseTimeSameInstantAcrossFormats(t *testing.T) {
	// The same wall-clock moment in each supported encoding.
	encodings := []string{
		"2025-03-04T12:30:45.123456+00:00",
		"2025-03-04T12:30:45.123456Z",
		"2025-03-04T12:30:45.123456789Z",
		"2025-03-04T12:30:45Z",
	}

	want := time.Date(2025, 3, 4, 12, 30, 45, 0, time.UTC)
	for _, s := range encodings {
		parsed, err := ParseTime(s)
		require.NoError(t, err, "format %q", s)
		assert.Equal(t, want, parsed.Truncate(time.Second).UTC(), "format %q", s)
	}

	a, err := ParseTime("2025-03-04T12:30:45.123456+00:00")
	require.NoError(t, err)
	b, err := ParseTime("2025-03-04T12:30:45.123456Z")
	require.NoError(t, err)
	assert.True(t, a.Equal(b.Time), "same instant must compare equal")
}

func TestParseTimeUnsupportedFormat(t *testing.T) {
	_, err := ParseTime("04/03/2025 12:30")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDateFormat)
}

func TestTimeRoundTrip(t *testing.T) {
	original := NewTime(time.Date(2025, 3, 4, 12, 30, 45, 123456000, time.UTC))
	data, err := original.MarshalJSON()
	require.NoError(t, err)

	var parsed Time
	require.NoError(t, parsed.UnmarshalJSON(data))
	assert.True(t, original.Equal(parsed.Time))
}

func TestListStrict(t *testing.T) {
	data := []byte(`[
		{"id": "1", "name": "a", "at": "2025-03-04T12:00:00Z"},
		{"id": "2", "name": "b", "at": "2025-03-04T13:00:00.000001Z"}
	]`)
	items, err := List[record](data)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Name)
}

func TestListStrictFailsOnMissingField(t *testing.T) {
	data := []byte(`[
		{"id": "1", "name": "a", "at": "2025-03-04T12:00:00Z"},
		{"id": "2", "at": "2025-03-04T13:00:00Z"}
	]`)
	_, err := List[record](data)
	require.Error(t, err)
}

func TestListLenientDropsInvalidRecords(t *testing.T) {
	data := []byte(`[
		{"id": "1", "name": "a", "at": "2025-03-04T12:00:00Z"},
		{"id": "2", "at": "2025-03-04T13:00:00Z"},
		{"id": "3", "name": "c", "at": "2025-03-04T14:00:00Z"}
	]`)
	items := ListLenient[record](data)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "3", items[1].ID)
}

func TestListLenientDropsBadDates(t *testing.T) {
	data := []byte(`[
		{"id": "1", "name": "a", "at": "not-a-date"},
		{"id": "2", "name": "b", "at": "2025-03-04T13:00:00Z"}
	]`)
	items := ListLenient[record](data)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)
}

func TestListLenientNeverFails(t *testing.T) {
	assert.Empty(t, ListLenient[record]([]byte(`{"not": "a list"}`)))
	assert.Empty(t, ListLenient[record]([]byte(`garbage`)))
	assert.Empty(t, ListLenient[record]([]byte(`[]`)))
}

func TestListFlexibleFallsBack(t *testing.T) {
	// One of three records is missing a required field: strict decoding
	// would fail the whole list, the flexible path keeps the other two.
	data := []byte(`[
		{"id": "1", "name": "a", "at": "2025-03-04T12:00:00Z"},
		{"name": "b", "at": "2025-03-04T13:00:00Z"},
		{"id": "3", "name": "c", "at": "2025-03-04T14:00:00Z"}
	]`)
	items := ListFlexible[record](data)
	require.Len(t, items, 2)
}

func TestOneAcceptsSingletonArray(t *testing.T) {
	item, err := One[record]([]byte(`[{"id": "1", "name": "a", "at": "2025-03-04T12:00:00Z"}]`))
	require.NoError(t, err)
	assert.Equal(t, "1", item.ID)
}

func TestOneAcceptsBareObject(t *testing.T) {
	item, err := One[record]([]byte(`{"id": "1", "name": "a", "at": "2025-03-04T12:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "1", item.ID)
}

func TestOneFailsOnInvalidRecord(t *testing.T) {
	_, err := One[record]([]byte(`{"name": "a"}`))
	require.Error(t, err)

	_, err = One[record]([]byte(`[]`))
	require.Error(t, err)
}
