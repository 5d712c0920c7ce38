package decode

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrDateFormat indicates a timestamp string that matched none of the
// supported formats.
var ErrDateFormat = errors.New("unsupported date format")

// Validator is implemented by records that declare required fields.
// encoding/json leaves missing keys at their zero value, so strict decoding
// validates every record explicitly after unmarshalling.
type Validator interface {
	Validate() error
}

// List decodes a JSON array into records of type T, strictly: the whole
// decode fails on the first record that cannot be unmarshalled or is missing
// a required field.
func List[T Validator](data []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("invalid record at index %d: %w", i, err)
		}
	}
	return items, nil
}

// ListLenient decodes a JSON array record by record, dropping any record
// that fails to unmarshal or to validate. It never returns an error; a fully
// malformed payload yields an empty slice. Dropped records are counted and
// logged, not surfaced.
func ListLenient[T Validator](data []byte) []T {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		log.Debug().Err(err).Msg("Lenient decode: payload is not a JSON array")
		return []T{}
	}

	items := make([]T, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			dropped++
			continue
		}
		if err := item.Validate(); err != nil {
			dropped++
			continue
		}
		items = append(items, item)
	}

	if dropped > 0 {
		log.Debug().
			Int("dropped", dropped).
			Int("kept", len(items)).
			Msg("Lenient decode dropped invalid records")
	}
	return items
}

// ListFlexible decodes strictly first and degrades to per-record decoding
// when the whole list fails. It never returns an error; this is the entry
// point for list-shaped responses where a single malformed record must not
// abort the fetch.
func ListFlexible[T Validator](data []byte) []T {
	items, err := List[T](data)
	if err == nil {
		return items
	}
	log.Debug().Err(err).Msg("Strict decode failed, falling back to per-record decode")
	return ListLenient[T](data)
}

// One decodes a single record strictly. Row inserts made with
// return=representation come back as a one-element array, so both a bare
// object and a singleton array are accepted.
func One[T Validator](data []byte) (T, error) {
	var item T

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err == nil {
		if len(raws) == 0 {
			return item, errors.New("empty response, expected one record")
		}
		data = raws[0]
	}

	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("failed to decode record: %w", err)
	}
	if err := item.Validate(); err != nil {
		return item, fmt.Errorf("invalid record: %w", err)
	}
	return item, nil
}
