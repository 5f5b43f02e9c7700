package book

import "github.com/guttosm/itchpulse/internal/itch"

// Directory maps a security id to its display symbol. It is populated from
// stock directory messages during the ingestion pass and read-only afterwards.
type Directory map[itch.SecurityID]string

// NewDirectory returns an empty symbol directory.
func NewDirectory() Directory {
	return make(Directory)
}

// Resolve returns the symbol for a security id. The second return is false
// when no directory message was ever seen for the id; callers must tolerate
// that (export uses a placeholder) rather than fail.
func (d Directory) Resolve(sec itch.SecurityID) (string, bool) {
	s, ok := d[sec]
	return s, ok
}
