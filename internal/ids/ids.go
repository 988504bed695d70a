package ids

import "github.com/segmentio/ksuid"

// New returns a fresh image identifier. KSUIDs are k-sortable and collision
// resistant; the prefix keeps ids self-describing in logs and URLs.
func New() string {
	return "img_" + ksuid.New().String()
}
