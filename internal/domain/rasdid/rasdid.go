// Package rasdid implements the composite identifiers used for data access
// requests and their dataset sub-requests.
//
// A parent identifier has the form RASD-YYYYMMDD-hhhhhh (date + 6 hex chars).
// A sub identifier appends a 2-digit sequence number: RASD-YYYYMMDD-hhhhhh-NN.
package rasdid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrFormat = errors.New("rasdid: invalid identifier format")

const pattern = `^RASD-\d{8}-[0-9a-f]{6}(-\d{2})?$`

var re = regexp.MustCompile(pattern)

// ID is a validated RASD identifier. The zero value is not valid; obtain one
// via Generate, Parse or Sub.
type ID string

// Generate produces a new parent identifier from today's date (UTC) and the
// first 6 hex characters of a random UUID. Collisions are statistically
// negligible and are not checked against the store.
func Generate() ID {
	return GenerateAt(time.Now().UTC())
}

// GenerateAt is Generate with an explicit timestamp, used by tests.
func GenerateAt(t time.Time) ID {
	return ID(fmt.Sprintf("RASD-%s-%s", t.UTC().Format("20060102"), uuid.New().String()[:6]))
}

// Parse validates s against the strict identifier format.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if !re.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrFormat, s)
	}
	return ID(s), nil
}

// Sub derives the identifier of the n-th dataset sub-request. Sequence numbers
// start at 1; deriving a sub identifier from another sub identifier is invalid.
func (id ID) Sub(n int) (ID, error) {
	if id.IsSub() {
		return "", fmt.Errorf("%w: cannot derive sub identifier from %q", ErrFormat, string(id))
	}
	if n < 1 || n > 99 {
		return "", fmt.Errorf("%w: sequence number %d out of range", ErrFormat, n)
	}
	return Parse(fmt.Sprintf("%s-%02d", string(id), n))
}

// IsSub reports whether id carries a sequence-number suffix.
func (id ID) IsSub() bool {
	return strings.Count(string(id), "-") == 3
}

// Parent returns the parent identifier of a sub identifier. For a parent
// identifier it returns the identifier itself.
func (id ID) Parent() ID {
	if !id.IsSub() {
		return id
	}
	i := strings.LastIndex(string(id), "-")
	return ID(string(id)[:i])
}

// Seq returns the sequence number of a sub identifier, or 0 for a parent.
func (id ID) Seq() int {
	if !id.IsSub() {
		return 0
	}
	i := strings.LastIndex(string(id), "-")
	n, _ := strconv.Atoi(string(id)[i+1:])
	return n
}

func (id ID) String() string { return string(id) }
