package helpers

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	EventsFolder    = "eventos"
	DocumentsFolder = "documentos"
)

func StringTrim(s string) string {
	return strings.TrimSpace(s)
}

// RemoveDuplicates trims each value and drops blanks and repeats, keeping the
// first occurrence.
func RemoveDuplicates(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = StringTrim(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// StorageKey builds a collision-resistant object name of the form
// <unix millis>-<base36 random>.<ext>.
func StorageKey(now time.Time, ext string) string {
	id := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	ext = strings.TrimPrefix(strings.ToLower(StringTrim(ext)), ".")
	if ext == "" {
		return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
	}
	return fmt.Sprintf("%d-%s.%s", now.UnixMilli(), suffix, ext)
}

// EmailLocalPart returns the text before the @, or the whole input when there is none.
func EmailLocalPart(email string) string {
	return strings.SplitN(StringTrim(email), "@", 2)[0]
}
