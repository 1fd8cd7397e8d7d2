package boulevard

import (
	"encoding/base64"
	"regexp"

	"github.com/google/uuid"
)

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// ReportIDCandidates holds every encoding of a report identifier the
// Boulevard API may echo back: the configured string, its URN form when a
// UUID is embedded, and base64 of both. Different endpoints use different
// forms for the same report.
type ReportIDCandidates struct {
	values []string
	set    map[string]struct{}
}

// NewReportIDCandidates generates the candidate set for a configured id.
func NewReportIDCandidates(raw string) ReportIDCandidates {
	c := ReportIDCandidates{set: make(map[string]struct{})}
	if raw == "" {
		return c
	}

	c.add(raw)
	c.add(base64.StdEncoding.EncodeToString([]byte(raw)))

	if match := uuidPattern.FindString(raw); match != "" {
		if id, err := uuid.Parse(match); err == nil {
			urn := "urn:blvd:Report:" + id.String()
			c.add(urn)
			c.add(base64.StdEncoding.EncodeToString([]byte(urn)))
		}
	}

	return c
}

func (c *ReportIDCandidates) add(v string) {
	if _, ok := c.set[v]; ok {
		return
	}
	c.set[v] = struct{}{}
	c.values = append(c.values, v)
}

// Values returns every candidate encoding, configured form first.
func (c ReportIDCandidates) Values() []string {
	return c.values
}

// Contains reports whether an id echoed by the API matches any candidate.
func (c ReportIDCandidates) Contains(id string) bool {
	_, ok := c.set[id]
	return ok
}

// Empty reports whether no report identifier was configured.
func (c ReportIDCandidates) Empty() bool {
	return len(c.values) == 0
}
