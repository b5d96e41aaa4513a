package ddns

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RecordTypeA is the only record type managed by [Client].
const RecordTypeA = "A"

// Record is a single DNS record as known to Netlify.
//
// Priority, Weight, Port, Flag, Tag, SiteID and Errors only have meaning for
// some record types. They are kept as raw JSON so present values round-trip unchanged.
// A field absent from the decoded JSON is encoded as null, as Netlify itself
// sends every field.
type Record struct {
	Hostname  string            `json:"hostname"`
	Type      string            `json:"type"`
	TTL       int64             `json:"ttl"`
	Priority  json.RawMessage   `json:"priority"`
	Weight    json.RawMessage   `json:"weight"`
	Port      json.RawMessage   `json:"port"`
	Flag      json.RawMessage   `json:"flag"`
	Tag       json.RawMessage   `json:"tag"`
	ID        string            `json:"id"` // empty until Netlify creates the record
	SiteID    json.RawMessage   `json:"site_id"`
	DNSZoneID string            `json:"dns_zone_id"`
	Errors    []json.RawMessage `json:"errors"`
	Managed   bool              `json:"managed"`
	Value     string            `json:"value"`
}

func (r Record) String() string {
	return fmt.Sprintf("%s (%d %s) %s", r.Hostname, r.TTL, r.Type, r.Value)
}

// JSON encodes r in the Netlify wire format.
func (r Record) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// ParseRecord decodes a single record. A "null" body is an error.
func ParseRecord(data []byte) (*Record, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: null record", ErrDecode)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &r, nil
}

// RecordSet is the ordered list of records for one zone.
type RecordSet []Record

// ParseRecordSet decodes a JSON array of records. A "null" body is an error.
func ParseRecordSet(data []byte) (RecordSet, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: null record list", ErrDecode)
	}
	var rs RecordSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return rs, nil
}

// FirstA returns the first "A" record whose hostname is exactly hostname, or nil.
func (rs RecordSet) FirstA(hostname string) *Record {
	for i := range rs {
		if rs[i].Type == RecordTypeA && rs[i].Hostname == hostname {
			return &rs[i]
		}
	}
	return nil
}

func (rs RecordSet) String() string {
	lines := make([]string, len(rs))
	for i, r := range rs {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
