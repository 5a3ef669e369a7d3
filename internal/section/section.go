// Package section holds the tolerant lookup tables the UniFi agent sections
// are parsed into. Reading an unknown key never fails, it yields "".
package section

import (
	"sort"
	"strconv"
	"strings"
)

// Record is a flat mapping from field name to value.
type Record map[string]string

// Get returns the value of key or "" when the key is missing.
func (r Record) Get(key string) string {
	return r[key]
}

// Lookup returns the value of key and whether it is present.
func (r Record) Lookup(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// Has reports whether key is present with a non-empty value.
func (r Record) Has(key string) bool {
	return r[key] != ""
}

// GetOr returns the value of key, or def when the key is missing.
// A present but empty value is returned as is.
func (r Record) GetOr(key, def string) string {
	if v, ok := r[key]; ok {
		return v
	}
	return def
}

// Int returns the value of key as integer, def when missing or malformed.
func (r Record) Int(key string, def int) int {
	return SafeInt(r[key], def)
}

// Float returns the value of key as float, def when missing or malformed.
func (r Record) Float(key string, def float64) float64 {
	return SafeFloat(r[key], def)
}

// Bool interprets the value of key as integer flag.
func (r Record) Bool(key string) bool {
	return SafeInt(r[key], 0) != 0
}

// Table maps an entity id to its record.
type Table map[string]Record

// Get returns the record of id. Missing entities yield an empty record.
func (t Table) Get(id string) Record {
	if r, ok := t[id]; ok {
		return r
	}
	return Record{}
}

// Lookup returns the record of id and whether it is present.
func (t Table) Lookup(id string) (Record, bool) {
	r, ok := t[id]
	return r, ok
}

// IDs returns the entity ids in sorted order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records returns the records in id order.
func (t Table) Records() []Record {
	ids := t.IDs()
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, t[id])
	}
	return out
}

// Find returns the first record in id order matching pred.
func (t Table) Find(pred func(Record) bool) (Record, bool) {
	for _, id := range t.IDs() {
		if pred(t[id]) {
			return t[id], true
		}
	}
	return nil, false
}

// ParseRecord builds a Record from (key, value) rows. Later keys overwrite
// earlier ones; rows with less than two fields are skipped.
func ParseRecord(rows [][]string) Record {
	rec := make(Record, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		rec[row[0]] = row[1]
	}
	return rec
}

// ParseTable builds a Table from (entity_id, key, value) rows. Later keys
// overwrite earlier ones; rows with less than three fields are skipped.
func ParseTable(rows [][]string) Table {
	tbl := make(Table)
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		rec, ok := tbl[row[0]]
		if !ok {
			rec = make(Record)
			tbl[row[0]] = rec
		}
		rec[row[1]] = row[2]
	}
	return tbl
}

// SafeInt converts s to an integer, returning def when s is not a plain
// (optionally signed) decimal integer.
func SafeInt(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

// SafeFloat converts s to a float, returning def when s is malformed.
func SafeFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}
