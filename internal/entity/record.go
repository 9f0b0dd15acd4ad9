package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rts-map-renderer/internal/rules"
)

// ErrMalformedRecord marks a map record whose numeric fields do not parse.
var ErrMalformedRecord = errors.New("malformed record")

// Record is one decoded map entry before frame selection.
type Record struct {
	Kind    rules.Kind
	Key     string
	House   string
	Type    string
	Cell    int
	Health  int // 0-256
	Facing  int // 0-255
	SubCell int
	Data    int
}

// ParseRecord decodes one "key=value" line of a map section.
//
//	structure, unit, vessel: House,Type,Health,Cell,Facing,...
//	infantry:                House,Type,Health,Cell,SubCell,Mission,Facing,...
//	terrain (key is cell):   Type,...
//	smudge:                  Type,Cell,Data
func ParseRecord(kind rules.Kind, key, value string) (Record, error) {
	rec := Record{Kind: kind, Key: key, Health: FullHealth}
	f := splitFields(value)

	fail := func(field string, err error) (Record, error) {
		return Record{}, fmt.Errorf("%w: %s %s=%s: %s: %v", ErrMalformedRecord, kind, key, value, field, err)
	}
	need := func(n int) error {
		if len(f) < n {
			return fmt.Errorf("expected at least %d fields, got %d", n, len(f))
		}
		return nil
	}

	var err error
	switch kind {
	case rules.KindStructure, rules.KindUnit, rules.KindVessel:
		if err := need(5); err != nil {
			return fail("fields", err)
		}
		rec.House, rec.Type = f[0], f[1]
		if rec.Health, err = atoiRange(f[2], 0, FullHealth); err != nil {
			return fail("health", err)
		}
		if rec.Cell, err = atoiRange(f[3], 0, -1); err != nil {
			return fail("cell", err)
		}
		if rec.Facing, err = atoiRange(f[4], 0, 255); err != nil {
			return fail("facing", err)
		}

	case rules.KindInfantry:
		if err := need(7); err != nil {
			return fail("fields", err)
		}
		rec.House, rec.Type = f[0], f[1]
		if rec.Health, err = atoiRange(f[2], 0, FullHealth); err != nil {
			return fail("health", err)
		}
		if rec.Cell, err = atoiRange(f[3], 0, -1); err != nil {
			return fail("cell", err)
		}
		if rec.SubCell, err = atoiRange(f[4], 0, 4); err != nil {
			return fail("subcell", err)
		}
		if rec.Facing, err = atoiRange(f[6], 0, 255); err != nil {
			return fail("facing", err)
		}

	case rules.KindTerrain:
		if err := need(1); err != nil {
			return fail("fields", err)
		}
		rec.Type = f[0]
		if rec.Cell, err = atoiRange(key, 0, -1); err != nil {
			return fail("cell", err)
		}

	case rules.KindSmudge:
		if err := need(3); err != nil {
			return fail("fields", err)
		}
		rec.Type = f[0]
		if rec.Cell, err = atoiRange(f[1], 0, -1); err != nil {
			return fail("cell", err)
		}
		if rec.Data, err = atoiRange(f[2], 0, -1); err != nil {
			return fail("data", err)
		}

	default:
		return Record{}, fmt.Errorf("entity: %s records are not parsed from text", kind)
	}

	return rec, nil
}

func splitFields(v string) []string {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// atoiRange parses a decimal field and checks lo <= n and, when hi >= 0, n <= hi.
func atoiRange(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < lo || (hi >= 0 && n > hi) {
		return 0, fmt.Errorf("value %d out of range", n)
	}
	return n, nil
}
