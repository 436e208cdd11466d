package portability

import (
	"math"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

type fieldKind int

const (
	intField fieldKind = iota
	floatField
	boolField
	textField
	listField
	objectField
)

var plantFields = map[string]fieldKind{
	"id":              textField,
	"name":            textField,
	"family":          textField,
	"genus":           textField,
	"species":         textField,
	"cultivar":        textField,
	"lightLevel":      textField,
	"potSize":         textField,
	"potSizeIn":       floatField,
	"soilType":        textField,
	"material":        textField,
	"hasDrain":        boolField,
	"inout":           textField,
	"exposure":        textField,
	"roomLabel":       textField,
	"notes":           textField,
	"intervalDays":    intField,
	"lastWatered":     textField,
	"tuneIntervalPct": floatField,
	"tuneVolumePct":   floatField,
	"weatherOverride": objectField,
	"nextDue":         textField,
	"tasks":           listField,
	"history":         listField,
	"observations":    listField,
	"coverFileId":     textField,
	"createdAt":       textField,
	"updatedAt":       textField,
}

var taskFields = map[string]fieldKind{
	"type":      textField,
	"everyDays": intField,
	"lastDone":  textField,
	"nextDue":   textField,
}

var overrideFields = map[string]fieldKind{
	"tempC":     floatField,
	"rh":        floatField,
	"fetchedAt": textField,
}

// coercePlant rewrites a plant object so that it decodes into domain.Plant.
// Numeric strings such as "7" are parsed; any other mistyped field is
// dropped and left for Normalize to default.
func coercePlant(obj []byte) []byte {
	obj = coerce(obj, plantFields)

	if raw, typ, _, err := jsonparser.Get(obj, "weatherOverride"); err == nil && typ == jsonparser.Object {
		fixed := coerce(clone(raw), overrideFields)
		if out, err := jsonparser.Set(obj, fixed, "weatherOverride"); err == nil {
			obj = out
		}
	}

	if raw, typ, _, err := jsonparser.Get(obj, "tasks"); err == nil && typ == jsonparser.Array {
		var tasks []string
		_, _ = jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
			if dt != jsonparser.Object {
				return
			}
			tasks = append(tasks, string(coerce(clone(value), taskFields)))
		})
		if out, err := jsonparser.Set(obj, []byte("["+strings.Join(tasks, ",")+"]"), "tasks"); err == nil {
			obj = out
		}
	}
	return obj
}

// coerce fixes the top-level fields of obj listed in fields. obj may be
// modified in place.
func coerce(obj []byte, fields map[string]fieldKind) []byte {
	for key, kind := range fields {
		val, typ, _, err := jsonparser.Get(obj, key)
		if err != nil || typ == jsonparser.Null {
			continue
		}
		fixed, ok := coerceValue(val, typ, kind)
		if ok && fixed == nil {
			continue
		}
		if ok {
			if out, err := jsonparser.Set(obj, fixed, key); err == nil {
				obj = out
				continue
			}
		}
		obj = jsonparser.Delete(obj, key)
	}
	return obj
}

// coerceValue returns (nil, true) when val already has the right type and a
// replacement when it can be converted.
func coerceValue(val []byte, typ jsonparser.ValueType, kind fieldKind) ([]byte, bool) {
	switch kind {
	case intField:
		f, ok := number(val, typ)
		if !ok || math.Abs(f) > math.MaxInt32 {
			return nil, false
		}
		if typ == jsonparser.Number && f == math.Trunc(f) && !strings.ContainsAny(string(val), ".eE") {
			return nil, true
		}
		return []byte(strconv.FormatInt(int64(math.Round(f)), 10)), true
	case floatField:
		if typ == jsonparser.Number {
			return nil, true
		}
		f, ok := number(val, typ)
		if !ok {
			return nil, false
		}
		return []byte(strconv.FormatFloat(f, 'g', -1, 64)), true
	case boolField:
		switch typ {
		case jsonparser.Boolean:
			return nil, true
		case jsonparser.String:
			b, err := strconv.ParseBool(strings.TrimSpace(string(val)))
			if err != nil {
				return nil, false
			}
			return []byte(strconv.FormatBool(b)), true
		}
	case textField:
		switch typ {
		case jsonparser.String:
			return nil, true
		case jsonparser.Number, jsonparser.Boolean:
			return []byte(strconv.Quote(string(val))), true
		}
	case listField:
		return nil, typ == jsonparser.Array
	case objectField:
		return nil, typ == jsonparser.Object
	}
	return nil, false
}

func number(val []byte, typ jsonparser.ValueType) (float64, bool) {
	if typ != jsonparser.Number && typ != jsonparser.String {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
