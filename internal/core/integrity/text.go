package integrity

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/yndnr/statevault/internal/core/domain"
)

// maxDepth bounds the walk so a self-referencing value terminates.
const maxDepth = 10000

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// checkText rejects strings and map keys that are not valid UTF-8.
// encoding/json would replace the bad bytes with U+FFFD, merging distinct
// keys and giving distinct snapshots the same checksum.
func checkText(value any) error {
	return walkText(reflect.ValueOf(value), 0)
}

func walkText(v reflect.Value, depth int) error {
	if !v.IsValid() {
		return nil
	}
	if depth > maxDepth {
		return domain.ErrNonCanonical.WithDetails(fmt.Sprintf("nested deeper than %d levels", maxDepth))
	}
	if v.Kind() != reflect.Interface && v.Kind() != reflect.Pointer &&
		(v.Type().Implements(jsonMarshalerType) || v.Type().Implements(textMarshalerType)) {
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		if s := v.String(); !utf8.ValidString(s) {
			return domain.ErrNonCanonical.WithDetails(fmt.Sprintf("invalid UTF-8 in string %q", s))
		}
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return walkText(v.Elem(), depth+1)
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if k := iter.Key(); k.Kind() == reflect.String && !utf8.ValidString(k.String()) {
				return domain.ErrNonCanonical.WithDetails(fmt.Sprintf("invalid UTF-8 in key %q", k.String()))
			}
			if err := walkText(iter.Value(), depth+1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := walkText(v.Index(i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := walkText(v.Field(i), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
