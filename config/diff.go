package config

import "reflect"

func diffEvent(old, new any) Event {
	evt := Event{OldConfig: old, NewConfig: new}
	if old == nil || new == nil {
		return evt
	}

	evt.ChangedKeys = diffValues("", reflect.ValueOf(old), reflect.ValueOf(new), nil)
	return evt
}

// diffValues descends into nested structs and reports the dotted path of
// every leaf field that differs.
func diffValues(prefix string, oldVal, newVal reflect.Value, out []string) []string {
	for oldVal.Kind() == reflect.Ptr && newVal.Kind() == reflect.Ptr {
		if oldVal.IsNil() || newVal.IsNil() {
			break
		}
		oldVal, newVal = oldVal.Elem(), newVal.Elem()
	}

	if oldVal.Kind() != reflect.Struct || newVal.Kind() != reflect.Struct || oldVal.Type() != newVal.Type() {
		if !reflect.DeepEqual(valueOf(oldVal), valueOf(newVal)) && prefix != "" {
			out = append(out, prefix)
		}
		return out
	}

	t := oldVal.Type()
	for i := 0; i < oldVal.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if prefix != "" {
			name = prefix + "." + name
		}
		out = diffValues(name, oldVal.Field(i), newVal.Field(i), out)
	}
	return out
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}
