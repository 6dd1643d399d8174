package config

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/skekre98/sundry/fsutil"
)

// Binder decodes map[string]any data into Go structs and validates the
// result.
//
// Decoding goes through mapstructure with `config` tags and weak typing, so
// the string values produced by EnvSource and CLISource convert to ints,
// bools, durations, comma-separated slices and size units. Validation uses
// `validate` tags from go-playground/validator.
type Binder struct {
	validator *validator.Validate
}

// BindError reports which stage of Bind failed: "decode" or "validate".
type BindError struct {
	Stage string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("config %s error: %v", e.Stage, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

func NewBinder() *Binder {
	return &Binder{
		validator: validator.New(),
	}
}

// Bind decodes source into target, which must be a pointer to a struct, and
// validates it. target may be partially populated when validation fails.
func (b *Binder) Bind(source map[string]any, target any) error {
	if err := b.decode(source, target); err != nil {
		return &BindError{
			Stage: "decode",
			Err:   err,
		}
	}

	if err := b.validate(target); err != nil {
		return &BindError{
			Stage: "validate",
			Err:   err,
		}
	}

	return nil
}

func (b *Binder) decode(source map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			stringToUnitHook,
		),
		TagName: "config",
	})
	if err != nil {
		return err
	}

	return decoder.Decode(source)
}

func (b *Binder) validate(target any) error {
	return b.validator.Struct(target)
}

var unitType = reflect.TypeOf(fsutil.Unit(0))

// stringToUnitHook turns "kb", "MB", ... into fsutil.Unit.
func stringToUnitHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != unitType {
		return data, nil
	}
	return fsutil.ParseUnit(data.(string))
}
