package fmtconv

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"
)

// SliceBytes returns the memory of a numeric slice such as []int16 or []float32 as bytes, without copying.
// The result aliases data and is only valid while data is reachable. An empty slice returns nil.
func SliceBytes(data any) ([]byte, error) {
	if data == nil {
		return nil, errors.New("data cannot be nil")
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a slice, got %T", data)
	}

	switch rv.Type().Elem().Kind() {
	case reflect.Int8, reflect.Uint8,
		reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32,
		reflect.Float32, reflect.Float64:
	default:
		return nil, fmt.Errorf("unsupported slice element type: %s", rv.Type().Elem().Kind())
	}

	if rv.Len() == 0 {
		return nil, nil
	}

	size := rv.Len() * int(rv.Type().Elem().Size())

	return unsafe.Slice((*byte)(rv.UnsafePointer()), size), nil
}

// Bytes wraps the memory of samples as bytes, without copying.
func Bytes[T int8 | uint8 | int16 | uint16 | int32 | uint32 | float32 | float64](samples []T) []byte {
	if len(samples) == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(samples))), len(samples)*int(unsafe.Sizeof(samples[0])))
}
