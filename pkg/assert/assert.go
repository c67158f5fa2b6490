package assert

import (
	"fmt"
	"reflect"
)

// Nil panics if err is not nil.
func Nil(err error) {
	if err != nil {
		panic(err)
	}
}

// True panics with err if value is false.
func True(value bool, err error) {
	if !value {
		panic(err)
	}
}

// NotNil panics if object is nil, naming the missing component.
func NotNil(object interface{}, name string) {
	True(!IsNil(object), fmt.Errorf("%s must not be nil", name))
}

// IsNil reports whether object is nil, handling typed nil values.
func IsNil(object interface{}) bool {
	if object == nil {
		return true
	}
	value := reflect.ValueOf(object)
	switch value.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice, reflect.Func, reflect.Interface:
		return value.IsNil()
	}
	return false
}
