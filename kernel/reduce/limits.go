// Copyright 2025 go-loopnest Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reduce

import (
	"math"
	"reflect"
)

// maxOf returns the largest value of T, +Inf for floats.
func maxOf[T Number]() T {
	t := reflect.TypeFor[T]()
	var v reflect.Value
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		v = reflect.ValueOf(math.Inf(1))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v = reflect.ValueOf(^uint64(0) >> (64 - t.Bits()))
	default:
		v = reflect.ValueOf(int64(1)<<(t.Bits()-1) - 1)
	}
	return v.Convert(t).Interface().(T)
}

// minOf returns the smallest value of T, -Inf for floats.
func minOf[T Number]() T {
	t := reflect.TypeFor[T]()
	var v reflect.Value
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		v = reflect.ValueOf(math.Inf(-1))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v = reflect.ValueOf(uint64(0))
	default:
		v = reflect.ValueOf(int64(-1) << (t.Bits() - 1))
	}
	return v.Convert(t).Interface().(T)
}
