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

package arg

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/ajroetker/go-loopnest/kernel/data"
)

var (
	// ErrUnknownSegment is returned when a descriptor names a dimension the
	// context does not have.
	ErrUnknownSegment = errors.New("unknown segment id")
	// ErrUnknownParam is returned when a descriptor names a param the
	// context does not have.
	ErrUnknownParam = errors.New("unknown param id")
)

// Args is the positional argument tuple passed to a kernel body.
type Args []any

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a)
}

// Value returns argument i.
func (a Args) Value(i int) any {
	return a[i]
}

// Int returns argument i, which must be bound by Seg or OffSet.
func (a Args) Int(i int) int {
	return a[i].(int)
}

// As returns argument i converted to T. Param arguments hold the live slot,
// so T is usually a pointer type.
func As[T any](a Args, i int) T {
	return a[i].(T)
}

// Extract returns one value per descriptor, in order:
//   - OffSet(id): the current offset of dimension id,
//   - Seg(id): the segment value at that offset,
//   - Param(id): the live param slot.
//
// Extract reads d and never mutates it. The descriptors must have passed
// Validate against a context of the same shape.
func Extract(descs []Single, d *data.Data) Args {
	args := make(Args, len(descs))
	for i, desc := range descs {
		switch desc.Kind {
		case KindOffset:
			args[i] = d.Offset(desc.ID)
		case KindSeg:
			args[i] = d.Value(desc.ID)
		case KindParam:
			args[i] = d.Param(desc.ID)
		}
	}
	return args
}

// Validate reports every descriptor whose id does not resolve in d.
func Validate(descs []Single, d *data.Data) error {
	var err error
	for i, desc := range descs {
		switch desc.Kind {
		case KindSeg, KindOffset:
			if desc.ID < 0 || desc.ID >= d.NumSegments() {
				err = multierr.Append(err, errors.Wrapf(ErrUnknownSegment, "argument %d (%s): context has %d segments", i, desc, d.NumSegments()))
			}
		case KindParam:
			if desc.ID < 0 || desc.ID >= d.NumParams() {
				err = multierr.Append(err, errors.Wrapf(ErrUnknownParam, "argument %d (%s): context has %d params", i, desc, d.NumParams()))
			}
		default:
			err = multierr.Append(err, errors.Errorf("argument %d: invalid descriptor kind %d", i, desc.Kind))
		}
	}
	return err
}

// Defaults returns the descriptors used by a body that declares none: every
// segment value in id order followed by every param.
func Defaults(d *data.Data) []Single {
	segs := lo.Times(d.NumSegments(), Seg)
	params := lo.Times(d.NumParams(), Param)
	return append(segs, params...)
}
