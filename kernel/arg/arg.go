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

// Package arg maps the arguments a kernel body declares onto values of the
// execution context.
//
// A body declares its positional arguments with descriptors: Seg(id) is the
// segment value at the current offset of dimension id, OffSet(id) is the raw
// offset and Param(id) is the live param slot. SegList, OffSetList and
// ParamList are shorthands that expand to one descriptor per id.
package arg

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Kind identifies the context slot a descriptor binds to.
type Kind int

const (
	// KindSeg binds to the segment value at the current offset.
	KindSeg Kind = iota
	// KindOffset binds to the current offset.
	KindOffset
	// KindParam binds to a param slot.
	KindParam
)

func (k Kind) String() string {
	switch k {
	case KindSeg:
		return "Seg"
	case KindOffset:
		return "OffSet"
	case KindParam:
		return "Param"
	default:
		return "unknown"
	}
}

// Descriptor is a single descriptor or a list of them.
type Descriptor interface {
	// Expand returns the single descriptors in declaration order.
	Expand() []Single
	String() string
}

// Single binds one positional argument to one context slot.
type Single struct {
	Kind Kind
	ID   int
}

// Seg binds to the segment value at the current offset of dimension id.
func Seg(id int) Single { return Single{Kind: KindSeg, ID: id} }

// OffSet binds to the current offset of dimension id.
func OffSet(id int) Single { return Single{Kind: KindOffset, ID: id} }

// Param binds to param slot id.
func Param(id int) Single { return Single{Kind: KindParam, ID: id} }

// Expand returns s itself.
func (s Single) Expand() []Single { return []Single{s} }

func (s Single) String() string {
	return fmt.Sprintf("%s<%d>", s.Kind, s.ID)
}

// List binds consecutive positional arguments to several slots of one kind.
type List struct {
	Kind Kind
	IDs  []int
}

// SegList is Seg(ids[0]), Seg(ids[1]), ...
func SegList(ids ...int) List { return List{Kind: KindSeg, IDs: ids} }

// OffSetList is OffSet(ids[0]), OffSet(ids[1]), ...
func OffSetList(ids ...int) List { return List{Kind: KindOffset, IDs: ids} }

// ParamList is Param(ids[0]), Param(ids[1]), ...
func ParamList(ids ...int) List { return List{Kind: KindParam, IDs: ids} }

// Expand returns one Single per id, head first.
func (l List) Expand() []Single {
	if len(l.IDs) == 0 {
		return nil
	}
	head := Single{Kind: l.Kind, ID: l.IDs[0]}
	return append([]Single{head}, List{Kind: l.Kind, IDs: l.IDs[1:]}.Expand()...)
}

func (l List) String() string {
	ids := lo.Map(l.IDs, func(id, _ int) string { return fmt.Sprint(id) })
	return fmt.Sprintf("%sList<%s>", l.Kind, strings.Join(ids, ","))
}

// Normalize flattens items into single descriptors, preserving declaration
// order left to right and, within a list, head to tail. An empty input
// normalizes to an empty sequence.
func Normalize(items ...Descriptor) []Single {
	return lo.FlatMap(items, func(item Descriptor, _ int) []Single {
		return item.Expand()
	})
}

// Format returns the descriptors as a comma separated list.
func Format(descs []Single) string {
	return strings.Join(lo.Map(descs, func(s Single, _ int) string { return s.String() }), ", ")
}
