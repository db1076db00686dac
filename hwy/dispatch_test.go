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

package hwy

import "testing"

func TestDispatch(t *testing.T) {
	level := CurrentLevel()
	if level.String() == "unknown" {
		t.Errorf("CurrentLevel() = %d has no name", level)
	}
	if CurrentName() != level.String() {
		t.Errorf("CurrentName() = %q, want %q", CurrentName(), level.String())
	}
	if CurrentWidth() != level.Width() {
		t.Errorf("CurrentWidth() = %d, want %d", CurrentWidth(), level.Width())
	}
}

func TestMaxLanes(t *testing.T) {
	w := CurrentWidth()
	if got := MaxLanes[float32](); got != w/4 {
		t.Errorf("MaxLanes[float32]() = %d, want %d", got, w/4)
	}
	if got := MaxLanes[float64](); got != w/8 {
		t.Errorf("MaxLanes[float64]() = %d, want %d", got, w/8)
	}
	if got := MaxLanes[int8](); got != w {
		t.Errorf("MaxLanes[int8]() = %d, want %d", got, w)
	}
}

func TestNoSimdEnv(t *testing.T) {
	saved := currentLevel
	savedFMA := hasFMA
	t.Cleanup(func() { setLevel(saved, savedFMA) })

	t.Setenv("HWY_NO_SIMD", "1")
	if !NoSimdEnv() {
		t.Fatal("NoSimdEnv() = false with HWY_NO_SIMD=1")
	}
	detect()
	if CurrentLevel() != DispatchScalar {
		t.Errorf("CurrentLevel() = %v, want scalar", CurrentLevel())
	}
	if HasFMA() {
		t.Error("HasFMA() = true in scalar mode")
	}

	t.Setenv("HWY_NO_SIMD", "false")
	if NoSimdEnv() {
		t.Error("NoSimdEnv() = true with HWY_NO_SIMD=false")
	}
}
