// Copyright 2018 The CUE Authors
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

package intern_test

import (
	"sync"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/buildtools/btd/internal/intern"
)

func TestNewIdentity(t *testing.T) {
	a := intern.New("abcdef")
	b := intern.New3("ab", "cde", "f")
	qt.Assert(t, qt.IsTrue(a.Equal(b)))
	qt.Assert(t, qt.Equals(a.String(), "abcdef"))

	c := intern.New3("ab", "", "defg!")
	qt.Assert(t, qt.IsFalse(a.Equal(c)))
}

func TestNewConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	out := make(chan intern.String, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- intern.New("shared-value")
		}()
	}
	wg.Wait()
	close(out)

	first := <-out
	for h := range out {
		qt.Assert(t, qt.IsTrue(h.Equal(first)))
	}
}

func TestZeroValue(t *testing.T) {
	var z intern.String
	qt.Assert(t, qt.IsTrue(z.IsZero()))
	qt.Assert(t, qt.Equals(z.String(), ""))
	qt.Assert(t, qt.IsTrue(z.Equal(intern.New(""))))
}
