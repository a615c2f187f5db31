// Copyright 2016 Google Inc. All Rights Reserved.
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

package element

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dashpay/grovedb-go/merk"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	digest := make([]byte, 32)
	for i := range digest {
		digest[i] = byte(i)
	}

	tests := []struct {
		name string
		e    Element
	}{
		{"item", NewItem([]byte("hello"), nil)},
		{"item with flags", NewItem([]byte("hello"), Flags("f"))},
		{"reference", NewReference([]byte("\x01a\x01b"), nil)},
		{"tree uncommitted", NewTree(merk.TreeTypeNormal, nil, nil)},
		{"tree committed", NewTree(merk.TreeTypeNormal, digest, nil)},
		{"sum tree", NewTree(merk.TreeTypeSum, digest, nil)},
		{"sum item", NewSumItem(-42, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.e.Encode()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tt.e, decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTreeElementValueChangesWithRootDigest(t *testing.T) {
	before, err := NewTree(merk.TreeTypeNormal, nil, nil).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	digest := make([]byte, 32)
	digest[0] = 1
	after, err := NewTree(merk.TreeTypeNormal, digest, nil).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(before) == string(after) {
		t.Fatalf("Tree element encoding did not change when root digest changed")
	}
}

func TestDecodeTreeRejectsNonTreeElement(t *testing.T) {
	encoded, err := NewItem([]byte("x"), nil).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, _, err := DecodeTree(encoded); err == nil {
		t.Fatalf("DecodeTree on an Item element: want error, got nil")
	}
}

func TestSumTreeAggregateRoundTrips(t *testing.T) {
	e := Element{Kind: KindSumTree, TreeType: merk.TreeTypeSum, Sum: 12345}
	encoded, err := e.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Sum != 12345 {
		t.Fatalf("Sum = %d, want 12345", decoded.Sum)
	}
}
