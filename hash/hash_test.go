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

package hash

import (
	"bytes"
	"testing"
)

func TestValueHashDeterministic(t *testing.T) {
	a := ValueHash([]byte("hello"))
	b := ValueHash([]byte("hello"))
	if a != b {
		t.Fatalf("ValueHash not deterministic: %x != %x", a, b)
	}
}

func TestValueHashDomainSeparation(t *testing.T) {
	v := ValueHash([]byte("hello"))
	kv := KVHash([]byte("hello"), Null, nil)
	if v == kv {
		t.Fatalf("ValueHash and KVHash collided for same input bytes")
	}
}

func TestKVDigestToKVHashMatchesKVHash(t *testing.T) {
	key := []byte("alice")
	value := []byte("30")
	vh := ValueHash(value)
	want := KVHash(key, vh, nil)
	got := KVDigestToKVHash(key, vh, nil)
	if got != want {
		t.Fatalf("KVDigestToKVHash = %x, want %x", got, want)
	}
}

func TestNodeHashNullChildren(t *testing.T) {
	kvHash := KVHash([]byte("k"), ValueHash([]byte("v")), nil)
	h1 := NodeHash(kvHash, Null, Null, nil)
	h2 := NodeHash(kvHash, Null, Null, nil)
	if h1 != h2 {
		t.Fatalf("NodeHash not deterministic")
	}
	// A non-null left child must change the digest.
	other := NodeHash(kvHash, FromBytes(bytes.Repeat([]byte{1}, 32)), Null, nil)
	if h1 == other {
		t.Fatalf("NodeHash ignored left child hash")
	}
}

func TestAggregateEncodingRoundTrip(t *testing.T) {
	if got := DecodeI64(EncodeI64(-42)); got != -42 {
		t.Fatalf("i64 round trip: got %d", got)
	}
	if hi, lo := DecodeI128(EncodeI128(-1, 5)); hi != -1 || lo != 5 {
		t.Fatalf("i128 round trip: got hi=%d lo=%d", hi, lo)
	}
	if got := DecodeU64(EncodeU64(9999)); got != 9999 {
		t.Fatalf("u64 round trip: got %d", got)
	}
	count, sum := DecodeCountSum(EncodeCountSum(7, -3))
	if count != 7 || sum != -3 {
		t.Fatalf("count/sum round trip: got count=%d sum=%d", count, sum)
	}
}

func TestVarintRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 127, 128, 300, 1 << 20} {
		buf := Varint(n)
		got, sz := decodeVarintForTest(buf)
		if got != n || sz != len(buf) {
			t.Fatalf("Varint(%d) round trip failed: got %d (%d bytes), buf %d bytes", n, got, sz, len(buf))
		}
	}
}

// decodeVarintForTest is a tiny local LEB128 decoder used only to validate
// AppendVarint/Varint in tests, without depending on the binary package's
// stream-oriented reader.
func decodeVarintForTest(buf []byte) (uint64, int) {
	var result uint64
	var shift uint
	for i, b := range buf {
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
	}
	return result, len(buf)
}
