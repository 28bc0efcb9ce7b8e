// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package utils

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestReverseWords4SelfInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 32; i++ {
		data := make([]byte, 80)
		rng.Read(data)

		header, err := ReverseWords4(data)
		if err != nil {
			t.Fatal(err)
		}

		back, err := ReverseWords4(header)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(back, data) {
			t.Fatalf("double reversal changed data: %x != %x", back, data)
		}
	}
}

func TestReverseWords4(t *testing.T) {
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	want := []byte{4, 3, 2, 1, 8, 7, 6, 5}

	got, err := ReverseWords4(in)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReverseWords4BadLength(t *testing.T) {
	if _, err := ReverseWords4(make([]byte, 7)); err == nil {
		t.Fatal("expected error for length not a multiple of 4")
	}
}

func TestNextPow2(t *testing.T) {
	tests := []struct {
		n    int
		want uint32
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{7, 8},
		{8, 8},
		{9, 16},
		{63, 64},
	}

	for _, test := range tests {
		if got := NextPow2(test.n); got != test.want {
			t.Errorf("NextPow2(%d) = %d, want %d", test.n, got, test.want)
		}
	}
}
