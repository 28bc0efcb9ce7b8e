// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package scrypt

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"testing"

	xscrypt "golang.org/x/crypto/scrypt"
)

// Known block header (genesis-era Litecoin work) and its scrypt digest.
const (
	vectorHeader = "01000000f615f7ce3b4fc6b8f61e8f89aedb1d0852507650533a9e3b10b9bbcc30639f279fcaa86746e1ef52d3edb3c4ad8259920d509bd073605c9bf1d59983752a6b06b817bb4ea78e011d012d59d4"
	vectorDigest = "d9eb8663ffec241c2fb118adb7de97a82c803b6ff46d57667935c81001000000"
)

func TestHashRegressionVector(t *testing.T) {
	header, err := hex.DecodeString(vectorHeader)
	if err != nil {
		t.Fatal(err)
	}

	nonce := binary.LittleEndian.Uint32(header[76:80])
	got := New().Hash(header, nonce)

	if h := hex.EncodeToString(got); h != vectorDigest {
		t.Fatalf("mismatch digest got=%s want=%s", h, vectorDigest)
	}
}

func TestHashEmbeddedNonce(t *testing.T) {
	header, _ := hex.DecodeString(vectorHeader)

	got := New().HashEmbedded(header)
	if h := hex.EncodeToString(got); h != vectorDigest {
		t.Fatalf("mismatch digest got=%s want=%s", h, vectorDigest)
	}
}

// TestHashMatchesScryptKey cross-checks the hand-rolled engine against the
// generic scrypt implementation with the same parameters.
func TestHashMatchesScryptKey(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	h := New()

	for i := 0; i < 8; i++ {
		header := make([]byte, HeaderLen)
		rng.Read(header)
		nonce := rng.Uint32()
		binary.LittleEndian.PutUint32(header[76:80], nonce)

		want, err := xscrypt.Key(header, header, 1024, 1, 1, HashLen)
		if err != nil {
			t.Fatal(err)
		}

		got := h.Hash(header, nonce)
		if !bytes.Equal(got, want) {
			t.Fatalf("header %x nonce %d: got %x want %x", header, nonce, got, want)
		}
	}
}

// TestHashScratchReuse verifies that back-to-back hashes on one Hasher do
// not leak state between calls.
func TestHashScratchReuse(t *testing.T) {
	headerA, _ := hex.DecodeString(vectorHeader)
	headerB := make([]byte, HeaderLen)
	for i := range headerB {
		headerB[i] = byte(i)
	}

	h := New()
	first := append([]byte(nil), h.HashEmbedded(headerA)...)

	h.Hash(headerB, 42)

	again := h.HashEmbedded(headerA)
	if !bytes.Equal(first, again) {
		t.Fatalf("state leaked between calls: %x != %x", first, again)
	}
}

func BenchmarkHash(b *testing.B) {
	header, _ := hex.DecodeString(vectorHeader)
	h := New()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h.Hash(header, uint32(i))
	}
}
