// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package getwork

import (
	"encoding/hex"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/minerorg/gwminer/hash/scrypt"
	"github.com/minerorg/gwminer/utils"
)

const (
	vectorHeader = "01000000f615f7ce3b4fc6b8f61e8f89aedb1d0852507650533a9e3b10b9bbcc30639f279fcaa86746e1ef52d3edb3c4ad8259920d509bd073605c9bf1d59983752a6b06b817bb4ea78e011d012d59d4"
	vectorDigest = "d9eb8663ffec241c2fb118adb7de97a82c803b6ff46d57667935c81001000000"
)

// bigIntLE interprets b as a little-endian unsigned integer.
func bigIntLE(b []byte) *big.Int {
	rev := make([]byte, len(b))
	for i, v := range b {
		rev[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(rev)
}

func TestLessOrEqualLEMatchesBigInt(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 2000; i++ {
		hash := make([]byte, 32)
		target := make([]byte, 32)
		rng.Read(hash)
		rng.Read(target)

		// Mix in near-equal fixtures, where only the low bytes differ.
		if i%4 == 0 {
			copy(target, hash)
			target[rng.Intn(4)] = byte(rng.Intn(256))
		}

		want := bigIntLE(hash).Cmp(bigIntLE(target)) <= 0
		if got := lessOrEqualLE(hash, target); got != want {
			t.Fatalf("hash=%x target=%x: got %v want %v", hash, target, got, want)
		}
	}
}

func TestLessOrEqualLEEquality(t *testing.T) {
	b := make([]byte, 32)
	for i := range b {
		b[i] = 0xab
	}
	if !lessOrEqualLE(b, b) {
		t.Fatal("equal values must meet the target")
	}
}

func vectorWork(t *testing.T) (*Work, uint32) {
	t.Helper()

	header, err := hex.DecodeString(vectorHeader)
	if err != nil {
		t.Fatal(err)
	}
	data, err := utils.ReverseWords4(header)
	if err != nil {
		t.Fatal(err)
	}
	nonce := uint32(header[76]) | uint32(header[77])<<8 | uint32(header[78])<<16 | uint32(header[79])<<24

	return &Work{Data: data, Header: header, FetchedAt: time.Now()}, nonce
}

func TestMeetsTarget(t *testing.T) {
	w, nonce := vectorWork(t)
	digest, _ := hex.DecodeString(vectorDigest)

	h := scrypt.New()

	// Target exactly equal to the hash is a hit.
	w.Target = append([]byte(nil), digest...)
	if !w.MeetsTarget(h, nonce) {
		t.Fatal("hash equal to target must meet it")
	}

	// Nudge the most significant nonzero byte down: hash > target.
	below := append([]byte(nil), digest...)
	for i := len(below) - 1; i >= 0; i-- {
		if below[i] > 0 {
			below[i]--
			break
		}
	}
	w.Target = below
	if w.MeetsTarget(h, nonce) {
		t.Fatal("hash above target must not meet it")
	}

	// And up: hash < target.
	above := append([]byte(nil), digest...)
	for i := len(above) - 1; i >= 0; i-- {
		if above[i] < 0xff {
			above[i]++
			break
		}
	}
	w.Target = above
	if !w.MeetsTarget(h, nonce) {
		t.Fatal("hash below target must meet it")
	}
}

func TestWorkAge(t *testing.T) {
	w := &Work{FetchedAt: time.Now()}
	if age := w.Age(); age < 0 || age > time.Second {
		t.Fatalf("freshly fetched work has age %v", age)
	}

	w.FetchedAt = time.Now().Add(-61 * time.Second)
	if w.Age() < 60*time.Second {
		t.Fatalf("expected stale work, age %v", w.Age())
	}
}
