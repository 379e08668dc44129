package hashvault

import (
	"errors"
	"testing"

	hverrors "github.com/tamirms/hashvault/errors"
)

func TestPutNonceBigEndian(t *testing.T) {
	tests := []struct {
		n    uint64
		want [NonceSize]byte
	}{
		{0, [NonceSize]byte{}},
		{1, [NonceSize]byte{0, 0, 0, 0, 0, 1}},
		{0x0102030405, [NonceSize]byte{0, 1, 2, 3, 4, 5}},
		{MaxNonce - 1, [NonceSize]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		var buf [NonceSize]byte
		if err := PutNonce(buf[:], tt.n); err != nil {
			t.Fatalf("PutNonce(%d): %v", tt.n, err)
		}
		if buf != tt.want {
			t.Errorf("PutNonce(%d) = %x, want %x", tt.n, buf, tt.want)
		}
		if got := decodeNonce(buf[:]); got != tt.n {
			t.Errorf("decodeNonce(%x) = %d, want %d", buf, got, tt.n)
		}
	}
}

func TestPutNonceOverflow(t *testing.T) {
	for _, n := range []uint64{MaxNonce, MaxNonce + 1, 1 << 63} {
		buf := [NonceSize]byte{9, 9, 9, 9, 9, 9}
		err := PutNonce(buf[:], n)
		if !errors.Is(err, hverrors.ErrNonceOverflow) {
			t.Errorf("PutNonce(%d) error = %v, want ErrNonceOverflow", n, err)
		}
		if !errors.Is(err, hverrors.ErrRange) {
			t.Errorf("PutNonce(%d) error should wrap ErrRange", n)
		}
		if buf != [NonceSize]byte{9, 9, 9, 9, 9, 9} {
			t.Errorf("PutNonce(%d) modified dst on overflow: %x", n, buf)
		}
	}
}

func TestRecordAccessors(t *testing.T) {
	var rec Record
	for i := range HashPrefixSize {
		rec[i] = byte(0xa0 + i)
	}
	if err := PutNonce(rec[HashPrefixSize:], 0xabcdef); err != nil {
		t.Fatal(err)
	}

	prefix := rec.HashPrefix()
	for i := range HashPrefixSize {
		if prefix[i] != byte(0xa0+i) {
			t.Fatalf("HashPrefix()[%d] = %#x", i, prefix[i])
		}
	}
	if got := rec.Nonce(); got != 0xabcdef {
		t.Errorf("Nonce() = %#x, want 0xabcdef", got)
	}
	if nb := rec.NonceBytes(); nb != [NonceSize]byte{0, 0, 0, 0xab, 0xcd, 0xef} {
		t.Errorf("NonceBytes() = %x", nb)
	}
	if got, want := rec.String(), "a0a1a2a3a4a5a6a7a8a9:000000abcdef"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	// Accessors return copies.
	prefix[0] = 0
	if rec[0] != 0xa0 {
		t.Error("HashPrefix returned an alias of the record")
	}
}
