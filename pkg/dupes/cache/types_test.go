package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestEntryEncodeDecode(t *testing.T) {
	entry := &Entry{
		Size:         4096,
		MtimeNS:      time.Now().UnixNano(),
		Quick:        0xDEADBEEF,
		HasQuick:     true,
		Full:         []byte{0x01, 0x02, 0x03, 0x04},
		Algo:         "blake3",
		LastAccessNS: time.Now().UnixNano(),
		Hits:         7,
	}

	data, err := entry.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var got Entry
	if err := got.Decode(data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.Size != entry.Size {
		t.Errorf("Size = %d, want %d", got.Size, entry.Size)
	}
	if got.MtimeNS != entry.MtimeNS {
		t.Errorf("MtimeNS = %d, want %d", got.MtimeNS, entry.MtimeNS)
	}
	if got.Quick != entry.Quick || !got.HasQuick {
		t.Errorf("Quick = %x (has=%v), want %x (has=true)", got.Quick, got.HasQuick, entry.Quick)
	}
	if !bytes.Equal(got.Full, entry.Full) {
		t.Errorf("Full = %x, want %x", got.Full, entry.Full)
	}
	if got.Algo != entry.Algo {
		t.Errorf("Algo = %q, want %q", got.Algo, entry.Algo)
	}
	if got.Hits != entry.Hits {
		t.Errorf("Hits = %d, want %d", got.Hits, entry.Hits)
	}
}

func TestEntryDecodeGarbage(t *testing.T) {
	var entry Entry
	if err := entry.Decode([]byte("not gob data")); err == nil {
		t.Error("Decode(garbage) error = nil, want error")
	}
}

func TestEntryValid(t *testing.T) {
	entry := &Entry{Size: 100, MtimeNS: 5000}

	tests := []struct {
		name    string
		size    int64
		mtimeNS int64
		want    bool
	}{
		{"exact match", 100, 5000, true},
		{"size changed", 101, 5000, false},
		{"mtime changed", 100, 5001, false},
		{"both changed", 200, 9000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.Valid(tt.size, tt.mtimeNS); got != tt.want {
				t.Errorf("Valid(%d, %d) = %v, want %v", tt.size, tt.mtimeNS, got, tt.want)
			}
		})
	}
}

func TestMakeKeyParseKey(t *testing.T) {
	path := "/home/user/photos/img.jpg"
	key := MakeKey(path)

	if !bytes.HasPrefix(key, keyPrefix) {
		t.Errorf("MakeKey(%q) missing version prefix", path)
	}
	if got := ParseKey(key); got != path {
		t.Errorf("ParseKey(MakeKey(%q)) = %q", path, got)
	}
}

func TestMakeKeyNormalizes(t *testing.T) {
	// Different spellings of the same absolute path must map to one key.
	spellings := []string{
		"/home/user/photos/img.jpg",
		"/home/user//photos/img.jpg",
		"/home/user/./photos/img.jpg",
		"/home/user/videos/../photos/img.jpg",
	}

	want := MakeKey(spellings[0])
	for _, p := range spellings[1:] {
		if got := MakeKey(p); !bytes.Equal(got, want) {
			t.Errorf("MakeKey(%q) = %q, want %q", p, got, want)
		}
	}
}
