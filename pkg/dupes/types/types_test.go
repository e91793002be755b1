package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		// Basic byte values
		{name: "plain bytes", input: "1024", want: 1024, wantErr: false},
		{name: "zero bytes", input: "0", want: 0, wantErr: false},
		{name: "bytes with B suffix", input: "512B", want: 512, wantErr: false},
		{name: "bytes with lowercase b", input: "512b", want: 512, wantErr: false},

		// Kilobytes
		{name: "kilobytes uppercase", input: "100K", want: 100 * 1024, wantErr: false},
		{name: "kilobytes lowercase", input: "100k", want: 100 * 1024, wantErr: false},
		{name: "kilobytes with B", input: "100KB", want: 100 * 1024, wantErr: false},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * 1024, wantErr: false},

		// Megabytes
		{name: "megabytes uppercase", input: "50M", want: 50 * 1024 * 1024, wantErr: false},
		{name: "megabytes with iB", input: "50MiB", want: 50 * 1024 * 1024, wantErr: false},

		// Gigabytes and terabytes
		{name: "gigabytes", input: "2G", want: 2 * 1024 * 1024 * 1024, wantErr: false},
		{name: "terabytes", input: "1T", want: 1024 * 1024 * 1024 * 1024, wantErr: false},

		// Whitespace handling
		{name: "leading whitespace", input: "  100M", want: 100 * 1024 * 1024, wantErr: false},
		{name: "trailing whitespace", input: "100M  ", want: 100 * 1024 * 1024, wantErr: false},

		// Edge cases
		{name: "decimal values truncated", input: "1.5G", want: 1610612736, wantErr: false},

		// Error cases
		{name: "empty string", input: "", wantErr: true},
		{name: "only whitespace", input: "   ", wantErr: true},
		{name: "invalid suffix", input: "100X", wantErr: true},
		{name: "negative value", input: "-100M", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
		{name: "suffix only", input: "M", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSizeNegativeSentinel(t *testing.T) {
	_, err := ParseSize("-1G")
	if !errors.Is(err, ErrNegativeSize) {
		t.Errorf("ParseSize(-1G) error = %v, want ErrNegativeSize", err)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 500, want: "500 B"},
		{name: "kilobytes", bytes: 1024, want: "1.0 KiB"},
		{name: "megabytes", bytes: 1024 * 1024, want: "1.0 MiB"},
		{name: "gigabytes", bytes: 1024 * 1024 * 1024, want: "1.0 GiB"},
		{name: "mixed size", bytes: 1536 * 1024, want: "1.5 MiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSize(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Algorithm
		wantErr bool
	}{
		{name: "blake3", input: "blake3", want: AlgoBLAKE3},
		{name: "uppercase", input: "BLAKE3", want: AlgoBLAKE3},
		{name: "sha256", input: "sha256", want: AlgoSHA256},
		{name: "sha256 dashed", input: "SHA-256", want: AlgoSHA256},
		{name: "sha1", input: "sha1", want: AlgoSHA1},
		{name: "md5", input: "md5", want: AlgoMD5},
		{name: "xxh64", input: "xxh64", want: AlgoXXH64},
		{name: "xxhash alias", input: "xxhash", want: AlgoXXH64},
		{name: "whitespace", input: " blake3 ", want: AlgoBLAKE3},
		{name: "unknown", input: "crc32", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAlgorithm(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownAlgorithm) {
					t.Errorf("ParseAlgorithm(%q) error = %v, want ErrUnknownAlgorithm", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFingerprintString(t *testing.T) {
	fp := Fingerprint{0xde, 0xad, 0xbe, 0xef}
	if got := fp.String(); got != "deadbeef" {
		t.Errorf("Fingerprint.String() = %q, want %q", got, "deadbeef")
	}
	if got := fp.Short(); got != "deadbeef" {
		t.Errorf("Fingerprint.Short() = %q, want %q", got, "deadbeef")
	}

	long := Fingerprint{1, 2, 3, 4, 5, 6, 7, 8}
	if got := long.Short(); len(got) != 12 {
		t.Errorf("Fingerprint.Short() length = %d, want 12", len(got))
	}
}

func TestFingerprintJSON(t *testing.T) {
	fp := Fingerprint{0xde, 0xad, 0xbe, 0xef}

	data, err := json.Marshal(fp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"deadbeef"` {
		t.Errorf("Marshal = %s, want %q", data, `"deadbeef"`)
	}

	var back Fingerprint
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.String() != fp.String() {
		t.Errorf("round trip = %s, want %s", back, fp)
	}

	if err := json.Unmarshal([]byte(`"not hex"`), &back); err == nil {
		t.Error("expected error for non-hex input")
	}
}

func TestScanProgressFraction(t *testing.T) {
	tests := []struct {
		name string
		p    ScanProgress
		want float64
	}{
		{name: "start", p: ScanProgress{Phase: PhaseEnumerate}, want: 0},
		{name: "enumerate half", p: ScanProgress{Phase: PhaseEnumerate, PhaseDone: 50, PhaseTotal: 100}, want: 0.05},
		{name: "quick start", p: ScanProgress{Phase: PhaseQuick}, want: 0.10},
		{name: "quick half", p: ScanProgress{Phase: PhaseQuick, PhaseDone: 5, PhaseTotal: 10}, want: 0.25},
		{name: "full start", p: ScanProgress{Phase: PhaseFull}, want: 0.40},
		{name: "full half", p: ScanProgress{Phase: PhaseFull, PhaseDone: 50, PhaseTotal: 100}, want: 0.70},
		{name: "done", p: ScanProgress{Phase: PhaseDone}, want: 1.0},
		{name: "overshoot clamped", p: ScanProgress{Phase: PhaseFull, PhaseDone: 200, PhaseTotal: 100}, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.Fraction()
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Fraction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhaseWeightsSumToOne(t *testing.T) {
	var sum float64
	for p := PhaseEnumerate; p < PhaseDone; p++ {
		sum += p.Weight()
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("phase weights sum = %v, want 1.0", sum)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase ScanPhase
		want  string
	}{
		{PhaseEnumerate, "enumerating"},
		{PhaseQuick, "quick hash"},
		{PhaseFull, "full hash"},
		{PhaseDone, "done"},
		{ScanPhase(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("ScanPhase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
