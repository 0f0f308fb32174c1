package limits

import (
	"testing"

	"github.com/jamesainslie/digest/pkg/digest/types"
)

func TestNewClampsToDefaults(t *testing.T) {
	tests := []struct {
		name      string
		depth     int
		files     int
		bytes     int64
		wantDepth int
		wantFiles int
		wantBytes int64
	}{
		{name: "zero values", wantDepth: 20, wantFiles: 10_000, wantBytes: 500 * types.MiB},
		{name: "lowered", depth: 3, files: 5, bytes: 1024, wantDepth: 3, wantFiles: 5, wantBytes: 1024},
		{name: "raised is ignored", depth: 99, files: 1_000_000, bytes: 10 * types.GiB, wantDepth: 20, wantFiles: 10_000, wantBytes: 500 * types.MiB},
		{name: "negative", depth: -1, files: -1, bytes: -1, wantDepth: 20, wantFiles: 10_000, wantBytes: 500 * types.MiB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.depth, tt.files, tt.bytes)
			if l.MaxDepth() != tt.wantDepth {
				t.Errorf("MaxDepth = %d, want %d", l.MaxDepth(), tt.wantDepth)
			}
			if l.MaxFiles() != tt.wantFiles {
				t.Errorf("MaxFiles = %d, want %d", l.MaxFiles(), tt.wantFiles)
			}
			if l.MaxTotalBytes() != tt.wantBytes {
				t.Errorf("MaxTotalBytes = %d, want %d", l.MaxTotalBytes(), tt.wantBytes)
			}
		})
	}
}

func TestCheckOrder(t *testing.T) {
	l := New(2, 1, 10)
	if v := l.Check(3); v != DepthExceeded {
		t.Errorf("Check(3) = %v, want DepthExceeded", v)
	}
	if v := l.Check(2); v != OK {
		t.Errorf("Check(2) = %v, want OK", v)
	}

	if v := l.Admit(10); v != OK {
		t.Fatalf("Admit(10) = %v, want OK", v)
	}
	// Both budgets are spent; the file check comes first.
	if v := l.Check(0); v != FilesExceeded {
		t.Errorf("Check(0) = %v, want FilesExceeded", v)
	}
	// Depth is still checked before anything else.
	if v := l.Check(5); v != DepthExceeded {
		t.Errorf("Check(5) = %v, want DepthExceeded", v)
	}
}

func TestCheckBytes(t *testing.T) {
	l := New(5, 100, 10)
	if v := l.Admit(10); v != OK {
		t.Fatalf("Admit(10) = %v, want OK", v)
	}
	if v := l.Check(0); v != BytesExceeded {
		t.Errorf("Check(0) = %v, want BytesExceeded", v)
	}
}

func TestAdmitNeverOvershoots(t *testing.T) {
	l := New(5, 100, 10)

	if v := l.Admit(6); v != OK {
		t.Fatalf("Admit(6) = %v, want OK", v)
	}
	if v := l.Admit(5); v != BytesExceeded {
		t.Errorf("Admit(5) = %v, want BytesExceeded", v)
	}
	if l.Files() != 1 || l.Bytes() != 6 {
		t.Errorf("refused file was counted: files=%d bytes=%d", l.Files(), l.Bytes())
	}
	// A smaller file still fits.
	if v := l.Admit(4); v != OK {
		t.Errorf("Admit(4) = %v, want OK", v)
	}
	if l.Bytes() != 10 {
		t.Errorf("Bytes = %d, want 10", l.Bytes())
	}
}

func TestAdmitFileCeiling(t *testing.T) {
	l := New(5, 2, 1000)
	for i := 0; i < 2; i++ {
		if v := l.Admit(1); v != OK {
			t.Fatalf("Admit #%d = %v, want OK", i, v)
		}
	}
	if v := l.Admit(1); v != FilesExceeded {
		t.Errorf("third Admit = %v, want FilesExceeded", v)
	}
	if l.Files() != 2 {
		t.Errorf("Files = %d, want 2", l.Files())
	}
}

func TestVerdictString(t *testing.T) {
	if DepthExceeded.String() != "max_depth" || FilesExceeded.String() != "max_files" || BytesExceeded.String() != "max_total_size" {
		t.Error("unexpected verdict names")
	}
	l := New(0, 0, 0)
	if l.Max(FilesExceeded) != DefaultMaxFiles {
		t.Errorf("Max(FilesExceeded) = %d", l.Max(FilesExceeded))
	}
}
