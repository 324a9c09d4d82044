package format

import "testing"

func TestByteSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero omitted", 0, ""},
		{"plain bytes", 812, "812 B"},
		{"exact kilobyte", 1024, "1.0 KB"},
		{"fractional kilobytes", 1536, "1.5 KB"},
		{"attachment-sized", 5 * 1024 * 1024, "5.0 MB"},
		{"gigabytes", 3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ByteSize(tt.bytes); got != tt.want {
				t.Errorf("ByteSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
