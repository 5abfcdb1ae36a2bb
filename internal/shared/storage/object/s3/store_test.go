package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "doc/v1_file.pdf", want: "doc/v1_file.pdf"},
		{name: "simple prefix", prefix: "root", key: "doc/v1_file.pdf", want: "root/doc/v1_file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "doc/v1_file.pdf", want: "root/doc/v1_file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/doc/v1_file.pdf", want: "root/doc/v1_file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "doc/v1_file.pdf", want: "root/sub/doc/v1_file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestObjectKeyStripsScheme(t *testing.T) {
	t.Parallel()

	s := &Store{prefix: "docs"}
	if got := s.objectKey("s3/abc/v2_file.pdf"); got != "docs/abc/v2_file.pdf" {
		t.Fatalf("objectKey = %q", got)
	}
}
