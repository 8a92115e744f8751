package security

import "testing"

func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "プレーンテキストはそのまま", input: "buy milk", want: "buy milk"},
		{name: "空文字列は空文字列", input: "", want: ""},
		{name: "scriptタグを除去する", input: `<script>alert("x")</script>hello`, want: `alert("x")hello`},
		{name: "imgタグを除去する", input: `<img src=x onerror=alert(1)>note`, want: "note"},
		{name: "装飾タグも除去してテキストは残す", input: "<b>urgent</b> task", want: "urgent task"},
		{name: "記号はエスケープせず保持する", input: "milk & eggs", want: "milk & eggs"},
		{name: "前後の空白を除去する", input: "  spaced  ", want: "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()
	input := `<p>hello <script>x</script>world</p>`

	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("sanitize is not idempotent: %q != %q", once, twice)
	}
}
