package helper

import "testing"

func TestNamespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report"},
		{"../../etc/passwd.pdf", "passwd"},
		{`C:\docs\My Notes.pdf`, "My_Notes"},
		{"archive.tar.pdf", "archive.tar"},
		{".pdf", "document"},
		{"", "document"},
	}
	for _, tt := range tests {
		if got := Namespace(tt.in); got != tt.want {
			t.Errorf("Namespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateUUID()
	if a == b || len(a) != 36 {
		t.Errorf("unexpected ids %q %q", a, b)
	}
}
