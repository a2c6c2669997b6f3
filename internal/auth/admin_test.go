package auth

import "testing"

// TestAuthorizer_Authorize проверяет сравнение ключа на точное равенство.
func TestAuthorizer_Authorize(t *testing.T) {
	a := New("secret")

	cases := []struct {
		candidate string
		want      bool
	}{
		{"secret", true},
		{"wrong", false},
		{"Secret", false},
		{"secret ", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := a.Authorize(tc.candidate); got != tc.want {
			t.Errorf("Authorize(%q) = %v, ожидался %v", tc.candidate, got, tc.want)
		}
	}
}

// TestAuthorizer_EmptyKey проверяет, что при пустом настроенном ключе
// не авторизуется даже пустой кандидат.
func TestAuthorizer_EmptyKey(t *testing.T) {
	a := New("")

	if a.Authorize("") {
		t.Error("Authorize(\"\") = true при пустом ключе, ожидался false")
	}
}
