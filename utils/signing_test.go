package utils

import "testing"

func TestMaskPAN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABCDE12345", "AB******45"},
		{"ABCD", "ABCD"},
		{"ABCDE", "AB*DE"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskPAN(tt.in); got != tt.want {
			t.Errorf("MaskPAN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSignAndVerifyPayload(t *testing.T) {
	payload := []byte("<Statement><Account>SB-1</Account></Statement>")
	key := "secret-key"

	signature := SignPayload(payload, key)
	if signature == "" {
		t.Fatal("подпись пуста")
	}

	if !VerifyPayload(payload, key, signature) {
		t.Error("корректная подпись не прошла проверку")
	}
	if VerifyPayload([]byte("tampered"), key, signature) {
		t.Error("подпись подмененных данных прошла проверку")
	}
	if VerifyPayload(payload, "other-key", signature) {
		t.Error("подпись с чужим ключом прошла проверку")
	}
}

func TestAccountNumberFormat(t *testing.T) {
	alloc := NewUUIDAllocator()

	first := alloc.AccountNumber("SB")
	second := alloc.AccountNumber("SB")

	if first == second {
		t.Error("номера счетов не уникальны")
	}
	if len(first) < 3 || first[:3] != "SB-" {
		t.Errorf("неверный формат номера: %q", first)
	}
}
