package main

import "testing"

func TestIsWeakSecret(t *testing.T) {
	cases := map[string]bool{
		"short":                                        true,
		"change-me-in-production-0123456789abcdef":     true,
		"9f2c4e1a7b3d5f6e8a0c2e4b6d8f1a3c5e7b9d0f2a4c": false,
	}
	for secret, weak := range cases {
		if got := isWeakSecret(secret); got != weak {
			t.Fatalf("isWeakSecret(%q) = %v, want %v", secret, got, weak)
		}
	}
}
