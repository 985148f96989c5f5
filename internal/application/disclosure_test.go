package application

import "testing"

func TestMask(t *testing.T) {
	identity := PharmacistIdentity{
		FirstName: "太郎",
		LastName:  "佐藤",
		Phone:     "090-1111-2222",
		Email:     "a@b.com",
	}

	t.Run("redacts identity when not disclosed", func(t *testing.T) {
		got := Mask(identity, false)

		if got.FirstName != "太◯◯" {
			t.Fatalf("expected first name 太◯◯, got %q", got.FirstName)
		}
		if got.LastName != "佐◯◯" {
			t.Fatalf("expected last name 佐◯◯, got %q", got.LastName)
		}
		if got.Phone != "***-****-****" {
			t.Fatalf("expected redacted phone, got %q", got.Phone)
		}
		if got.Email != "*****@*****.***" {
			t.Fatalf("expected redacted email, got %q", got.Email)
		}
	})

	t.Run("passes identity through when disclosed", func(t *testing.T) {
		got := Mask(identity, true)

		want := DisplayIdentity{
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
			Phone:     identity.Phone,
			Email:     identity.Email,
		}
		if got != want {
			t.Fatalf("expected identity passthrough, got %+v", got)
		}
	})

	t.Run("uses a fixed placeholder for empty names", func(t *testing.T) {
		got := Mask(PharmacistIdentity{}, false)

		if got.FirstName != maskedNamePlaceholder || got.LastName != maskedNamePlaceholder {
			t.Fatalf("expected placeholder names, got %+v", got)
		}
	})

	t.Run("handles single-character ASCII names", func(t *testing.T) {
		got := Mask(PharmacistIdentity{FirstName: "A", LastName: "B"}, false)

		if got.FirstName != "A◯◯" || got.LastName != "B◯◯" {
			t.Fatalf("unexpected masked names: %+v", got)
		}
	})
}
