package enums

import "testing"

func TestParseShoeType(t *testing.T) {
	got, err := ParseShoeType("F")
	if err != nil || got != ShoeTypeWomen {
		t.Fatalf("expected F, got %q err=%v", got, err)
	}
	if _, err := ParseShoeType("X"); err == nil {
		t.Fatal("expected error for unknown shoe type")
	}
	if ShoeType("m").IsValid() {
		t.Fatal("shoe types are case sensitive")
	}
}

func TestParseAuthProvider(t *testing.T) {
	got, err := ParseAuthProvider(" Google ")
	if err != nil || got != AuthProviderGoogle {
		t.Fatalf("expected google, got %q err=%v", got, err)
	}
	if !got.IsOAuth() {
		t.Fatal("google should be an oauth provider")
	}
	if AuthProviderLocal.IsOAuth() {
		t.Fatal("local is not an oauth provider")
	}
	if _, err := ParseAuthProvider("twitter"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestEventTypeClassification(t *testing.T) {
	if !EventCartItemAdded.IsCartEvent() {
		t.Fatal("item added should be a cart event")
	}
	if EventUserRegistered.IsCartEvent() {
		t.Fatal("user registered is not a cart event")
	}
	if _, err := ParseEventType("cart.deleted"); err == nil {
		t.Fatal("expected error for unknown event type")
	}
	for _, e := range validEventTypes {
		if !e.IsValid() {
			t.Fatalf("%s should be valid", e)
		}
	}
}
