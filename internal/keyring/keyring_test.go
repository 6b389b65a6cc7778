package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestIdentityRoundTrip(t *testing.T) {
	gokeyring.MockInit()

	store := Identity()
	if err := store.Set("eyJhbGciOiJIUzI1NiJ9.test"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	got, err := store.Get()
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != "eyJhbGciOiJIUzI1NiJ9.test" {
		t.Errorf("Get() = %q", got)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want %v", err, ErrNotFound)
	}
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := Identity().Set(""); err == nil {
		t.Error("Set(\"\") should return an error")
	}
}

func TestDeleteNotFound(t *testing.T) {
	gokeyring.MockInit()

	if err := Account("jwt-secret").Delete(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want %v", err, ErrNotFound)
	}
}

func TestAccountsAreIndependent(t *testing.T) {
	gokeyring.MockInit()

	if err := Identity().Set("token"); err != nil {
		t.Fatalf("Set identity: %v", err)
	}
	if err := Account("jwt-secret").Set("secret"); err != nil {
		t.Fatalf("Set secret: %v", err)
	}

	if got, _ := Identity().Get(); got != "token" {
		t.Errorf("identity = %q", got)
	}
	if got, _ := Account("jwt-secret").Get(); got != "secret" {
		t.Errorf("secret = %q", got)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() = false with mock keyring, want true")
	}
}

func TestUnavailable(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no dbus"))
	defer gokeyring.MockInit()

	if _, err := Identity().Get(); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Get() error = %v, want %v", err, ErrKeyringUnavailable)
	}
	if IsAvailable() {
		t.Error("IsAvailable() = true with failing keyring")
	}
}
