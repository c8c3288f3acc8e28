package identity

import "testing"

type fakeSigner struct {
	payload   string
	Signature []byte
}

func (f fakeSigner) SigningBytes() ([]byte, error) {
	return []byte(f.payload), nil
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	msg := fakeSigner{payload: "roll-commit"}
	sig, err := Sign(kp.Private, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	ok, err := Verify(kp.Public, msg, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	sig, err := Sign(kp.Private, fakeSigner{payload: "original"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	ok, err := Verify(kp.Public, fakeSigner{payload: "tampered"}, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("expected tampered payload to fail verification")
	}
}

func TestVerifyMissingSignature(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	_, err = Verify(kp.Public, fakeSigner{payload: "x"}, nil)
	if err != ErrMissingSignature {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestDirectoryBasic(t *testing.T) {
	kp1, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	kp2, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	d := NewDirectory(nil)
	d.Add(kp1.ID, kp1.Public)
	if d.Len() != 1 {
		t.Fatalf("expected 1 peer, got %d", d.Len())
	}
	if _, ok := d.Lookup(kp2.ID); ok {
		t.Fatalf("expected kp2 to be unknown")
	}
	d.Add(kp2.ID, kp2.Public)
	if d.Len() != 2 {
		t.Fatalf("expected 2 peers, got %d", d.Len())
	}
	d.Remove(kp1.ID)
	if _, ok := d.Lookup(kp1.ID); ok {
		t.Fatalf("expected kp1 to be removed")
	}
}
