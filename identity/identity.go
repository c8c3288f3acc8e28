// Package identity provides the Ed25519 peer identities used to sign
// and verify every consensus action and vote in the mesh.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// PeerID is the 32-byte public identity of a node, derived from its
// Ed25519 public key.
type PeerID [32]byte

// String renders the peer id as lowercase hex, matching the teacher's
// hex-encoded id idiom (blockchain/action.go's ToString-style output).
func (id PeerID) String() string {
	return hex.EncodeToString(id[:])
}

// PeerIDFromPublicKey derives a PeerID from an Ed25519 public key.
func PeerIDFromPublicKey(pub ed25519.PublicKey) (PeerID, error) {
	if len(pub) != ed25519.PublicKeySize {
		return PeerID{}, fmt.Errorf("identity: bad public key length %d", len(pub))
	}
	var id PeerID
	copy(id[:], pub)
	return id, nil
}

// Keypair bundles a node's signing keys and derived peer id.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
	ID      PeerID
}

// NewKeypair generates a fresh Ed25519 keypair, mirroring
// blockchain/action.go's NewEd25519Keypair.
func NewKeypair() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("identity: generate key: %w", err)
	}
	id, err := PeerIDFromPublicKey(pub)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Public: pub, Private: priv, ID: id}, nil
}

// Signer is implemented by anything that can canonically sign and
// verify a byte payload, e.g. protocol.Packet or consensus.Action.
type Signer interface {
	// SigningBytes returns the canonical bytes to be signed: the same
	// encoding used by the signer must be reproduced by the verifier,
	// with any existing signature field cleared first.
	SigningBytes() ([]byte, error)
}

// ErrMissingSignature is returned when verification is attempted
// against an empty signature field.
var ErrMissingSignature = errors.New("identity: missing signature")

// Sign produces a detached Ed25519 signature over s's canonical bytes.
func Sign(priv ed25519.PrivateKey, s Signer) ([]byte, error) {
	b, err := s.SigningBytes()
	if err != nil {
		return nil, fmt.Errorf("identity: signing bytes: %w", err)
	}
	return ed25519.Sign(priv, b), nil
}

// Verify checks a detached signature against s's canonical bytes.
func Verify(pub ed25519.PublicKey, s Signer, sig []byte) (bool, error) {
	if len(sig) == 0 {
		return false, ErrMissingSignature
	}
	b, err := s.SigningBytes()
	if err != nil {
		return false, fmt.Errorf("identity: signing bytes: %w", err)
	}
	return ed25519.Verify(pub, b, sig), nil
}

// Directory tracks the public keys of known peers, the same shape as
// consensus.ConsensusNode.playersPK generalized into its own type so
// it can be shared across the mesh and consensus layers.
type Directory struct {
	keys map[PeerID]ed25519.PublicKey
}

// NewDirectory builds a Directory from a set of known peers.
func NewDirectory(peers map[PeerID]ed25519.PublicKey) *Directory {
	d := &Directory{keys: make(map[PeerID]ed25519.PublicKey, len(peers))}
	for id, pk := range peers {
		d.keys[id] = pk
	}
	return d
}

// Lookup returns the public key registered for id, if any.
func (d *Directory) Lookup(id PeerID) (ed25519.PublicKey, bool) {
	pk, ok := d.keys[id]
	return pk, ok
}

// Add registers or replaces a peer's public key.
func (d *Directory) Add(id PeerID, pk ed25519.PublicKey) {
	d.keys[id] = pk
}

// Remove drops a peer from the directory, e.g. after a ban.
func (d *Directory) Remove(id PeerID) {
	delete(d.keys, id)
}

// Len returns the number of known peers.
func (d *Directory) Len() int {
	return len(d.keys)
}

// Peers returns a snapshot copy of known peer ids.
func (d *Directory) Peers() []PeerID {
	out := make([]PeerID, 0, len(d.keys))
	for id := range d.keys {
		out = append(out, id)
	}
	return out
}
