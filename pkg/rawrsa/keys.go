package rawrsa

import (
	"fmt"
	"math/big"
)

// PublicKey is the pair (e, n). Its components are copied in and out, so a
// key cannot be changed once built.
type PublicKey struct {
	e *big.Int
	n *big.Int
}

// PrivateKey is the pair (d, n).
type PrivateKey struct {
	d *big.Int
	n *big.Int
}

// KeyPair holds a public and private key over the same modulus. Neither half
// can be replaced once the pair is built.
type KeyPair struct {
	public  PublicKey
	private PrivateKey
}

// NewKeyPair pairs keys built elsewhere. Both must share one modulus.
func NewKeyPair(pub PublicKey, priv PrivateKey) (*KeyPair, error) {
	if pub.IsZero() || priv.IsZero() {
		return nil, fmt.Errorf("%w: missing key", ErrInvalidKey)
	}
	if pub.n.Cmp(priv.n) != 0 {
		return nil, fmt.Errorf("%w: public and private moduli differ", ErrInvalidKey)
	}
	return &KeyPair{public: pub, private: priv}, nil
}

func (kp *KeyPair) Public() PublicKey { return kp.public }
func (kp *KeyPair) Private() PrivateKey { return kp.private }

// NewPublicKey builds a key from known components, e.g. a published key.
func NewPublicKey(e, n *big.Int) (PublicKey, error) {
	if err := checkComponents(e, n); err != nil {
		return PublicKey{}, err
	}
	return PublicKey{e: new(big.Int).Set(e), n: new(big.Int).Set(n)}, nil
}

func NewPrivateKey(d, n *big.Int) (PrivateKey, error) {
	if err := checkComponents(d, n); err != nil {
		return PrivateKey{}, err
	}
	return PrivateKey{d: new(big.Int).Set(d), n: new(big.Int).Set(n)}, nil
}

func checkComponents(exp, n *big.Int) error {
	if exp == nil || n == nil {
		return fmt.Errorf("%w: missing component", ErrInvalidKey)
	}
	if n.Cmp(big.NewInt(2)) < 0 {
		return fmt.Errorf("%w: modulus %s must be at least 2", ErrInvalidKey, n)
	}
	if exp.Sign() <= 0 {
		return fmt.Errorf("%w: exponent %s must be positive", ErrInvalidKey, exp)
	}
	return nil
}

func (k PublicKey) E() *big.Int { return copyOf(k.e) }
func (k PublicKey) N() *big.Int { return copyOf(k.n) }

// IsZero reports whether k is the zero value rather than a built key.
func (k PublicKey) IsZero() bool { return k.n == nil }

func (k PrivateKey) D() *big.Int { return copyOf(k.d) }
func (k PrivateKey) N() *big.Int { return copyOf(k.n) }

func (k PrivateKey) IsZero() bool { return k.n == nil }

// ModulusBits is the bit length of n.
func (kp *KeyPair) ModulusBits() int {
	if kp.public.n == nil {
		return 0
	}
	return kp.public.n.BitLen()
}

func copyOf(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}
