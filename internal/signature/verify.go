// Package signature checks a token signature against caller-supplied key
// material using the strategy the algorithm registry resolves.
package signature

import (
	"crypto/ecdsa"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/internal/failure"
	"github.com/MrEthical07/goVerify/keys"
)

// Verify checks sig over signingInput. It returns nil only when the
// signature is valid; every other outcome is a *failure.Error:
//
//   - KindUnknownAlgorithm when alg is not in the registry,
//   - KindAlgorithmNotAllowed when alg is "none",
//   - KindKeyMismatch when key does not fit the algorithm,
//   - KindSignatureInvalid when the cryptographic check fails.
//
// HMAC comparison runs in constant time inside the primitive.
func Verify(alg string, signingInput string, sig []byte, key keys.Material) error {
	strategy, ok := algorithm.Resolve(algorithm.ID(alg))
	if !ok {
		return failure.New(failure.KindUnknownAlgorithm, alg)
	}
	if strategy.Refuses() {
		return failure.New(failure.KindAlgorithmNotAllowed, "unsecured tokens are never accepted")
	}

	verifyKey, err := keyFor(strategy, key)
	if err != nil {
		return err
	}

	if want := expectedLength(strategy, key); want > 0 && len(sig) != want {
		return failure.New(failure.KindSignatureInvalid, "signature length")
	}

	if err := strategy.Method().Verify(signingInput, sig, verifyKey); err != nil {
		if errors.Is(err, jwt.ErrInvalidKeyType) || errors.Is(err, jwt.ErrInvalidKey) {
			return failure.Wrap(failure.KindKeyMismatch, alg, err)
		}
		return failure.Wrap(failure.KindSignatureInvalid, alg, err)
	}
	return nil
}

func keyFor(strategy algorithm.Strategy, key keys.Material) (any, error) {
	if key.Family != strategy.Family() {
		return nil, failure.New(failure.KindKeyMismatch,
			string(strategy.ID())+" requires "+strategy.Family().String()+" key, got "+key.Family.String())
	}
	verifyKey := key.VerifyKey()
	if verifyKey == nil {
		return nil, failure.New(failure.KindKeyMismatch, "empty "+key.Family.String()+" key")
	}
	if curve := strategy.Curve(); curve != nil {
		pub, _ := verifyKey.(*ecdsa.PublicKey)
		if pub == nil || pub.Curve == nil || pub.Curve.Params().Name != curve.Params().Name {
			return nil, failure.New(failure.KindKeyMismatch, string(strategy.ID())+" requires curve "+curve.Params().Name)
		}
	}
	return verifyKey, nil
}

func expectedLength(strategy algorithm.Strategy, key keys.Material) int {
	if n := strategy.SignatureSize(); n > 0 {
		return n
	}
	if strategy.Family() == algorithm.FamilyRSA && key.RSA != nil {
		return key.RSA.Size()
	}
	return 0
}
