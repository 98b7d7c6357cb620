//go:build js && wasm

package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/smallyu/go-p521/pkg/p521"
)

func main() {
	c := make(chan struct{}, 0)

	fmt.Println("Go P-521 WASM Initialized")

	// Expose Go functions to JS. All byte arguments and results travel as
	// hex strings; composite results as JSON.
	js.Global().Set("GoP521", map[string]interface{}{
		"GenerateKey":  js.FuncOf(GenerateKey),
		"Sign":         js.FuncOf(Sign),
		"Verify":       js.FuncOf(Verify),
		"SharedSecret": js.FuncOf(SharedSecret),
	})

	<-c
}

// GenerateKey creates a fresh key pair.
// Arguments: none.
// Returns: JSON {privateKey, publicKey, publicKeyCompressed} (hex) or an
// "error: ..." string.
func GenerateKey(this js.Value, args []js.Value) interface{} {
	priv, err := p521.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Sprintf("error: key generation failed: %v", err)
	}

	resp := map[string]interface{}{
		"privateKey":          hex.EncodeToString(priv.Bytes()),
		"publicKey":           hex.EncodeToString(priv.PublicKey().Bytes()),
		"publicKeyCompressed": hex.EncodeToString(priv.PublicKey().BytesCompressed()),
	}
	respBytes, _ := json.Marshal(resp)
	return string(respBytes)
}

// Sign signs a digest deterministically (RFC 6979).
// Arguments:
// 0: private key (hex, 66 bytes)
// 1: digest (hex)
// Returns: JSON {signature, signatureDER} (hex) or an "error: ..." string.
func Sign(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "error: expected 2 arguments (privateKeyHex, digestHex)"
	}

	privBytes, err := hex.DecodeString(args[0].String())
	if err != nil {
		return fmt.Sprintf("error: invalid private key hex: %v", err)
	}
	digest, err := hex.DecodeString(args[1].String())
	if err != nil {
		return fmt.Sprintf("error: invalid digest hex: %v", err)
	}

	priv, err := p521.NewPrivateKey(privBytes)
	if err != nil {
		return fmt.Sprintf("error: invalid private key: %v", err)
	}
	defer priv.Zeroize()

	sig, err := p521.Sign(priv, digest)
	if err != nil {
		return fmt.Sprintf("error: signing failed: %v", err)
	}

	resp := map[string]interface{}{
		"signature":    hex.EncodeToString(sig.Bytes()),
		"signatureDER": hex.EncodeToString(sig.SerializeDER()),
	}
	respBytes, _ := json.Marshal(resp)
	return string(respBytes)
}

// Verify checks a signature over a digest.
// Arguments:
// 0: public key (hex, SEC 1 compressed or uncompressed)
// 1: digest (hex)
// 2: signature (hex, either the 132-byte fixed form or DER)
// Returns: true, false, or an "error: ..." string for malformed inputs.
func Verify(this js.Value, args []js.Value) interface{} {
	if len(args) != 3 {
		return "error: expected 3 arguments (publicKeyHex, digestHex, signatureHex)"
	}

	pubBytes, err := hex.DecodeString(args[0].String())
	if err != nil {
		return fmt.Sprintf("error: invalid public key hex: %v", err)
	}
	digest, err := hex.DecodeString(args[1].String())
	if err != nil {
		return fmt.Sprintf("error: invalid digest hex: %v", err)
	}
	sigBytes, err := hex.DecodeString(args[2].String())
	if err != nil {
		return fmt.Sprintf("error: invalid signature hex: %v", err)
	}

	pub, err := p521.NewPublicKey(pubBytes)
	if err != nil {
		return fmt.Sprintf("error: invalid public key: %v", err)
	}

	sig, err := p521.ParseSignature(sigBytes)
	if err != nil {
		// Fall back to DER, the form most callers have.
		sig, err = p521.ParseDERSignature(sigBytes)
		if err != nil {
			return fmt.Sprintf("error: invalid signature: %v", err)
		}
	}

	return pub.VerifyDigest(digest, sig) == nil
}

// SharedSecret computes the ECDH shared secret.
// Arguments:
// 0: private key (hex, 66 bytes)
// 1: peer public key (hex, SEC 1)
// Returns: shared secret (hex, 66 bytes) or an "error: ..." string.
func SharedSecret(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "error: expected 2 arguments (privateKeyHex, publicKeyHex)"
	}

	privBytes, err := hex.DecodeString(args[0].String())
	if err != nil {
		return fmt.Sprintf("error: invalid private key hex: %v", err)
	}
	pubBytes, err := hex.DecodeString(args[1].String())
	if err != nil {
		return fmt.Sprintf("error: invalid public key hex: %v", err)
	}

	priv, err := p521.NewPrivateKey(privBytes)
	if err != nil {
		return fmt.Sprintf("error: invalid private key: %v", err)
	}
	defer priv.Zeroize()

	pub, err := p521.NewPublicKey(pubBytes)
	if err != nil {
		return fmt.Sprintf("error: invalid public key: %v", err)
	}

	secret, err := priv.ECDH(pub)
	if err != nil {
		return fmt.Sprintf("error: ecdh failed: %v", err)
	}
	return hex.EncodeToString(secret)
}
