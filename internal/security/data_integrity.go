// Package security signs outgoing analysis payloads so downstream
// consumers can verify they were produced by this service.
package security

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

// DataIntegrityService signs response payloads with an Ed25519 key,
// Solana's native signature scheme. Keys and signatures are exposed in
// base58, the encoding Solana tooling expects.
type DataIntegrityService struct {
	privateKey       ed25519.PrivateKey
	publicKeyEncoded string
	verificationOpts VerificationOptions
}

// VerificationOptions configures the behavior of data integrity checks
type VerificationOptions struct {
	SignatureEnabled     bool          `json:"signature_enabled"`
	VerificationRequired bool          `json:"verification_required"`
	SignatureValidity    time.Duration `json:"signature_validity"`
	StrictMode           bool          `json:"strict_mode"`
}

// NewDataIntegrityService creates a new service with a fresh keypair.
func NewDataIntegrityService(opts VerificationOptions) (*DataIntegrityService, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	publicKeyEncoded := base58.Encode(publicKey)
	service := &DataIntegrityService{
		privateKey:       privateKey,
		publicKeyEncoded: publicKeyEncoded,
		verificationOpts: opts,
	}

	logrus.Infof("Data integrity service initialized with public key: %s", publicKeyEncoded)
	return service, nil
}

// SignPayload attaches a detached signature to a payload. With signing
// disabled the payload passes through unchanged.
func (s *DataIntegrityService) SignPayload(payload interface{}) (map[string]interface{}, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var resultMap map[string]interface{}
	if err := json.Unmarshal(payloadBytes, &resultMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if !s.verificationOpts.SignatureEnabled {
		return resultMap, nil
	}

	// Hash the map form, not the original struct form: verification
	// recomputes the hash from a map, and map marshaling sorts keys.
	canonical, err := json.Marshal(resultMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	hash := sha256.Sum256(canonical)
	signature := ed25519.Sign(s.privateKey, hash[:])

	resultMap["_signature"] = map[string]interface{}{
		"signature":  base58.Encode(signature),
		"publicKey":  s.publicKeyEncoded,
		"algorithm":  "Ed25519-SHA256",
		"timestamp":  time.Now().Unix(),
		"validUntil": time.Now().Add(s.verificationOpts.SignatureValidity).Unix(),
	}
	return resultMap, nil
}

// VerifyPayload checks the signature attached by SignPayload.
func (s *DataIntegrityService) VerifyPayload(signedPayload map[string]interface{}) (bool, error) {
	if !s.verificationOpts.SignatureEnabled || !s.verificationOpts.VerificationRequired {
		return true, nil
	}

	sigMetadata, ok := signedPayload["_signature"].(map[string]interface{})
	if !ok {
		if s.verificationOpts.StrictMode {
			return false, fmt.Errorf("signature metadata missing")
		}
		logrus.Warn("Signature metadata missing from payload")
		return false, nil
	}

	signatureStr, ok := sigMetadata["signature"].(string)
	if !ok {
		return false, fmt.Errorf("invalid signature format")
	}
	publicKeyStr, ok := sigMetadata["publicKey"].(string)
	if !ok {
		return false, fmt.Errorf("invalid public key format")
	}
	validUntil, ok := sigMetadata["validUntil"].(float64)
	if !ok {
		return false, fmt.Errorf("invalid validUntil format")
	}

	now := time.Now().Unix()
	if now > int64(validUntil) {
		return false, fmt.Errorf("signature expired at %v (current time: %v)",
			time.Unix(int64(validUntil), 0), time.Unix(now, 0))
	}

	signatureBytes, err := base58.Decode(signatureStr)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}
	publicKeyBytes, err := base58.Decode(publicKeyStr)
	if err != nil {
		return false, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(publicKeyBytes) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key length: %d", len(publicKeyBytes))
	}
	if len(signatureBytes) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature length: %d", len(signatureBytes))
	}

	// Recompute the hash over the payload without its signature block
	payloadCopy := make(map[string]interface{})
	for k, v := range signedPayload {
		if k != "_signature" {
			payloadCopy[k] = v
		}
	}
	payloadBytes, err := json.Marshal(payloadCopy)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payload: %w", err)
	}
	hash := sha256.Sum256(payloadBytes)

	if !ed25519.Verify(ed25519.PublicKey(publicKeyBytes), hash[:], signatureBytes) {
		return false, fmt.Errorf("signature verification failed")
	}
	return true, nil
}

// GetPublicKey returns the base58-encoded public key
func (s *DataIntegrityService) GetPublicKey() string {
	return s.publicKeyEncoded
}
