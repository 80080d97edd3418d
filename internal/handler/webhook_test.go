package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signAuthPayload(secret string, payload []byte, id, timestamp string) string {
	key, _ := base64.StdEncoding.DecodeString(secret)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyAuthSignature(t *testing.T) {
	rawSecret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	payload := []byte(`{"type":"user.created"}`)
	sig := signAuthPayload(rawSecret, payload, "msg_1", "1718000000")

	assert.True(t, verifyAuthSignature(rawSecret, payload, "msg_1", "1718000000", sig))
}

func TestVerifyAuthSignatureStripsSecretPrefix(t *testing.T) {
	rawSecret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	payload := []byte(`{"type":"user.created"}`)
	sig := signAuthPayload(rawSecret, payload, "msg_1", "1718000000")

	assert.True(t, verifyAuthSignature("whsec_"+rawSecret, payload, "msg_1", "1718000000", sig))
}

func TestVerifyAuthSignatureAcceptsAnyListedSignature(t *testing.T) {
	rawSecret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	payload := []byte(`{"type":"user.created"}`)
	sig := signAuthPayload(rawSecret, payload, "msg_1", "1718000000")

	header := "v1,bogus " + sig
	assert.True(t, verifyAuthSignature(rawSecret, payload, "msg_1", "1718000000", header))
}

func TestVerifyAuthSignatureRejections(t *testing.T) {
	rawSecret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	payload := []byte(`{"type":"user.created"}`)
	sig := signAuthPayload(rawSecret, payload, "msg_1", "1718000000")

	// Tampered payload
	assert.False(t, verifyAuthSignature(rawSecret, []byte(`{"type":"user.deleted"}`), "msg_1", "1718000000", sig))
	// Wrong message id changes the signed content
	assert.False(t, verifyAuthSignature(rawSecret, payload, "msg_2", "1718000000", sig))
	// Missing headers
	assert.False(t, verifyAuthSignature(rawSecret, payload, "", "1718000000", sig))
	assert.False(t, verifyAuthSignature(rawSecret, payload, "msg_1", "", sig))
	assert.False(t, verifyAuthSignature(rawSecret, payload, "msg_1", "1718000000", ""))
	// Unknown version entries are ignored
	assert.False(t, verifyAuthSignature(rawSecret, payload, "msg_1", "1718000000", "v2,"+sig))
}
