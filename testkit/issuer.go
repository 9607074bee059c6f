// Package testkit provides a mock OIDC issuer for tests: an HTTP server
// that publishes a JWKS document and signs tokens that verify against it.
//
// Example:
//
//	issuer := testkit.NewIssuer(t)
//	cache, _ := oidckit.NewKeyCache(oidckit.CachePolicy{Issuer: issuer.URL()}, nil)
//	token := issuer.Token("user-1", nil)
package testkit

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// jwkDoc is the serialized JWKS document shape for RSA signing keys.
type jwkDoc struct {
	Keys []jwkEntry `json:"keys"`
}

type jwkEntry struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Issuer is a fake identity provider. It serves its public keys at
// /.well-known/jwks.json and mints RS256 tokens with a kid header.
type Issuer struct {
	t        *testing.T
	server   *httptest.Server
	audience string

	mu   sync.Mutex
	kid  string
	key  *rsa.PrivateKey
	prev map[string]*rsa.PublicKey // retired kids still published when KeepOld

	// KeepOld controls whether rotated-out public keys stay in the JWKS.
	KeepOld bool

	fetches atomic.Int64
}

// NewIssuer starts a fake issuer with a fresh 2048-bit RSA key.
func NewIssuer(t *testing.T) *Issuer {
	t.Helper()
	return NewIssuerWithAudience(t, "storefront")
}

// NewIssuerWithAudience starts a fake issuer minting tokens for the given
// audience.
func NewIssuerWithAudience(t *testing.T, audience string) *Issuer {
	t.Helper()
	iss := &Issuer{t: t, audience: audience, prev: map[string]*rsa.PublicKey{}}
	iss.rotateLocked("test-key-1")

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", iss.handleJWKS)
	iss.server = httptest.NewServer(mux)
	t.Cleanup(iss.server.Close)
	return iss
}

// URL returns the issuer base URL; use it as both iss claim and issuer
// configuration.
func (i *Issuer) URL() string { return i.server.URL }

// Audience returns the audience tokens are minted for.
func (i *Issuer) Audience() string { return i.audience }

// FetchCount reports how many JWKS fetches the server has seen.
func (i *Issuer) FetchCount() int64 { return i.fetches.Load() }

// KeyID returns the active signing key id.
func (i *Issuer) KeyID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.kid
}

// Rotate replaces the signing key. With KeepOld set the previous public
// key stays in the published JWKS under its old kid.
func (i *Issuer) Rotate(kid string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.KeepOld && i.key != nil {
		i.prev[i.kid] = &i.key.PublicKey
	}
	i.rotateLocked(kid)
}

func (i *Issuer) rotateLocked(kid string) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		i.t.Fatalf("generate rsa key: %v", err)
	}
	i.kid = kid
	i.key = key
}

func (i *Issuer) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	i.fetches.Add(1)
	i.mu.Lock()
	doc := jwkDoc{Keys: []jwkEntry{rsaToJWK(&i.key.PublicKey, i.kid)}}
	for kid, pub := range i.prev {
		doc.Keys = append(doc.Keys, rsaToJWK(pub, kid))
	}
	i.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// Token mints a signed token for sub. extra overrides or extends the
// standard claims (sub, iss, aud, exp, iat).
func (i *Issuer) Token(sub string, extra map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sub,
		"iss": i.URL(),
		"aud": i.audience,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	return i.sign(claims, "")
}

// ExpiredToken mints a token whose exp is an hour in the past.
func (i *Issuer) ExpiredToken(sub string) string {
	return i.Token(sub, map[string]any{
		"exp": time.Now().Add(-time.Hour).Unix(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
	})
}

// TokenWithKid mints a token that declares the given kid regardless of the
// active key; the signature still uses the active private key.
func (i *Issuer) TokenWithKid(sub, kid string) string {
	now := time.Now()
	return i.sign(jwt.MapClaims{
		"sub": sub,
		"iss": i.URL(),
		"aud": i.audience,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}, kid)
}

// ForeignToken mints a token signed by a key pair the JWKS has never
// published, declaring the active kid.
func (i *Issuer) ForeignToken(sub string) string {
	stranger, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		i.t.Fatalf("generate rsa key: %v", err)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": sub,
		"iss": i.URL(),
		"aud": i.audience,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	})
	token.Header["kid"] = i.KeyID()
	signed, err := token.SignedString(stranger)
	if err != nil {
		i.t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (i *Issuer) sign(claims jwt.MapClaims, kid string) string {
	i.mu.Lock()
	key := i.key
	if kid == "" {
		kid = i.kid
	}
	i.mu.Unlock()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		i.t.Fatalf("sign token: %v", err)
	}
	return signed
}

func rsaToJWK(pub *rsa.PublicKey, kid string) jwkEntry {
	return jwkEntry{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: "RS256",
		N:   base64URL(pub.N),
		E:   base64URL(big.NewInt(int64(pub.E))),
	}
}

func base64URL(i *big.Int) string {
	b := i.Bytes()
	for len(b) > 0 && b[0] == 0x00 {
		b = b[1:]
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
