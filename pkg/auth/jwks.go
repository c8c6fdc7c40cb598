package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator turns a bearer token into verified claims. The middleware
// depends on this seam so tests can substitute a stub for the JWKS client.
type TokenValidator interface {
	// ValidateToken checks a JWT and returns its claims. Rejects expired
	// tokens and tokens from issuers outside the configured whitelist.
	ValidateToken(tokenString string) (*Claims, error)
	// Close releases any resources held by the validator.
	Close()
}

// JWKSConfig configures the JWKS-backed validator.
type JWKSConfig struct {
	// EnableVerification toggles signature checks. Local development runs
	// without an identity provider, so tokens are parsed unverified there.
	EnableVerification bool
	// JWKSEndpoints maps trusted issuer URLs to their JWKS endpoints.
	// A token whose issuer is not a key here is rejected.
	JWKSEndpoints map[string]string
}

// JWKSClient verifies assessor and client tokens against the identity
// provider's published key sets, one keyfunc per trusted issuer.
type JWKSClient struct {
	issuerKeys map[string]keyfunc.Keyfunc
	config     *JWKSConfig
}

// NewJWKSClient builds the validator and, when verification is on, fetches
// the key set for every configured issuer up front so a bad endpoint fails
// the boot instead of the first login.
func NewJWKSClient(config *JWKSConfig) (*JWKSClient, error) {
	client := &JWKSClient{
		issuerKeys: make(map[string]keyfunc.Keyfunc),
		config:     config,
	}

	if !config.EnableVerification {
		return client, nil
	}

	for issuer, jwksURL := range config.JWKSEndpoints {
		jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS for issuer %s: %w", issuer, err)
		}
		client.issuerKeys[issuer] = jwks
	}

	return client, nil
}

// ValidateToken verifies the RSA signature against the issuer's key set and
// returns the claims. With verification disabled it falls back to an
// unverified parse.
func (c *JWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	if !c.config.EnableVerification {
		return c.parseUnverifiedToken(tokenString)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, c.resolveKey)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}

// resolveKey picks the verification key for a token, enforcing RS256 and the
// issuer whitelist before touching the key set.
func (c *JWKSClient) resolveKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	jwks, exists := c.issuerKeys[claims.Issuer]
	if !exists {
		return nil, fmt.Errorf("unauthorized issuer: %s", claims.Issuer)
	}

	return jwks.KeyfuncCtx(context.Background())(token)
}

// parseUnverifiedToken reads claims without checking the signature.
// Development-mode only.
func (c *JWKSClient) parseUnverifiedToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}

// Close implements TokenValidator. keyfunc v3 manages its own refresh
// lifecycle, so there is nothing to release.
func (c *JWKSClient) Close() {}

var _ TokenValidator = (*JWKSClient)(nil)
