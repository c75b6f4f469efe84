package keycloak

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// AuthProvider is the OIDC client surface this package exposes. It backs
// the cancellation gate (gate.go) and the bearer-check middleware
// (middleware.go); it performs no per-request authorization decisions of
// its own.
type AuthProvider interface {
	VerifyToken(ctx context.Context, rawToken string) (*TokenClaims, error)
	IntrospectToken(ctx context.Context, token string) (*IntrospectionResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetServiceToken(ctx context.Context) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Health(ctx context.Context) error
}

// TokenClaims represents the claims parsed from a JWT access token.
type TokenClaims struct {
	Subject     string
	Email       string
	RealmRoles  []string
	ClientRoles map[string][]string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Issuer      string
	Audience    []string
	Scope       string
}

// IntrospectionResult is the result of token introspection. The
// cancellation gate (gate.go) polls this on the token a client registered
// against a run: once Active flips false, the run is cancelled.
type IntrospectionResult struct {
	Active    bool
	Subject   string
	ClientID  string
	TokenType string
	ExpiresAt time.Time
	Scope     string
}

// TokenPair represents a pair of access and refresh tokens.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// KeycloakConfig holds configuration for the Keycloak client.
type KeycloakConfig struct {
	BaseURL                  string
	Realm                    string
	ClientID                 string
	ClientSecret             string
	PublicKeyRefreshInterval time.Duration
	RequestTimeout           time.Duration
	RetryAttempts            int
	RetryDelay               time.Duration
	TLSInsecureSkipVerify    bool
}

// keycloakClient implements the AuthProvider interface.
type keycloakClient struct {
	config            KeycloakConfig
	httpClient        *http.Client
	jwksCache         *jwksCache
	serviceTokenCache *serviceTokenEntry
	logger            logging.Logger
}

// NewKeycloakClient creates a new instance of keycloakClient.
func NewKeycloakClient(cfg KeycloakConfig, logger logging.Logger, opts ...ClientOption) (AuthProvider, error) {
	if cfg.BaseURL == "" {
		return nil, mfaerr.New(mfaerr.CodeInvalidParam, "BaseURL is required")
	}
	if cfg.Realm == "" {
		return nil, mfaerr.New(mfaerr.CodeInvalidParam, "Realm is required")
	}
	if cfg.ClientID == "" {
		return nil, mfaerr.New(mfaerr.CodeInvalidParam, "ClientID is required")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.PublicKeyRefreshInterval == 0 {
		cfg.PublicKeyRefreshInterval = 5 * time.Minute
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSInsecureSkipVerify,
		},
	}

	c := &keycloakClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		jwksCache:         newJWKSCache(),
		serviceTokenCache: &serviceTokenEntry{},
		logger:            logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.refreshJWKS(context.Background()); err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, "failed to refresh JWKS")
	}

	go c.startJWKSRefresh()

	return c, nil
}

// NewClientFromConfig adapts the operator-facing config.AuthGateConfig onto
// KeycloakConfig. The gate's polling cadence (gate.go) is
// config.AuthGateConfig.PollInterval, separate from this client's own JWKS
// refresh interval, which is left at its default.
func NewClientFromConfig(cfg config.AuthGateConfig, logger logging.Logger) (AuthProvider, error) {
	return NewKeycloakClient(KeycloakConfig{
		BaseURL:      cfg.BaseURL,
		Realm:        cfg.Realm,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, logger)
}

func (c *keycloakClient) startJWKSRefresh() {
	ticker := time.NewTicker(c.config.PublicKeyRefreshInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := c.refreshJWKS(context.Background()); err != nil {
			c.logger.Error("failed to refresh JWKS", logging.Err(err))
		}
	}
}

func (c *keycloakClient) refreshJWKS(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", c.config.BaseURL, c.config.Realm)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch JWKS: status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, raw := range jwks.Keys {
		var keyData struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		}
		if err := json.Unmarshal(raw, &keyData); err != nil {
			continue
		}
		if keyData.Kty != "RSA" {
			continue
		}
		pubKey, err := parseRSAPublicKey(keyData.N, keyData.E)
		if err != nil {
			c.logger.Warn("failed to parse RSA key", logging.String("kid", keyData.Kid), logging.Err(err))
			continue
		}
		keys[keyData.Kid] = pubKey
	}

	c.jwksCache.update(keys)
	return nil
}

// doRequest executes an HTTP request with retry on 5xx and network errors.
func (c *keycloakClient) doRequest(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for i := 0; i <= c.config.RetryAttempts; i++ {
		if i > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(c.config.RetryDelay * time.Duration(1<<uint(i-1))):
			}
		}

		if req.Body != nil {
			if seeker, ok := req.Body.(io.Seeker); ok {
				seeker.Seek(0, io.SeekStart)
			} else if req.GetBody != nil {
				if newBody, err := req.GetBody(); err == nil {
					req.Body = newBody
				}
			}
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("request failed, retrying", logging.Err(err), logging.Int("attempt", i+1))
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			c.logger.Warn("server error, retrying", logging.Int("status", resp.StatusCode), logging.Int("attempt", i+1))
			continue
		}

		return resp, nil
	}

	if err != nil {
		return nil, err
	}
	return nil, ErrKeycloakUnavailable.WithDetail("max retries exceeded")
}

// VerifyToken validates the token and returns the claims. Used by the
// bearer-check middleware, not for any role- or tenant-scoped decision.
func (c *keycloakClient) VerifyToken(ctx context.Context, rawToken string) (*TokenClaims, error) {
	token, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid missing from header")
		}

		pubKey, ok := c.jwksCache.getKey(kid)
		if !ok {
			if err := c.refreshJWKS(ctx); err != nil {
				return nil, fmt.Errorf("key not found and refresh failed")
			}
			pubKey, ok = c.jwksCache.getKey(kid)
			if !ok {
				return nil, fmt.Errorf("key not found")
			}
		}
		return pubKey, nil
	})

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if stderrors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenInvalidSignature
		}
		return nil, ErrTokenMalformed.WithCause(err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalidSignature
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed.WithDetail("invalid claims type")
	}

	expectedIssuer := fmt.Sprintf("%s/realms/%s", c.config.BaseURL, c.config.Realm)
	iss, _ := claims.GetIssuer()
	if iss != expectedIssuer {
		return nil, ErrTokenInvalidIssuer.WithDetail(fmt.Sprintf("expected %s, got %s", expectedIssuer, iss))
	}

	aud, _ := claims.GetAudience()
	audFound := false
	for _, a := range aud {
		if a == c.config.ClientID {
			audFound = true
			break
		}
	}
	if !audFound {
		return nil, ErrTokenInvalidAudience.WithDetail(fmt.Sprintf("expected %s", c.config.ClientID))
	}

	tc := &TokenClaims{
		Subject:  mustGetString(claims, "sub"),
		Email:    getString(claims, "email"),
		Issuer:   iss,
		Audience: aud,
		Scope:    getString(claims, "scope"),
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		tc.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}

	if realmAccess, ok := claims["realm_access"].(map[string]interface{}); ok {
		if roles, ok := realmAccess["roles"].([]interface{}); ok {
			for _, r := range roles {
				if rStr, ok := r.(string); ok {
					tc.RealmRoles = append(tc.RealmRoles, rStr)
				}
			}
		}
	}

	if resourceAccess, ok := claims["resource_access"].(map[string]interface{}); ok {
		tc.ClientRoles = make(map[string][]string)
		for clientID, access := range resourceAccess {
			if accessMap, ok := access.(map[string]interface{}); ok {
				if roles, ok := accessMap["roles"].([]interface{}); ok {
					var clientRoleList []string
					for _, r := range roles {
						if rStr, ok := r.(string); ok {
							clientRoleList = append(clientRoleList, rStr)
						}
					}
					tc.ClientRoles[clientID] = clientRoleList
				}
			}
		}
	}

	return tc, nil
}

func (c *keycloakClient) IntrospectToken(ctx context.Context, token string) (*IntrospectionResult, error) {
	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", c.config.BaseURL, c.config.Realm)
	data := url.Values{}
	data.Set("token", token)
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrTokenIntrospectionFailed.WithDetail(fmt.Sprintf("status: %d", resp.StatusCode))
	}

	var result IntrospectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *keycloakClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", c.config.BaseURL, c.config.Realm)
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, ErrTokenExpired.WithDetail(fmt.Sprintf("refresh failed: %s", string(body)))
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *keycloakClient) GetServiceToken(ctx context.Context) (string, error) {
	c.serviceTokenCache.mu.RLock()
	if c.serviceTokenCache.isValid() {
		token := c.serviceTokenCache.token
		c.serviceTokenCache.mu.RUnlock()
		return token, nil
	}
	c.serviceTokenCache.mu.RUnlock()

	c.serviceTokenCache.mu.Lock()
	defer c.serviceTokenCache.mu.Unlock()

	if c.serviceTokenCache.isValid() {
		return c.serviceTokenCache.token, nil
	}

	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", c.config.BaseURL, c.config.Realm)
	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrKeycloakUnavailable.WithDetail("failed to get service token")
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	c.serviceTokenCache.token = result.AccessToken
	c.serviceTokenCache.expiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)

	return result.AccessToken, nil
}

func (c *keycloakClient) Logout(ctx context.Context, refreshToken string) error {
	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/logout", c.config.BaseURL, c.config.Realm)
	data := url.Values{}
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logout failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *keycloakClient) Health(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/realms/%s/.well-known/openid-configuration", c.config.BaseURL, c.config.Realm)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return ErrKeycloakUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrKeycloakUnavailable
	}
	return nil
}

type jwksCache struct {
	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

func newJWKSCache() *jwksCache {
	return &jwksCache{keys: make(map[string]*rsa.PublicKey)}
}

func (c *jwksCache) update(keys map[string]*rsa.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = keys
}

func (c *jwksCache) getKey(kid string) (*rsa.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.keys[kid]
	return k, ok
}

type serviceTokenEntry struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func (e *serviceTokenEntry) isValid() bool {
	return time.Now().Add(30 * time.Second).Before(e.expiresAt)
}

// ClientOption defines functional options for configuration.
type ClientOption func(*keycloakClient)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *keycloakClient) {
		c.httpClient = client
	}
}

func WithJWKSRefreshInterval(d time.Duration) ClientOption {
	return func(c *keycloakClient) {
		c.config.PublicKeyRefreshInterval = d
	}
}

var (
	ErrTokenExpired             = mfaerr.New(mfaerr.CodeUnauthorized, "token expired")
	ErrTokenInvalidSignature    = mfaerr.New(mfaerr.CodeUnauthorized, "invalid token signature")
	ErrTokenInvalidIssuer       = mfaerr.New(mfaerr.CodeUnauthorized, "invalid token issuer")
	ErrTokenInvalidAudience     = mfaerr.New(mfaerr.CodeUnauthorized, "invalid token audience")
	ErrTokenMalformed           = mfaerr.New(mfaerr.CodeUnauthorized, "malformed token")
	ErrTokenIntrospectionFailed = mfaerr.New(mfaerr.CodeInternal, "token introspection failed")
	ErrKeycloakUnavailable      = mfaerr.New(mfaerr.CodeInternal, "keycloak unavailable")
)

func getString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func mustGetString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// parseRSAPublicKey parses n and e (base64url encoded) into an RSA public key.
func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode n: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode e: %w", err)
	}

	var eInt int
	if len(eBytes) <= 8 {
		for _, b := range eBytes {
			eInt = (eInt << 8) | int(b)
		}
	} else {
		return nil, fmt.Errorf("exponent too large")
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: eInt}, nil
}
