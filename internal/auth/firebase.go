package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"

	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/pkg/logger"
)

// Default Firebase REST hosts.
const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL    = "https://securetoken.googleapis.com/v1"
)

// tokens this close to expiry are refreshed even when not forced
const expirySkew = time.Minute

// FirebaseConfig configures FirebaseProvider.
type FirebaseConfig struct {
	APIKey      string
	IdentityURL string
	TokenURL    string
	HTTPClient  *http.Client
	Logger      *logger.Logger
	Now         func() time.Time
}

type firebaseAccount struct {
	principal    Principal
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

// FirebaseProvider implements IdentityProvider over the Firebase Auth REST API.
type FirebaseProvider struct {
	apiKey      string
	identityURL string
	tokenURL    string
	httpClient  *http.Client
	log         *logger.Logger
	now         func() time.Time

	mu        sync.Mutex
	account   *firebaseAccount
	listeners map[int]func(*Principal)
	nextID    int
}

// NewFirebaseProvider creates a provider.
func NewFirebaseProvider(cfg FirebaseConfig) (*FirebaseProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("firebase API key is required")
	}
	p := &FirebaseProvider{
		apiKey:      cfg.APIKey,
		identityURL: strings.TrimSuffix(firstNonEmpty(cfg.IdentityURL, DefaultIdentityURL), "/"),
		tokenURL:    strings.TrimSuffix(firstNonEmpty(cfg.TokenURL, DefaultTokenURL), "/"),
		httpClient:  cfg.HTTPClient,
		log:         cfg.Logger,
		now:         cfg.Now,
		listeners:   make(map[int]func(*Principal)),
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if p.log == nil {
		p.log = logger.NewDefault("firebase")
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// ============================================================================
// IdentityProvider
// ============================================================================

// SignIn exchanges email and password for tokens.
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	return p.passwordAuth(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp creates an email/password account and signs it in.
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*Principal, error) {
	return p.passwordAuth(ctx, "accounts:signUp", email, password)
}

// SignOut forgets the local tokens. Firebase has no server-side sign-out.
func (p *FirebaseProvider) SignOut(context.Context) error {
	p.setAccount(nil)
	return nil
}

// SendPasswordReset triggers a password reset email.
func (p *FirebaseProvider) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"requestType": "PASSWORD_RESET", "email": email}
	_, err := p.postJSON(ctx, p.identityURL+"/accounts:sendOobCode", body)
	return err
}

// IDToken returns the cached token while valid, refreshing otherwise.
func (p *FirebaseProvider) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	acct := p.account
	p.mu.Unlock()
	if acct == nil {
		return "", ErrNoPrincipal
	}
	if !forceRefresh && p.now().Add(expirySkew).Before(acct.expiresAt) {
		return acct.idToken, nil
	}
	return p.refresh(ctx, acct)
}

// CurrentPrincipal returns the signed-in principal or nil.
func (p *FirebaseProvider) CurrentPrincipal() *Principal {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.account == nil {
		return nil
	}
	principal := p.account.principal
	return &principal
}

// OnStateChange registers fn and immediately reports the current state.
func (p *FirebaseProvider) OnStateChange(fn func(*Principal)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	p.mu.Unlock()

	fn(p.CurrentPrincipal())

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// ============================================================================
// REST calls
// ============================================================================

func (p *FirebaseProvider) passwordAuth(ctx context.Context, method, email, password string) (*Principal, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	data, err := p.postJSON(ctx, p.identityURL+"/"+method, body)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(data)
	acct := &firebaseAccount{
		principal: Principal{
			UID:   res.Get("localId").String(),
			Email: res.Get("email").String(),
		},
		idToken:      res.Get("idToken").String(),
		refreshToken: res.Get("refreshToken").String(),
	}
	if acct.principal.UID == "" || acct.idToken == "" {
		return nil, apierr.New(apierr.KindDecoding, fmt.Errorf("%s: missing localId or idToken", method))
	}
	acct.expiresAt = p.expiry(acct.idToken, res.Get("expiresIn").String())

	p.setAccount(acct)
	p.log.WithField("uid", acct.principal.UID).Debug("firebase authentication succeeded")
	principal := acct.principal
	return &principal, nil
}

func (p *FirebaseProvider) refresh(ctx context.Context, acct *firebaseAccount) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", acct.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(p.tokenURL+"/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return "", apierr.New(apierr.KindInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	data, err := p.do(req)
	if err != nil {
		if isTerminal(err) {
			p.log.WithError(err).Warn("refresh token rejected; signing out")
			p.setAccount(nil)
		}
		return "", err
	}

	res := gjson.ParseBytes(data)
	idToken := res.Get("id_token").String()
	if idToken == "" {
		return "", apierr.New(apierr.KindDecoding, fmt.Errorf("token refresh: missing id_token"))
	}

	next := *acct
	next.idToken = idToken
	if rt := res.Get("refresh_token").String(); rt != "" {
		next.refreshToken = rt
	}
	next.expiresAt = p.expiry(idToken, res.Get("expires_in").String())

	p.mu.Lock()
	if p.account != nil && p.account.principal.UID == acct.principal.UID {
		p.account = &next
	}
	p.mu.Unlock()
	return idToken, nil
}

func (p *FirebaseProvider) postJSON(ctx context.Context, rawURL string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode firebase request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(rawURL), bytes.NewReader(payload))
	if err != nil {
		return nil, apierr.New(apierr.KindInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req)
}

func (p *FirebaseProvider) do(req *http.Request) ([]byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apierr.FromTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apierr.FromTransport(err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return data, nil
	}
	if code := gjson.GetBytes(data, "error.message").String(); code != "" {
		return nil, providerError(code)
	}
	return nil, apierr.FromStatus(resp.StatusCode)
}

func (p *FirebaseProvider) endpoint(raw string) string {
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "key=" + url.QueryEscape(p.apiKey)
}

// expiry prefers the token's exp claim and falls back to expiresIn seconds.
func (p *FirebaseProvider) expiry(idToken, expiresIn string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil && secs > 0 {
		return p.now().Add(time.Duration(secs) * time.Second)
	}
	return p.now()
}

func (p *FirebaseProvider) setAccount(acct *firebaseAccount) {
	p.mu.Lock()
	prev := p.account
	p.account = acct
	listeners := make([]func(*Principal), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	if prev == nil && acct == nil {
		return
	}
	if prev != nil && acct != nil && prev.principal.UID == acct.principal.UID {
		return
	}
	var principal *Principal
	if acct != nil {
		cp := acct.principal
		principal = &cp
	}
	for _, fn := range listeners {
		fn(principal)
	}
}

// providerError maps a Firebase error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func providerError(message string) *ProviderError {
	code := strings.TrimSpace(message)
	if i := strings.IndexAny(code, " :"); i > 0 {
		code = code[:i]
	}
	var err error
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		err = ErrInvalidCredentials
	case "EMAIL_EXISTS":
		err = ErrEmailExists
	case "WEAK_PASSWORD":
		err = ErrWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		err = ErrInvalidEmail
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		err = ErrTooManyAttempts
	case "USER_DISABLED":
		err = ErrUserDisabled
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_NOT_FOUND":
		err = ErrTokenExpired
	}
	return &ProviderError{Code: code, Err: err}
}

func isTerminal(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrUserDisabled)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
