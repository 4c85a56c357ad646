package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// ErrInvalidToken means the session token did not resolve to an identity.
var ErrInvalidToken = errors.New("invalid session token")

// Identity is what the hosted auth service knows about a session: the stable
// auth user id, the verified email and whatever profile names it carries.
type Identity struct {
	AuthUserID string
	Email      string
	FirstName  string
	LastName   string
}

// IdentityClient resolves a bearer session token to an Identity.
type IdentityClient interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// JWTIdentityClient verifies the auth service's HS256 session tokens locally
// with the shared secret, avoiding a network hop per request.
type JWTIdentityClient struct {
	secret []byte
	logger zerolog.Logger
}

func NewJWTIdentityClient(secret string, logger zerolog.Logger) *JWTIdentityClient {
	return &JWTIdentityClient{
		secret: []byte(secret),
		logger: logger,
	}
}

type sessionClaims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

func (c *JWTIdentityClient) Resolve(_ context.Context, token string) (*Identity, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		c.logger.Debug().Err(err).Msg("Session token verification failed")
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		AuthUserID: claims.Subject,
		Email:      claims.Email,
		FirstName:  claims.UserMetadata.FirstName,
		LastName:   claims.UserMetadata.LastName,
	}, nil
}

// RemoteIdentityClient asks the auth service's userinfo endpoint over HTTP,
// with the same retry shape as the other integration clients.
type RemoteIdentityClient struct {
	userinfoURL string
	retryCount  int
	retryDelay  time.Duration
	client      *http.Client
	logger      zerolog.Logger
}

func NewRemoteIdentityClient(userinfoURL string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) *RemoteIdentityClient {
	return &RemoteIdentityClient{
		userinfoURL: userinfoURL,
		retryCount:  retryCount,
		retryDelay:  retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type userinfoResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"user_metadata"`
}

func (c *RemoteIdentityClient) Resolve(ctx context.Context, token string) (*Identity, error) {
	var resp *http.Response
	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Msg("Retrying userinfo request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.userinfoURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, lastErr = c.client.Do(req)
		if lastErr == nil && resp.StatusCode < http.StatusInternalServerError {
			break
		}
		// Keep the last response open so its body can be reported below.
		if resp != nil && i < c.retryCount {
			resp.Body.Close()
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to reach identity service after %d attempts: %w", c.retryCount+1, lastErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("identity service returned status %d: %s", resp.StatusCode, string(body))
	}

	var info userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	if info.ID == "" || info.Email == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		AuthUserID: info.ID,
		Email:      info.Email,
		FirstName:  info.UserMetadata.FirstName,
		LastName:   info.UserMetadata.LastName,
	}, nil
}
