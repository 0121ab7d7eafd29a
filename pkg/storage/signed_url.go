package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// InviteScope is the link scope for stored calendar invites.
const InviteScope = "invite"

var (
	ErrTokenMalformed   = errors.New("malformed link token")
	ErrTokenSignature   = errors.New("link token signature mismatch")
	ErrTokenExpired     = errors.New("link token expired")
	ErrPathNotGrantable = errors.New("path cannot be granted by this link scope")
)

// Grant is what a valid link token entitles its holder to download.
type Grant struct {
	OwnerID   string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC link tokens for single stored files. A token is bound to the
// signer's scope and only covers files stored under "<owner>/" with the scope's extension.
type SignedURLSigner struct {
	secret []byte
	scope  string
	ext    string
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer for scope, granting files ending in ext.
func NewSignedURLSigner(secret, scope, ext string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		scope:  scope,
		ext:    ext,
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewInviteLinkSigner signs download links for .ics invites.
func NewInviteLinkSigner(secret string, ttl time.Duration) *SignedURLSigner {
	return NewSignedURLSigner(secret, InviteScope, ".ics", ttl)
}

// Generate returns a token granting relPath to ownerID until the returned expiry.
func (s *SignedURLSigner) Generate(ownerID, relPath string) (string, time.Time, error) {
	if ownerID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("ownerID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	if err := s.grantable(ownerID, relPath); err != nil {
		return "", time.Time{}, err
	}

	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	owner := base64.RawURLEncoding.EncodeToString([]byte(ownerID))
	file := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{owner, exp, file, s.sign(owner, exp, file)}, "."), expiresAt, nil
}

// Parse validates token and returns its grant. When allowExpired is true the expiry check is skipped.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (Grant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Grant{}, ErrTokenMalformed
	}
	owner, exp, file, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(owner, exp, file)), []byte(signature)) {
		return Grant{}, ErrTokenSignature
	}
	ownerID, err := base64.RawURLEncoding.DecodeString(owner)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: owner: %v", ErrTokenMalformed, err)
	}
	relPath, err := base64.RawURLEncoding.DecodeString(file)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: path: %v", ErrTokenMalformed, err)
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: expiry: %v", ErrTokenMalformed, err)
	}

	grant := Grant{OwnerID: string(ownerID), Path: string(relPath), ExpiresAt: time.Unix(expUnix, 0)}
	if err := s.grantable(grant.OwnerID, grant.Path); err != nil {
		return Grant{}, err
	}
	if !allowExpired && !s.now().Before(grant.ExpiresAt) {
		return Grant{}, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) sign(owner, exp, file string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join([]string{s.scope, owner, exp, file}, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *SignedURLSigner) grantable(ownerID, relPath string) error {
	if path.Clean(relPath) != relPath || !strings.HasPrefix(relPath, ownerID+"/") {
		return fmt.Errorf("%w: %q is not stored under %q", ErrPathNotGrantable, relPath, ownerID)
	}
	if s.ext != "" && path.Ext(relPath) != s.ext {
		return fmt.Errorf("%w: %q is not a %s file", ErrPathNotGrantable, relPath, s.ext)
	}
	return nil
}
