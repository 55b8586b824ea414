// Package services – ConfirmationService
//
// One-time confirmation-code sessions. A session stores only the PBKDF2
// hash of the code plus a per-session salt; Validate recomputes the hash
// from the submitted code and compares in constant time. Expired sessions
// are swept by a background job (see SweepExpired).
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"time"

	"golang.org/x/crypto/pbkdf2"
	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/repo"
)

// PBKDF2 parameters for code hashing.
const (
	codeHashIterations = 1000
	codeHashKeyLen     = 64
	codeLength         = 6
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeSender delivers a confirmation code to a user out of band. The real
// delivery channel (mail, SMS) is outside this service; the default
// implementation only logs.
type CodeSender interface {
	SendCode(ctx context.Context, userID int64, code string) error
}

// ConfirmationService issues and validates confirmation-code sessions.
type ConfirmationService struct {
	// DB is the database handle used for session persistence.
	DB *gorm.DB
	// TTL is how long a session stays valid after creation.
	TTL time.Duration
	// Sender delivers codes; nil disables delivery (codes are still issued).
	Sender CodeSender
}

// Session is the caller-visible handle to a created confirmation session.
type Session struct {
	ID        int64 `json:"id"`
	TimeValid int64 `json:"time_valid"` // milliseconds
}

// CreateSession generates a fresh code for userID, stores its hash, and
// hands the code to the configured sender. The plain code is never
// persisted and never returned to the API caller.
func (s *ConfirmationService) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}

	c := &domain.Confirmation{
		UserID:      userID,
		CodeHash:    hashCode(code, salt),
		Salt:        salt,
		TimeValidMs: s.TTL.Milliseconds(),
	}
	if err := repo.CreateConfirmation(ctx, s.DB, c); err != nil {
		return nil, err
	}

	if s.Sender != nil {
		if err := s.Sender.SendCode(ctx, userID, code); err != nil {
			return nil, err
		}
	}
	return &Session{ID: c.ID, TimeValid: c.TimeValidMs}, nil
}

// Validate checks code against the stored session and returns the owning
// user id. The session is consumed on success.
//
// Errors: ErrConfirmationNotFound, ErrConfirmationExpired,
// ErrConfirmationInvalid.
func (s *ConfirmationService) Validate(ctx context.Context, code string, sessionID int64) (int64, error) {
	c, err := repo.GetConfirmation(ctx, s.DB, sessionID)
	if err != nil {
		if isNotFound(err) {
			return 0, ErrConfirmationNotFound
		}
		return 0, err
	}

	if time.Now().After(c.ExpiresAt()) {
		return 0, ErrConfirmationExpired
	}

	sum := hashCode(code, c.Salt)
	if subtle.ConstantTimeCompare([]byte(sum), []byte(c.CodeHash)) != 1 {
		return 0, ErrConfirmationInvalid
	}

	if err := repo.DeleteConfirmation(ctx, s.DB, sessionID); err != nil {
		return 0, err
	}
	return c.UserID, nil
}

// SweepExpired deletes sessions older than TTL and reports how many were
// removed. Intended to be driven by a ticker from main.
func (s *ConfirmationService) SweepExpired(ctx context.Context) (int64, error) {
	return repo.DeleteExpiredConfirmations(ctx, s.DB, time.Now().Add(-s.TTL))
}

func hashCode(code, salt string) string {
	sum := pbkdf2.Key([]byte(code), []byte(salt), codeHashIterations, codeHashKeyLen, sha512.New)
	return hex.EncodeToString(sum)
}

func generateSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func generateCode() (string, error) {
	out := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out), nil
}
