package auth

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/raine/facegrade/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = 30 * 24 * time.Hour

// Identity is the current signed-in user. Persistence scoping uses Identity.ID.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session pairs an access token with the identity it was issued for.
type Session struct {
	AccessToken string    `json:"access_token"`
	Identity    Identity  `json:"identity"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AccountStore is the subset of the persistent store the Identity Provider needs.
type AccountStore interface {
	CreateAccount(account *storage.Account) error
	FindAccountByEmail(email string) (*storage.Account, error)
}

// Service is a local Identity Provider: accounts with bcrypt password
// hashes, JWT access tokens, and a session persisted encrypted at rest.
// Signed-out state is represented by an absent identity, not an error.
type Service struct {
	store         AccountStore
	signingKey    []byte
	encryptionKey []byte
	sessionPath   string

	mu      sync.Mutex
	current *Session
	subs    map[int]func(*Identity)
	nextSub int
}

// NewService creates the Identity Provider and restores any persisted
// session. An unreadable, undecryptable or expired session file just means
// signed out.
func NewService(store AccountStore, passphrase, sessionPath string) *Service {
	s := &Service{
		store:         store,
		signingKey:    []byte(passphrase),
		encryptionKey: deriveKey(passphrase),
		sessionPath:   sessionPath,
		subs:          make(map[int]func(*Identity)),
	}
	s.restoreSession()
	return s
}

// SignUp registers a new account and signs it in.
func (s *Service) SignUp(email, password string) (*Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	existing, err := s.store.FindAccountByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &storage.Account{
		ID:        uuid.NewString(),
		Email:     email,
		PassHash:  hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAccount(account); err != nil {
		return nil, err
	}

	return s.startSession(account)
}

// SignIn authenticates an existing account.
func (s *Service) SignIn(email, password string) (*Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	account, err := s.store.FindAccountByEmail(email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(account.PassHash, []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}

	return s.startSession(account)
}

// SignOut ends the current session. Signing out while signed out is a no-op.
func (s *Service) SignOut() error {
	s.mu.Lock()
	wasSignedIn := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if err := os.Remove(s.sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	if wasSignedIn {
		s.notify(nil)
	}
	return nil
}

// CurrentIdentity returns the signed-in identity, or nil when signed out.
func (s *Service) CurrentIdentity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	identity := s.current.Identity
	return &identity
}

// CurrentSession returns the active session, or nil when signed out.
func (s *Service) CurrentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	session := *s.current
	return &session
}

// OnIdentityChange registers a callback fired with the new identity (nil on
// sign-out) after every identity change. The returned function unsubscribes.
func (s *Service) OnIdentityChange(cb func(*Identity)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) notify(identity *Identity) {
	s.mu.Lock()
	cbs := make([]func(*Identity), 0, len(s.subs))
	for _, cb := range s.subs {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(identity)
	}
}

func (s *Service) startSession(account *storage.Account) (*Identity, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(sessionTTL)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}).SignedString(s.signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	session := &Session{
		AccessToken: token,
		Identity:    Identity{ID: account.ID, Email: account.Email, CreatedAt: account.CreatedAt},
		ExpiresAt:   expiresAt,
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	if err := s.persistSession(session); err != nil {
		log.Warn().Err(err).Msg("failed to persist session")
	}

	identity := session.Identity
	s.notify(&identity)
	return &identity, nil
}

func (s *Service) persistSession(session *Session) error {
	sealed, err := sealSession(session, s.encryptionKey)
	if err != nil {
		return err
	}
	return os.WriteFile(s.sessionPath, []byte(sealed), 0600)
}

func (s *Service) restoreSession() {
	raw, err := os.ReadFile(s.sessionPath)
	if err != nil {
		return
	}
	session, err := openSession(string(raw), s.encryptionKey)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable persisted session")
		return
	}

	// Re-validate the token so an expired or tampered session means signed out
	_, err = jwt.Parse(session.AccessToken, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		log.Info().Err(err).Msg("persisted session is no longer valid")
		return
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
}
