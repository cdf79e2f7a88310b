package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/besofuls/EVTrade/internal/models"
)

// Storage keys, matching the browser client's localStorage layout. "user" is
// a legacy duplicate of "userData" that older views still read.
const (
	KeyAuthToken  = "authToken"
	KeyTokenType  = "tokenType"
	KeyUserData   = "userData"
	KeyUser       = "user"
	KeyIsLoggedIn = "isLoggedIn"
	KeyUserID     = "userID"
	KeyUsername   = "username"
	KeyRole       = "role"
	KeyRoleID     = "roleId"
	KeyRoleName   = "roleName"
)

// AllKeys lists every persisted session key. Clear must remove all of them.
var AllKeys = []string{
	KeyAuthToken, KeyTokenType, KeyUserData, KeyUser, KeyIsLoggedIn,
	KeyUserID, KeyUsername, KeyRole, KeyRoleID, KeyRoleName,
}

// UserData is the decoded "userData" record.
type UserData struct {
	ID       int64    `json:"id"`
	UserID   int64    `json:"userID"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// State is the session lifecycle state.
type State int

const (
	Anonymous State = iota
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "anonymous"
	}
}

// Snapshot is an immutable view of the session handed to subscribers.
type Snapshot struct {
	State     State
	Token     string
	TokenType string
	User      *UserData
	Roles     models.RoleSet
}

// Store persists session key/values to a JSON file and notifies subscribers
// on every mutation. A background poller re-reads the file so writes from
// other processes are observed within one poll interval.
type Store struct {
	path         string
	pollInterval time.Duration

	mu      sync.RWMutex
	values  map[string]string
	lastMod time.Time
	subs    map[int]chan Snapshot
	nextSub int

	stop     chan struct{}
	stopOnce sync.Once
}

// Open loads the session file and starts the change poller. A missing or
// corrupt file is treated as an absent session, not an error.
func Open(path string, pollInterval time.Duration) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	s := &Store{
		path:         path,
		pollInterval: pollInterval,
		values:       map[string]string{},
		subs:         map[int]chan Snapshot{},
		stop:         make(chan struct{}),
	}
	s.reloadLocked()

	if pollInterval > 0 {
		go s.poll()
	}
	return s, nil
}

// Login persists a successful authentication response under every storage
// key and notifies subscribers.
func (s *Store) Login(resp *models.LoginResponse) error {
	if resp == nil || resp.Token == "" {
		return fmt.Errorf("login response carries no token")
	}

	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "Bearer "
	}

	roles := []string{}
	if resp.Role != "" {
		roles = append(roles, strings.ToUpper(resp.Role))
	}
	data := UserData{
		ID:       resp.UserID,
		UserID:   resp.UserID,
		Username: resp.Username,
		Email:    resp.Email,
		Roles:    roles,
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode user data: %w", err)
	}

	s.mu.Lock()
	s.values = map[string]string{
		KeyAuthToken:  resp.Token,
		KeyTokenType:  tokenType,
		KeyUserData:   string(encoded),
		KeyUser:       string(encoded),
		KeyIsLoggedIn: "true",
		KeyUserID:     strconv.FormatInt(resp.UserID, 10),
		KeyUsername:   resp.Username,
		KeyRole:       strconv.Itoa(models.RoleID(resp.Role)),
		KeyRoleID:     strconv.Itoa(models.RoleID(resp.Role)),
		KeyRoleName:   resp.Role,
	}
	err = s.persistLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return err
}

// Clear removes every persisted session key. It always clears, even when the
// file write fails, so callers can rely on the in-memory state being gone.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.values = map[string]string{}
	err := s.persistLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return err
}

// Get returns the raw value stored under key.
func (s *Store) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set stores a single raw value. Used by legacy paths that write individual
// keys rather than a whole login payload.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	err := s.persistLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return err
}

// Token returns the stored auth token, empty when anonymous.
func (s *Store) Token() string { return s.Get(KeyAuthToken) }

// User returns the decoded user record, nil when the stored payload is
// absent or fails to parse (a corrupt payload means no session).
func (s *Store) User() *UserData {
	raw := s.Get(KeyUserData)
	if raw == "" {
		return nil
	}
	var data UserData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	return &data
}

// Roles returns the normalized role set for the current user.
func (s *Store) Roles() models.RoleSet {
	user := s.User()
	if user == nil {
		return models.RoleSet{}
	}
	return models.NewRoleSet(user.Roles...)
}

// Authenticated reports whether a usable session is present: token and user
// data stored, token not expired.
func (s *Store) Authenticated() bool {
	return s.Current().State == Authenticated
}

// Current returns a snapshot of the session state.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers a listener for session changes. The returned cancel
// function must be called to release the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close stops the change poller. Subscriptions stay valid until cancelled.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Reload re-reads the session file immediately, bypassing the poller.
func (s *Store) Reload() {
	s.mu.Lock()
	changed := s.reloadLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Token:     s.values[KeyAuthToken],
		TokenType: s.values[KeyTokenType],
	}
	if raw := s.values[KeyUserData]; raw != "" {
		var data UserData
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			snap.User = &data
		}
	}
	switch {
	case snap.Token == "" || snap.User == nil:
		snap.State = Anonymous
	case TokenExpired(snap.Token, time.Now()):
		snap.State = Expired
	default:
		snap.State = Authenticated
	}
	if snap.User != nil {
		snap.Roles = models.NewRoleSet(snap.User.Roles...)
	} else {
		snap.Roles = models.RoleSet{}
	}
	return snap
}

// persistLocked writes the current values atomically via a temp file rename.
func (s *Store) persistLocked() error {
	encoded, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		s.lastMod = info.ModTime()
	}
	return nil
}

// reloadLocked reads the session file into memory. Parse failures reset to
// an empty session. Returns true when the values changed.
func (s *Store) reloadLocked() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		changed := len(s.values) != 0
		s.values = map[string]string{}
		s.lastMod = time.Time{}
		return changed
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	s.lastMod = info.ModTime()

	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		// Corrupt session file: treat as no session.
		changed := len(s.values) != 0
		s.values = map[string]string{}
		return changed
	}

	if equalValues(s.values, values) {
		return false
	}
	s.values = values
	return true
}

// poll watches the session file for out-of-process writes, the same coarse
// fallback the browser client used alongside storage events.
func (s *Store) poll() {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			info, err := os.Stat(s.path)
			stale := err != nil && len(s.values) != 0 ||
				err == nil && info.ModTime().After(s.lastMod)
			changed := false
			if stale {
				changed = s.reloadLocked()
			}
			snap := s.snapshotLocked()
			s.mu.Unlock()

			if changed {
				s.notify(snap)
			}
		}
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; it will catch up on the next change.
		}
	}
}

func equalValues(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
