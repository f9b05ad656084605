package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"restbench/internal/model"
)

const (
	credentialsFile = "credentials.json"

	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// Provider exposes the current identity and bearer credential. The login and
// signup flows that mint the token live outside the workbench; the provider
// only reports what it was given.
type Provider interface {
	// Current returns the signed-in user, or nil when no session is present.
	Current() *model.User

	// Token returns the bearer credential, or "" when no session is present.
	Token() string

	// Invalidate drops the session, e.g. after the backend rejects the
	// credential with a 401.
	Invalidate()
}

type credentials struct {
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

// FileProvider reads credentials from RESTBENCH_TOKEN/RESTBENCH_EMAIL or,
// failing that, from a credentials file under the user's home directory.
type FileProvider struct {
	dir    string
	mu     sync.Mutex
	creds  *credentials
	loaded bool
}

// NewFileProvider creates a provider rooted at ~/.restbench.
func NewFileProvider() (*FileProvider, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(homeDir, ".restbench")
	if err := os.MkdirAll(dir, secureDirMode); err != nil {
		return nil, err
	}
	return &FileProvider{dir: dir}, nil
}

// NewFileProviderAt creates a provider rooted at an explicit directory.
func NewFileProviderAt(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

func (p *FileProvider) path() string {
	return filepath.Join(p.dir, credentialsFile)
}

// Current returns the signed-in user, or nil when no session is present.
func (p *FileProvider) Current() *model.User {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds := p.loadLocked()
	if creds == nil {
		return nil
	}
	return &model.User{Email: creds.Email}
}

// Token returns the bearer credential, or "" when no session is present.
func (p *FileProvider) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds := p.loadLocked()
	if creds == nil {
		return ""
	}
	return creds.AccessToken
}

// Save stores credentials on disk with owner-only permissions.
func (p *FileProvider) Save(email, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds := credentials{Email: email, AccessToken: token}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, secureDirMode); err != nil {
		return err
	}
	if err := os.WriteFile(p.path(), data, secureFileMode); err != nil {
		return err
	}

	p.creds = &creds
	p.loaded = true
	return nil
}

// Clear removes stored credentials.
func (p *FileProvider) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.creds = nil
	p.loaded = true

	err := os.Remove(p.path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Invalidate drops the session after the backend rejected the credential.
// Stored credentials are removed as well so the next invocation starts
// signed out, mirroring an auto sign-out on 401.
func (p *FileProvider) Invalidate() {
	_ = p.Clear()
}

func (p *FileProvider) loadLocked() *credentials {
	if p.loaded {
		return p.creds
	}
	p.loaded = true

	if token := os.Getenv("RESTBENCH_TOKEN"); token != "" {
		p.creds = &credentials{
			Email:       os.Getenv("RESTBENCH_EMAIL"),
			AccessToken: token,
		}
		return p.creds
	}

	data, err := os.ReadFile(p.path())
	if err != nil {
		return nil
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil || creds.AccessToken == "" {
		return nil
	}
	p.creds = &creds
	return p.creds
}
