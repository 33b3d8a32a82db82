package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kbukum/gotasks/httpclient"
	"github.com/kbukum/gotasks/logger"
)

// ErrSessionExpired is returned, wrapped in an *APIError, when an
// authenticated call was answered with 401 and the session was cleared.
var ErrSessionExpired = errors.New("client: session expired, sign in again")

// Config configures the API client.
type Config struct {
	IdentityURL string        `yaml:"identity_url" mapstructure:"identity_url"`
	TaskURL     string        `yaml:"task_url" mapstructure:"task_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	TokenFile   string        `yaml:"token_file" mapstructure:"token_file"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.IdentityURL == "" {
		c.IdentityURL = "http://localhost:8081"
	}
	if c.TaskURL == "" {
		c.TaskURL = "http://localhost:8082"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// APIError is a failed call. Message is the server's "error" text as sent.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// API calls the identity and task services on behalf of the stored session.
type API struct {
	identity *httpclient.Client
	tasks    *httpclient.Client
	store    *TokenStore
	log      *logger.Logger
}

// NewAPI builds a client whose requests carry the token held by store.
func NewAPI(cfg Config, store *TokenStore, log *logger.Logger) (*API, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	transport := NewBearerTransport(store, nil)

	identity, err := httpclient.New(httpclient.Config{BaseURL: cfg.IdentityURL, Timeout: cfg.Timeout, Transport: transport})
	if err != nil {
		return nil, err
	}
	tasks, err := httpclient.New(httpclient.Config{BaseURL: cfg.TaskURL, Timeout: cfg.Timeout, Transport: transport})
	if err != nil {
		return nil, err
	}
	return &API{identity: identity, tasks: tasks, store: store, log: log.WithComponent("client")}, nil
}

// Store returns the token store backing the client.
func (a *API) Store() *TokenStore { return a.store }

// Login signs in and saves the session.
func (a *API) Login(ctx context.Context, username, password string) (*Session, error) {
	resp, err := httpclient.Post[loginResponse](a.identity, ctx, "/auth/login",
		map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, a.fail(err, false)
	}
	if err := a.store.Save(resp.Data.Token, resp.Data.UserID, resp.Data.Username); err != nil {
		return nil, err
	}
	sess, _ := a.store.Current()
	a.log.Debug("Signed in", map[string]interface{}{logger.FieldUserID: sess.UserID})
	return &sess, nil
}

// Logout forgets the session. Tokens are stateless, so nothing is sent.
func (a *API) Logout() error {
	return a.store.Clear()
}

// Register creates an account. It does not sign in.
func (a *API) Register(ctx context.Context, username, email, password string) (*User, error) {
	resp, err := httpclient.Post[User](a.identity, ctx, "/auth/register",
		map[string]string{"username": username, "email": email, "password": password})
	if err != nil {
		return nil, a.fail(err, false)
	}
	return &resp.Data, nil
}

// UsernameAvailable asks whether username is free.
func (a *API) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	resp, err := httpclient.Get[availability](a.identity, ctx, "/auth/check-username",
		httpclient.WithQueryParam("username", username))
	if err != nil {
		return false, a.fail(err, false)
	}
	return resp.Data.Available, nil
}

// EmailAvailable asks whether email is free.
func (a *API) EmailAvailable(ctx context.Context, email string) (bool, error) {
	resp, err := httpclient.Get[availability](a.identity, ctx, "/auth/check-email",
		httpclient.WithQueryParam("email", email))
	if err != nil {
		return false, a.fail(err, false)
	}
	return resp.Data.Available, nil
}

// Me returns the signed-in user.
func (a *API) Me(ctx context.Context) (*User, error) {
	resp, err := httpclient.Get[User](a.identity, ctx, "/users/me")
	if err != nil {
		return nil, a.fail(err, true)
	}
	return &resp.Data, nil
}

// CreateTask creates a task owned by the signed-in user.
func (a *API) CreateTask(ctx context.Context, in NewTask) (*Task, error) {
	resp, err := httpclient.Post[Task](a.tasks, ctx, "/tasks", in)
	if err != nil {
		return nil, a.fail(err, true)
	}
	return &resp.Data, nil
}

// ListTasks lists the signed-in user's tasks, optionally by status.
func (a *API) ListTasks(ctx context.Context, status string) ([]Task, error) {
	opts := []httpclient.RequestOption{httpclient.WithQueryParam("status", status)}
	if sess, ok := a.store.Current(); ok {
		opts = append(opts, httpclient.WithQueryParam("userId", strconv.FormatInt(sess.UserID, 10)))
	}
	resp, err := httpclient.Get[[]Task](a.tasks, ctx, "/tasks", opts...)
	if err != nil {
		return nil, a.fail(err, true)
	}
	return resp.Data, nil
}

// GetTask fetches one task.
func (a *API) GetTask(ctx context.Context, id int64) (*Task, error) {
	resp, err := httpclient.Get[Task](a.tasks, ctx, taskPath(id))
	if err != nil {
		return nil, a.fail(err, true)
	}
	return &resp.Data, nil
}

// UpdateTask applies a partial update.
func (a *API) UpdateTask(ctx context.Context, id int64, in TaskUpdate) (*Task, error) {
	resp, err := httpclient.Put[Task](a.tasks, ctx, taskPath(id), in)
	if err != nil {
		return nil, a.fail(err, true)
	}
	return &resp.Data, nil
}

// DeleteTask deletes a task.
func (a *API) DeleteTask(ctx context.Context, id int64) error {
	if _, err := httpclient.Delete[struct{}](a.tasks, ctx, taskPath(id)); err != nil {
		return a.fail(err, true)
	}
	return nil
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

// fail converts a transport error to an *APIError. A 401 on an
// authenticated call clears the session.
func (a *API) fail(err error, authenticated bool) error {
	httpErr, ok := httpclient.AsError(err)
	if !ok {
		return &APIError{Message: err.Error(), Err: err}
	}

	apiErr := &APIError{StatusCode: httpErr.StatusCode, Message: httpErr.Message, Err: err}
	var body struct {
		Code string `json:"code"`
	}
	if len(httpErr.Body) > 0 && json.Unmarshal(httpErr.Body, &body) == nil {
		apiErr.Code = body.Code
	}

	if authenticated && httpErr.StatusCode == http.StatusUnauthorized {
		if clearErr := a.store.Clear(); clearErr != nil {
			a.log.Warn("Failed to clear session", logger.ErrorFields("clear_session", clearErr))
		}
		apiErr.Err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return apiErr
}
