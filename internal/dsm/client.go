package dsm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/handiism/dstask/internal/dsm/dto"
	"github.com/handiism/dstask/internal/model"
)

const (
	apiAuth         = "SYNO.API.Auth"
	apiTask         = "SYNO.DownloadStation2.Task"
	apiTaskComplete = "SYNO.DownloadStation2.Task.Complete"

	entryPath   = "/webapi/entry.cgi"
	sessionName = "DownloadStation"
)

// Transport is the raw HTTP collaborator. internal/http.Client satisfies it.
type Transport interface {
	PostForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error)
	PostFile(ctx context.Context, endpoint string, fields url.Values, fileField, path string, onProgress func(sent, total int64)) ([]byte, error)
}

// Client issues Web API calls against one host.
//
// The session id is the only state; it is safe for concurrent use.
//
// Example usage:
//
//	client := dsm.NewClient(baseURL, http.NewClient(http.Options{}))
//	if err := client.Login(ctx, model.Identity{Account: "alice", Secret: pw}); err != nil {
//	    return err
//	}
//	tasks, err := client.ListTasks(ctx)
type Client struct {
	transport Transport
	endpoint  string

	mu    sync.RWMutex
	token string
}

// NewClient creates a Client for the service at base.
func NewClient(base *url.URL, transport Transport) *Client {
	return &Client{
		transport: transport,
		endpoint:  strings.TrimRight(base.String(), "/") + entryPath,
	}
}

// Token returns the current session id.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the current session id, e.g. with a cached one.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken forgets the current session id.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Login authenticates and stores the returned session id.
func (c *Client) Login(ctx context.Context, id model.Identity) (string, error) {
	if !id.Complete() {
		return "", ErrMissingCredentials
	}

	form := url.Values{
		"api":     {apiAuth},
		"version": {"6"},
		"method":  {"login"},
		"account": {id.Account},
		"passwd":  {id.Secret},
		"session": {sessionName},
		"format":  {"sid"},
	}
	if code := strings.TrimSpace(id.OTPCode); code != "" {
		form.Set("otp_code", code)
	}

	var out dto.JSONLogin
	if err := c.post(ctx, apiAuth, "login", form, &out); err != nil {
		return "", err
	}
	if out.SID == "" {
		return "", fmt.Errorf("%s login: %w: empty sid", apiAuth, ErrMalformedResponse)
	}

	c.SetToken(out.SID)
	return out.SID, nil
}

// Logout ends the current session on the server and forgets the session id.
func (c *Client) Logout(ctx context.Context) error {
	form := url.Values{"session": {sessionName}}
	err := c.call(ctx, apiAuth, 6, "logout", form, nil)
	c.ClearToken()
	return err
}

// ListTasks returns every task visible to the logged-in account.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	form := url.Values{
		"offset":     {"0"},
		"limit":      {"-1"},
		"additional": {`["detail","transfer"]`},
	}
	var out dto.JSONTaskList
	if err := c.call(ctx, apiTask, 2, "list", form, &out); err != nil {
		return nil, err
	}
	return dto.ToTasks(out.Tasks), nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id string) (model.Task, error) {
	form := url.Values{
		"id":         {jsonList(id)},
		"additional": {`["detail","transfer"]`},
	}
	var out dto.JSONTaskGet
	if err := c.call(ctx, apiTask, 2, "get", form, &out); err != nil {
		return model.Task{}, err
	}
	if len(out.Tasks) == 0 {
		return model.Task{}, &APIError{API: apiTask, Method: "get", Code: CodeTaskInvalidID}
	}
	return out.Tasks[0].ToTask(), nil
}

// CreateFromURL creates tasks for one or more URLs or magnet links.
// An empty destination lets the service use its default.
func (c *Client) CreateFromURL(ctx context.Context, urls []string, destination string) ([]string, error) {
	form := createFields("url", destination)
	form.Set("url", jsonList(urls...))

	var out dto.JSONCreate
	if err := c.call(ctx, apiTask, 2, "create", form, &out); err != nil {
		return nil, err
	}
	return out.TaskIDs, nil
}

// CreateFromFile uploads a .torrent or .nzb file and creates a task for it.
// onProgress, if not nil, receives the bytes uploaded so far.
func (c *Client) CreateFromFile(ctx context.Context, path, destination string, onProgress func(sent, total int64)) ([]string, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrUnauthorized
	}

	fields := createFields("file", destination)
	fields.Set("api", apiTask)
	fields.Set("version", "2")
	fields.Set("method", "create")
	fields.Set("file", `["torrent"]`)
	fields.Set("_sid", token)

	body, err := c.transport.PostFile(ctx, c.endpoint, fields, "torrent", path, onProgress)
	if err != nil {
		return nil, fmt.Errorf("%s create: %w", apiTask, err)
	}

	var out dto.JSONCreate
	if err := decode(body, apiTask, "create", &out); err != nil {
		return nil, err
	}
	return out.TaskIDs, nil
}

// Pause pauses the given tasks.
func (c *Client) Pause(ctx context.Context, ids ...string) error {
	return c.call(ctx, apiTask, 2, "pause", url.Values{"id": {jsonList(ids...)}}, nil)
}

// Resume resumes the given tasks.
func (c *Client) Resume(ctx context.Context, ids ...string) error {
	return c.call(ctx, apiTask, 2, "resume", url.Values{"id": {jsonList(ids...)}}, nil)
}

// Complete marks a task as complete, stopping seeding and moving its files.
func (c *Client) Complete(ctx context.Context, id string) error {
	return c.call(ctx, apiTaskComplete, 1, "start", url.Values{"id": {jsonString(id)}}, nil)
}

// Delete removes tasks. With force the downloaded data is moved to the
// destination even if unfinished.
func (c *Client) Delete(ctx context.Context, ids []string, force bool) error {
	form := url.Values{
		"id":             {jsonList(ids...)},
		"force_complete": {strconv.FormatBool(force)},
	}
	return c.call(ctx, apiTask, 2, "delete", form, nil)
}

// ClearCompleted removes every finished task from the list.
func (c *Client) ClearCompleted(ctx context.Context) error {
	return c.call(ctx, apiTask, 2, "delete_condition", url.Values{"status": {"5"}}, nil)
}

// call issues an authenticated request.
func (c *Client) call(ctx context.Context, api string, version int, method string, form url.Values, out any) error {
	token := c.Token()
	if token == "" {
		return ErrUnauthorized
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("api", api)
	form.Set("version", strconv.Itoa(version))
	form.Set("method", method)
	form.Set("_sid", token)
	return c.post(ctx, api, method, form, out)
}

func (c *Client) post(ctx context.Context, api, method string, form url.Values, out any) error {
	body, err := c.transport.PostForm(ctx, c.endpoint, form)
	if err != nil {
		return fmt.Errorf("%s %s: %w", api, method, err)
	}
	return decode(body, api, method, out)
}

func decode(body []byte, api, method string, out any) error {
	var resp dto.JSONResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%s %s: %w: %v", api, method, ErrMalformedResponse, err)
	}
	if !resp.Success {
		code := CodeUnknown
		if resp.Error != nil {
			code = resp.Error.Code
		}
		return &APIError{API: api, Method: method, Code: code}
	}
	if out == nil || len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", api, method, ErrMalformedResponse, err)
	}
	return nil
}

func createFields(kind, destination string) url.Values {
	form := url.Values{
		"type":        {jsonString(kind)},
		"create_list": {"false"},
	}
	if d := strings.TrimSpace(destination); d != "" {
		form.Set("destination", jsonString(d))
	}
	return form
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsonList(items ...string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}
