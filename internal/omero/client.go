// SPDX-License-Identifier: GPL-2.0-or-later

package omero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	apiBase = "/api/v0"

	// pageLimit is the page size used when walking collection endpoints.
	pageLimit = 500
)

type (
	// Data is a marshalled OMERO object as returned by the JSON API.
	// Numbers are json.Number so integer ids survive the round trip.
	Data = map[string]any

	// Config carries the connection settings for a Client.
	Config struct {
		// Host is the server name without scheme, e.g. "idr.openmicroscopy.org".
		Host string
		// Port is the web port. 443 selects https, anything else http.
		Port int
		// Username and Password authenticate a new session.
		Username string
		Password string
		// SessionToken reuses an existing session instead of logging in.
		SessionToken string
		// ServerID selects the OMERO.server instance behind the web gateway.
		ServerID int
		// BaseURL overrides the URL derived from Host and Port.
		BaseURL string
	}

	// Client talks to an OMERO server through its JSON API.
	Client struct {
		cfg    Config
		base   string
		http   *http.Client
		token  string
		logger *log.Logger
	}
)

// New creates a Client for the given configuration. Connect must be called
// before any object access.
func New(cfg Config, logger *log.Logger) *Client {
	if cfg.Port == 0 {
		cfg.Port = 443
	}
	if cfg.ServerID == 0 {
		cfg.ServerID = 1
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	base := cfg.BaseURL
	if base == "" {
		scheme := "https"
		hostport := cfg.Host
		switch cfg.Port {
		case 443:
		case 80:
			scheme = "http"
		default:
			hostport = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		}
		base = scheme + "://" + hostport
	}

	jar, _ := cookiejar.New(nil)
	return &Client{
		cfg:  cfg,
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Timeout: 60 * time.Second,
			Jar:     jar,
		},
		logger: logger,
	}
}

// Host returns the server host name, used for subject URI construction.
func (c *Client) Host() string {
	return c.cfg.Host
}

// Connect obtains a CSRF token and, unless a session token was supplied,
// logs in with the configured credentials.
func (c *Client) Connect(ctx context.Context) error {
	var tok struct {
		Data string `json:"data"`
	}
	if err := c.get(ctx, apiBase+"/token/", nil, &tok); err != nil {
		return fmt.Errorf("connect to %s: %w", c.cfg.Host, err)
	}
	c.token = tok.Data

	if c.cfg.SessionToken != "" {
		c.setSessionCookie(c.cfg.SessionToken)
		c.logger.Debug("reusing existing session", "host", c.cfg.Host)
		return nil
	}

	form := url.Values{
		"username": {c.cfg.Username},
		"password": {c.cfg.Password},
		"server":   {strconv.Itoa(c.cfg.ServerID)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+apiBase+"/login/", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", c.token)
	req.Header.Set("Referer", c.base)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login to %s: %w", c.cfg.Host, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("login to %s: %s", c.cfg.Host, res.Status)
	}

	var login struct {
		EventContext struct {
			UserName  string      `json:"userName"`
			SessionID json.Number `json:"sessionId"`
		} `json:"eventContext"`
	}
	if err := json.NewDecoder(res.Body).Decode(&login); err != nil {
		return fmt.Errorf("login to %s: %w", c.cfg.Host, err)
	}
	c.logger.Debug("session opened",
		"host", c.cfg.Host, "user", login.EventContext.UserName)
	return nil
}

// Close ends the server session. Errors are logged, not returned: export
// output has already been written by the time the session is torn down.
func (c *Client) Close(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+apiBase+"/logout/", nil)
	if err != nil {
		return
	}
	req.Header.Set("X-CSRFToken", c.token)
	req.Header.Set("Referer", c.base)
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("logout failed", "err", err)
		return
	}
	res.Body.Close()
}

// Object fetches a single object in its marshalled form.
func (c *Client) Object(ctx context.Context, kind Kind, id int64) (Data, error) {
	path, ok := apiPaths[kind]
	if !ok {
		return nil, &UnknownKindError{Value: string(kind)}
	}

	var out struct {
		Data Data `json:"data"`
	}
	err := c.get(ctx, fmt.Sprintf("%s/m/%s/%d/", apiBase, path, id), nil, &out)
	if err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Kind: kind, ID: id}
		}
		return nil, err
	}
	return out.Data, nil
}

// Datasets lists the datasets of a project.
func (c *Client) Datasets(ctx context.Context, projectID int64) ([]Data, error) {
	return c.collection(ctx, "datasets", url.Values{"project": {formatID(projectID)}})
}

// Images lists the images of a dataset.
func (c *Client) Images(ctx context.Context, datasetID int64) ([]Data, error) {
	return c.collection(ctx, "images", url.Values{"dataset": {formatID(datasetID)}})
}

// Plates lists the plates of a screen.
func (c *Client) Plates(ctx context.Context, screenID int64) ([]Data, error) {
	return c.collection(ctx, "plates", url.Values{"screen": {formatID(screenID)}})
}

// Wells lists the wells of a plate, with well samples and their images
// embedded in each well.
func (c *Client) Wells(ctx context.Context, plateID int64) ([]Data, error) {
	return c.collection(ctx, "wells", url.Values{"plate": {formatID(plateID)}})
}

// ROIs lists the regions of interest of an image, shapes embedded.
func (c *Client) ROIs(ctx context.Context, imageID int64) ([]Data, error) {
	return c.collection(ctx, "rois", url.Values{"image": {formatID(imageID)}})
}

// Annotations lists the annotations linked to an object.
func (c *Client) Annotations(ctx context.Context, kind Kind, id int64) ([]Data, error) {
	path, ok := apiPaths[kind]
	if !ok {
		return nil, &UnknownKindError{Value: string(kind)}
	}
	return c.collectionPath(ctx,
		fmt.Sprintf("%s/m/%s/%d/annotations/", apiBase, path, id), nil)
}

// SaveMapAnnotation creates a map annotation under the given namespace and
// links it to an image. Pairs keep their order.
func (c *Client) SaveMapAnnotation(ctx context.Context, imageID int64, ns string, pairs [][2]string) error {
	values := make([]any, 0, len(pairs))
	for _, kv := range pairs {
		values = append(values, []any{kv[0], kv[1]})
	}

	ann, err := c.save(ctx, Data{
		"@type":     "http://www.openmicroscopy.org/Schemas/OMERO/2016-06#MapAnnotation",
		"Namespace": ns,
		"Value":     values,
	})
	if err != nil {
		return fmt.Errorf("save map annotation: %w", err)
	}

	_, err = c.save(ctx, Data{
		"@type": "http://www.openmicroscopy.org/Schemas/OMERO/2016-06#ImageAnnotationLink",
		"parent": Data{
			"@type": "http://www.openmicroscopy.org/Schemas/OME/2016-06#Image",
			"@id":   json.Number(formatID(imageID)),
		},
		"child": ann,
	})
	if err != nil {
		return fmt.Errorf("link map annotation: %w", err)
	}
	return nil
}

// save posts a marshalled object to the save endpoint and returns the
// stored form (with its assigned id).
func (c *Client) save(ctx context.Context, obj Data) (Data, error) {
	body, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+apiBase+"/m/save/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRFToken", c.token)
	req.Header.Set("Referer", c.base)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("save: %s", res.Status)
	}

	var out struct {
		Data Data `json:"data"`
	}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// collection pages through a /m/<path>/ listing.
func (c *Client) collection(ctx context.Context, path string, query url.Values) ([]Data, error) {
	return c.collectionPath(ctx, apiBase+"/m/"+path+"/", query)
}

func (c *Client) collectionPath(ctx context.Context, path string, query url.Values) ([]Data, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", strconv.Itoa(pageLimit))

	var all []Data
	offset := 0
	for {
		query.Set("offset", strconv.Itoa(offset))

		var page struct {
			Data []Data `json:"data"`
			Meta struct {
				TotalCount int `json:"totalCount"`
			} `json:"meta"`
		}
		if err := c.get(ctx, path, query, &page); err != nil {
			if isNotFound(err) {
				return nil, nil
			}
			return nil, err
		}

		all = append(all, page.Data...)
		offset += len(page.Data)
		if len(page.Data) == 0 || offset >= page.Meta.TotalCount {
			return all, nil
		}
	}
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, res.Status)
	}

	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// setSessionCookie installs an existing session id in the cookie jar.
func (c *Client) setSessionCookie(token string) {
	u, err := url.Parse(c.base)
	if err != nil {
		return
	}
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: token}})
}

var errNotFound = fmt.Errorf("not found")

func isNotFound(err error) bool {
	return err == errNotFound
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
