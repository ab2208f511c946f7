package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/pkg/models"
)

// ListWorks fetches every work.
func (c *Client) ListWorks(ctx context.Context) ([]models.Work, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathWorks})
	if err != nil {
		return nil, err
	}
	works := []models.Work{}
	if err := resp.Decode(&works); err != nil {
		return nil, err
	}
	return works, nil
}

// ListCategories fetches every category.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathCategories})
	if err != nil {
		return nil, err
	}
	categories := []models.Category{}
	if err := resp.Decode(&categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token  string `json:"token"`
	UserID FlexID `json:"userId"`
}

// FlexID accepts a JSON number or string and keeps its text.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("userId: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// Login posts credentials to /users/login.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (LoginResult, error) {
	var out LoginResult
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: PathLogin, JSON: creds})
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// CreateWork uploads a new work as multipart/form-data. The multipart
// writer supplies the Content-Type and its boundary.
func (c *Client) CreateWork(ctx context.Context, w models.NewWork) (models.Work, error) {
	var (
		buf bytes.Buffer
		out models.Work
	)
	mw := multipart.NewWriter(&buf)

	name := w.Image.Name
	if name == "" {
		name = "image"
	}
	contentType := w.Image.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(w.Image.Data)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return out, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(w.Image.Data); err != nil {
		return out, fmt.Errorf("write image part: %w", err)
	}
	if err := mw.WriteField("title", w.Title); err != nil {
		return out, fmt.Errorf("write title: %w", err)
	}
	if err := mw.WriteField("category", strconv.Itoa(w.CategoryID)); err != nil {
		return out, fmt.Errorf("write category: %w", err)
	}
	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("close multipart: %w", err)
	}

	resp, err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        PathWorks,
		Body:        &buf,
		ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return models.Work{}, err
	}
	return out, nil
}

// DeleteWork removes a work. The backend answers 204 with no body.
func (c *Client) DeleteWork(ctx context.Context, id int) error {
	if id <= 0 {
		return &errs.ValidationError{Field: "id", Message: "ID de work invalide"}
	}
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: PathWorks + "/" + strconv.Itoa(id)})
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
