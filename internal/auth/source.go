package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Source yields the raw account sheet (CSV).
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// HTTPSource downloads a published sheet export, e.g.
// https://docs.google.com/spreadsheets/d/<id>/export?format=csv&gid=0
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	c := s.Client
	if c == nil {
		c = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("account sheet: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

type FileSource struct{ Path string }

func (s FileSource) Open(context.Context) (io.ReadCloser, error) { return os.Open(s.Path) }
