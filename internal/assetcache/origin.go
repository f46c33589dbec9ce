package assetcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Origin produces fresh responses for asset requests.
type Origin interface {
	Fetch(ctx context.Context, uri string, header http.Header) (*Entry, error)
}

// HTTPOrigin fetches assets from a development server or CDN.
type HTTPOrigin struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPOrigin(base string, client *http.Client) (*HTTPOrigin, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid asset origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid asset origin %q", base)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPOrigin{base: u, client: client}, nil
}

func (o *HTTPOrigin) Fetch(ctx context.Context, uri string, header http.Header) (*Entry, error) {
	ref, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	if accept := header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	res, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", uri, err)
	}
	h := res.Header.Clone()
	h.Del("Content-Length")
	return &Entry{
		Status:     res.StatusCode,
		Header:     h,
		Body:       body,
		SameOrigin: res.Request.URL.Host == o.base.Host,
	}, nil
}

// FSOrigin serves assets from a build directory.
type FSOrigin struct {
	fsys fs.FS
}

func NewFSOrigin(fsys fs.FS) *FSOrigin {
	return &FSOrigin{fsys: fsys}
}

func (o *FSOrigin) Fetch(ctx context.Context, uri string, header http.Header) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if name == "" {
		name = "index.html"
	}

	body, err := fs.ReadFile(o.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return &Entry{
			Status:     http.StatusNotFound,
			Header:     http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
			Body:       []byte("not found\n"),
			SameOrigin: true,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(body)
	}
	return &Entry{
		Status:     http.StatusOK,
		Header:     http.Header{"Content-Type": {ctype}},
		Body:       body,
		SameOrigin: true,
	}, nil
}
