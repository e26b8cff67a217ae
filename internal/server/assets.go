package server

import (
	"bytes"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

type asset struct {
	name    string
	typ     string
	data    []byte
	modTime time.Time
}

// assets holds the frontend, minified once at start.
type assets map[string]*asset

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

func loadAssets(fsys fs.FS) (assets, error) {
	m := newMinifier()
	out := make(assets)
	now := time.Now()

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		typ := mime.TypeByExtension(path.Ext(p))
		mediatype, _, _ := strings.Cut(typ, ";")
		data := raw
		if _, _, fn := m.Match(mediatype); fn != nil {
			var buf bytes.Buffer
			if err := m.Minify(mediatype, &buf, bytes.NewReader(raw)); err != nil {
				return fmt.Errorf("minify %s: %w", p, err)
			}
			data = buf.Bytes()
		}
		out["/"+p] = &asset{name: p, typ: typ, data: data, modTime: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	if strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	f, ok := a[p]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if f.typ != "" {
		w.Header().Set("Content-Type", f.typ)
	}
	http.ServeContent(w, r, f.name, f.modTime, bytes.NewReader(f.data))
}
