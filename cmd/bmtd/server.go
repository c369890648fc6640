// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/maruel/go-bmt/bmt"
	"github.com/maruel/go-bmt/palette"
	"github.com/maruel/go-bmt/render"
	"github.com/maruel/go-bmt/rendercache"
	"github.com/maruel/go-bmt/store"
	"golang.org/x/net/websocket"
)

// event is one extraction pushed to the /stream clients.
type event struct {
	img     []byte // Thermal rendering, nil when the thermal channel failed.
	summary *bmt.Summary
}

// WebServer serves the extractions.
type WebServer struct {
	cache     *rendercache.Cache
	store     *store.Store // Can be nil.
	palette   string
	format    render.Format
	maxUpload int64
	handler   http.Handler

	cond    sync.Cond
	events  [16]*event // Most recent extractions.
	count   int        // Total number of events pushed.
	clients int        // Connected /stream clients.
	closed  bool
}

func newWebServer(c *Config, cache *rendercache.Cache, st *store.Store) (*WebServer, error) {
	f, err := render.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	s := &WebServer{
		cache:     cache,
		store:     st,
		palette:   c.Palette,
		format:    f,
		maxUpload: c.MaxUpload,
		cond:      sync.Cond{L: &sync.Mutex{}},
	}
	r := chi.NewRouter()
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	r.Get("/", s.root)
	r.Post("/api/extract", s.extract)
	r.Get("/api/history", s.history)
	r.Get("/api/stats", s.stats)
	r.Get("/api/palettes", s.palettes)
	r.Get("/api/palettes/{palette}/colorbar.png", s.colorbar)
	r.Get("/api/{id}/summary", s.summary)
	r.Get("/api/{id}/thermal/{palette}", s.thermal)
	r.Get("/api/{id}/visual", s.visual)
	r.Get("/api/{id}/csv", s.csv)
	r.Handle("/stream", websocket.Handler(s.stream))
	s.handler = r
	return s, nil
}

func (s *WebServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close wakes up and terminates the /stream clients.
func (s *WebServer) Close() {
	s.cond.L.Lock()
	s.closed = true
	s.cond.L.Unlock()
	s.cond.Broadcast()
}

// ingest extracts buf, records it and notifies the /stream clients.
func (s *WebServer) ingest(ctx context.Context, buf []byte) (*bmt.Summary, error) {
	r, err := s.cache.Put(buf)
	if err != nil {
		return nil, err
	}
	sum := r.Summary()
	if s.store != nil {
		if _, err := s.store.Save(ctx, sum); err != nil {
			log.Printf("failed to record %s: %s", sum.Identity, err)
		}
	}
	e := &event{summary: sum}
	if r.HasThermal() {
		// The stream is always PNG, for browsers.
		img, err := s.cache.GetOrRender(sum.Identity, s.palette)
		if err != nil {
			return nil, err
		}
		if img.Format == render.PNG {
			e.img = img.Data
		} else {
			p, _ := palette.Lookup(s.palette)
			if e.img, err = render.EncodeBytes(render.Colorize(r.Thermal, p), render.PNG); err != nil {
				return nil, err
			}
		}
	}
	s.cond.L.Lock()
	s.count++
	s.events[s.count%len(s.events)] = e
	s.cond.L.Unlock()
	s.cond.Broadcast()
	return sum, nil
}

var rootTmpl = template.Must(template.New("root").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>bmtd</title>
	<style>
		img.large {
			width: 480px;
			height: auto;
		}
	</style>
	<script>
	window.onload = function() {
		var ws = new WebSocket((location.protocol == "https:" ? "wss://" : "ws://") + location.host + "/stream");
		ws.onmessage = function(e) {
			if (e.data[0] == "I") {
				document.getElementById("live").src = "data:image/png;base64," + e.data.substr(1);
			} else if (e.data[0] == "M") {
				document.getElementById("meta").textContent = e.data.substr(1);
			}
		};
	};
	</script>
</head>
<body>
	<form action="/api/extract" method="post" enctype="multipart/form-data">
		<input type="file" name="file"><input type="submit" value="Extract">
	</form>
	<img class="large" id="live"></img>
	<pre id="meta"></pre>
	Palettes:
	{{range .Palettes}}<a href="/api/palettes/{{.Name}}/colorbar.png" title="{{.Description}}">{{.Name}}</a> {{end}}
	<br>
	Recent:
	<ul>
	{{range .Recent}}<li><a href="/api/{{.Identity}}/summary">{{.Identity}}</a>
		<a href="/api/{{.Identity}}/thermal/{{$.Palette}}">thermal</a>
		<a href="/api/{{.Identity}}/visual">visual</a>
		<a href="/api/{{.Identity}}/csv">csv</a></li>
	{{end}}
	</ul>
</body>
</html>`))

func (s *WebServer) root(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Palettes []*palette.Palette
		Palette  string
		Recent   []*bmt.Summary
	}{Palettes: palette.All(), Palette: s.palette}
	s.cond.L.Lock()
	for i := 0; i < len(s.events) && i < s.count; i++ {
		data.Recent = append(data.Recent, s.events[(s.count-i)%len(s.events)].summary)
	}
	s.cond.L.Unlock()
	w.Header().Set("Content-Type", "text/html")
	if err := rootTmpl.Execute(w, &data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// extract accepts the container either as the request body or as the "file"
// field of a multipart form.
func (s *WebServer) extract(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, uploadStatus(err), err)
			return
		}
		defer f.Close()
		src = f
	}
	buf, err := ioutil.ReadAll(src)
	if err != nil {
		writeError(w, uploadStatus(err), err)
		return
	}
	sum, err := s.ingest(r.Context(), buf)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *WebServer) summary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if res, err := s.cache.Result(id); err == nil {
		writeJSON(w, http.StatusOK, res.Summary())
		return
	}
	if s.store != nil {
		rec, err := s.store.Latest(r.Context(), id)
		if err == nil {
			writeJSON(w, http.StatusOK, rec.Summary)
			return
		}
		if err != store.ErrNotFound {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeError(w, http.StatusNotFound, rendercache.ErrUnknownSource)
}

func (s *WebServer) thermal(w http.ResponseWriter, r *http.Request) {
	img, err := s.cache.GetOrRender(chi.URLParam(r, "id"), chi.URLParam(r, "palette"))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	if img.Fallback {
		w.Header().Set("X-Palette-Fallback", img.Warning.Error())
	}
	w.Header().Set("X-Palette", img.Palette)
	writeImage(w, img)
}

func (s *WebServer) visual(w http.ResponseWriter, r *http.Request) {
	res, err := s.cache.Result(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	if !res.HasVisual() {
		writeError(w, statusOf(res.VisualErr), res.VisualErr)
		return
	}
	img, err := render.Visual(res.Visual, s.format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeImage(w, img)
}

func (s *WebServer) csv(w http.ResponseWriter, r *http.Request) {
	res, err := s.cache.Result(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	if !res.HasThermal() {
		writeError(w, statusOf(res.ThermalErr), res.ThermalErr)
		return
	}
	buf := bytes.Buffer{}
	if err := res.Thermal.WriteCSV(&buf, &res.Metadata); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *WebServer) history(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []store.Record{})
		return
	}
	l, err := s.store.List(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if l == nil {
		l = []store.Record{}
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *WebServer) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

type paletteInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

func (s *WebServer) palettes(w http.ResponseWriter, r *http.Request) {
	var out []paletteInfo
	for _, p := range palette.All() {
		out = append(out, paletteInfo{p.Name, p.Description, p.Name == palette.Default})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *WebServer) colorbar(w http.ResponseWriter, r *http.Request) {
	img, err := render.Colorbar(chi.URLParam(r, "palette"), 256, 16, render.PNG)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=2592000") // 30d
	w.Header().Set("X-Palette", img.Palette)
	writeImage(w, img)
}

// stream sends every new extraction as WebSocket frames.
func (s *WebServer) stream(w *websocket.Conn) {
	log.Printf("websocket from %s", w.Request().RemoteAddr)
	defer w.Close()
	buf := &bytes.Buffer{}
	s.cond.L.Lock()
	s.clients++
	defer func() {
		s.clients--
		s.cond.L.Unlock()
	}()
	last := s.count
	for !s.closed {
		s.cond.Wait()
		for ; !s.closed && last != s.count; last++ {
			if s.count-last > len(s.events) {
				// Too slow, skip the overwritten ones.
				last = s.count - len(s.events)
			}
			e := s.events[(last+1)%len(s.events)]
			s.cond.L.Unlock()
			// Do the actual I/O without the lock.
			err := sendEvent(w, buf, e)
			s.cond.L.Lock()
			if err != nil {
				log.Printf("websocket err: %s", err)
				return
			}
		}
	}
}

func sendEvent(w io.Writer, buf *bytes.Buffer, e *event) error {
	defer buf.Reset()
	if e.img != nil {
		// Frame I is for Image.
		buf.WriteString("I")
		encoder := base64.NewEncoder(base64.StdEncoding, buf)
		encoder.Write(e.img)
		encoder.Close()
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
		buf.Reset()
	}
	// Frame M is for Metadata.
	buf.WriteString("M")
	if err := json.NewEncoder(buf).Encode(e.summary); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func statusOf(err error) int {
	var c *bmt.ChannelError
	switch {
	case err == rendercache.ErrUnknownSource:
		return http.StatusNotFound
	case errors.As(err, &c):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func uploadStatus(err error) int {
	var m *http.MaxBytesError
	if errors.As(err, &m) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeImage(w http.ResponseWriter, img *render.Image) {
	w.Header().Set("Content-Type", img.Format.ContentType())
	w.Write(img.Data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %s", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// logRequests logs each request along with the route that served it.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "-"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		log.Printf("%s - %3d %6db %4s %s [%s] %s", r.RemoteAddr, status, ww.BytesWritten(), r.Method, r.RequestURI, route, time.Since(start).Round(time.Millisecond))
	})
}
