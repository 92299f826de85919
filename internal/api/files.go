package api

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"
)

// serveFile streams a locally stored upload. Object keys keep the escaped
// file name, so the escaped request path is the key.
func (d Dependencies) serveFile(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.EscapedPath(), "/files/")
	if key == "" {
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found", d.Log)
		return
	}

	body, err := d.Files.Get(r.Context(), key)
	if err != nil {
		d.Log.Info("File lookup failed", zap.String("key", key), zap.Error(err))
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found", d.Log)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, body); err != nil {
		d.Log.Warn("Failed to stream file", zap.String("key", key), zap.Error(err))
	}
}
