// Package preview serves the raw footage over HTTP so a browser can be
// scrubbed against the generated timeline. Range requests are honored;
// most players need them for seeking.
package preview

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// Server serves a single video file with byte-range support.
type Server struct {
	videoPath string
	logger    *slog.Logger
}

func NewServer(videoPath string, logger *slog.Logger) *Server {
	return &Server{videoPath: videoPath, logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	file, err := os.Open(s.videoPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "raw footage not found", http.StatusNotFound)
			return
		}
		s.logger.Error("failed to open raw footage", "path", s.videoPath, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		s.logger.Error("failed to stat raw footage", "path", s.videoPath, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(s.videoPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	rng, err := parseByteRange(r.Header.Get("Range"), size)
	switch {
	case err == ErrUnsatisfiable:
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	case err == ErrInvalidRange:
		// Malformed Range headers fall back to a full-body response.
		rng = nil
	case err != nil:
		s.logger.Error("range parse failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if rng == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", rng.length()))
	w.Header().Set("Content-Range", rng.contentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(rng.start, io.SeekStart); err != nil {
		s.logger.Error("failed to seek raw footage", "error", err)
		return
	}
	io.CopyN(w, file, rng.length())
}
