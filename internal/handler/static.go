package handler

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/angeloszaimis/bg-remover/pkg/logger"
)

// StaticHandler serves files from a content root. "/" maps to the index
// document; anything that is not a regular file is a 404.
type StaticHandler struct {
	logger *slog.Logger
	root   fs.FS
	index  string
}

func NewStaticHandler(logger *slog.Logger, root fs.FS, index string) *StaticHandler {
	return &StaticHandler{
		logger: logger,
		root:   root,
		index:  index,
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = h.index
	}

	f, err := h.root.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrInvalid) {
			logger.FromContext(r.Context(), h.logger).Warn("Failed to open static file",
				slog.String("name", name),
				slog.Any("err", err))
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "failed to read file", http.StatusInternalServerError)
			return
		}
		content = bytes.NewReader(data)
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}
