package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/angeloszaimis/bg-remover/internal/metrics"
	"github.com/angeloszaimis/bg-remover/internal/removebg"
	"github.com/angeloszaimis/bg-remover/pkg/logger"
)

const imageField = "image"

// BackgroundRemover is the upstream the proxy forwards to.
type BackgroundRemover interface {
	Configured() error
	Remove(ctx context.Context, img removebg.Image) (*removebg.Result, error)
}

type RemoveBackgroundHandler struct {
	logger           *slog.Logger
	remover          BackgroundRemover
	metricsCollector *metrics.Collector
}

func NewRemoveBackgroundHandler(logger *slog.Logger, remover BackgroundRemover, collector *metrics.Collector) *RemoveBackgroundHandler {
	return &RemoveBackgroundHandler{
		logger:           logger,
		remover:          remover,
		metricsCollector: collector,
	}
}

func (h *RemoveBackgroundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: time.Now(),
	})

	res, err := h.process(r, log)
	if err != nil {
		status, outcome, message := classify(err)

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "Background removal failed",
			slog.String("outcome", outcome),
			slog.Int("status", status),
			slog.Any("err", err))

		writeError(w, status, message)
		h.emitResponse(outcome, status)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Body); err != nil {
		log.Warn("Failed to write image to client", slog.Any("err", err))
	}

	h.emitResponse(OutcomeSuccess, http.StatusOK)
}

func (h *RemoveBackgroundHandler) process(r *http.Request, log *slog.Logger) (*removebg.Result, error) {
	if err := h.remover.Configured(); err != nil {
		return nil, err
	}

	img, err := readImage(r)
	if err != nil {
		return nil, err
	}

	log.Debug("Forwarding image",
		slog.String("filename", img.Filename),
		slog.String("content_type", img.ContentType),
		slog.Int("size", len(img.Data)))

	// The upstream call is bounded by the client timeout only; a client
	// hanging up does not abort it.
	ctx := context.WithoutCancel(r.Context())

	start := time.Now()
	res, err := h.remover.Remove(ctx, img)
	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventUpstreamCompleted,
		Timestamp:  time.Now(),
		Duration:   time.Since(start),
		StatusCode: upstreamStatus(res, err),
	})

	return res, err
}

func readImage(r *http.Request) (removebg.Image, error) {
	file, header, err := r.FormFile(imageField)
	if err != nil {
		return removebg.Image{}, fmt.Errorf("%w: %v", ErrMissingImage, err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return removebg.Image{}, fmt.Errorf("read upload %q: %w", header.Filename, err)
	}

	return removebg.Image{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

func upstreamStatus(res *removebg.Result, err error) int {
	if err == nil && res != nil {
		return http.StatusOK
	}

	var upstreamErr *removebg.UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode
	}

	return 0
}

func (h *RemoveBackgroundHandler) emitResponse(outcome string, status int) {
	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Outcome:    outcome,
		StatusCode: status,
	})
}
