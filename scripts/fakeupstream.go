// Fakeupstream is a local stand-in for the remove.bg API used for manual
// testing of the proxy without spending credits.
//
// Usage:
//
//	go run fakeupstream.go -port 8090 -key dev-key
//	REMOVEBG_ENDPOINT=http://localhost:8090/v1.0/removebg REMOVEBG_API_KEY=dev-key go run ./cmd
//
// It decodes the uploaded image and answers with the same picture re-encoded as
// PNG. -delay and -status make it slow or failing so the proxy's timeout and
// upstream error paths can be exercised by hand.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

func main() {
	port := flag.Int("port", 8090, "port to listen on")
	key := flag.String("key", "dev-key", "accepted X-Api-Key value")
	delay := flag.Duration("delay", 0, "artificial delay before answering")
	status := flag.Int("status", http.StatusOK, "status code to answer with")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1.0/removebg", func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		if r.Header.Get("X-Api-Key") != *key {
			writeErrors(w, http.StatusForbidden, "API Key invalid")
			return
		}

		file, header, err := r.FormFile("image_file")
		if err != nil {
			writeErrors(w, http.StatusBadRequest, "No image given")
			return
		}
		defer file.Close()

		log.Info("request",
			slog.String("id", id),
			slog.String("filename", header.Filename),
			slog.String("content_type", header.Header.Get("Content-Type")),
			slog.String("size", r.FormValue("size")))

		if *delay > 0 {
			select {
			case <-time.After(*delay):
			case <-r.Context().Done():
				return
			}
		}

		if *status != http.StatusOK {
			writeErrors(w, *status, "Simulated failure")
			return
		}

		img, _, err := image.Decode(file)
		if err != nil {
			writeErrors(w, http.StatusBadRequest, "Failed to read image")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Credits-Charged", "0")
		if err := png.Encode(w, img); err != nil {
			log.Error("encode failed", slog.String("id", id), slog.Any("err", err))
		}
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting fake remove.bg", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func writeErrors(w http.ResponseWriter, status int, title string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"errors":[{"title":%q}]}`, title)
}
