package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/bg-remover/internal/middleware"
	"github.com/angeloszaimis/bg-remover/pkg/logger"
)

var _ = Describe("Middleware", func() {
	var log *slog.Logger

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	})

	Describe("RequestID", func() {
		var seen string

		handler := func() http.Handler {
			return middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.RequestIDFromContext(r.Context())
			}))
		}

		It("should generate a UUID when none is supplied", func() {
			w := httptest.NewRecorder()
			handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			_, err := uuid.Parse(seen)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Header().Get(middleware.RequestIDHeader)).To(Equal(seen))
		})

		It("should keep a client supplied id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			handler().ServeHTTP(w, req)

			Expect(seen).To(Equal("abc-123"))
			Expect(w.Header().Get(middleware.RequestIDHeader)).To(Equal("abc-123"))
		})

		It("should replace an oversized client id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, string(bytes.Repeat([]byte("x"), 200)))
			handler().ServeHTTP(httptest.NewRecorder(), req)

			_, err := uuid.Parse(seen)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return empty outside the middleware", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			Expect(middleware.RequestIDFromContext(req.Context())).To(BeEmpty())
		})
	})

	Describe("Logger", func() {
		It("should log status and request id", func() {
			var buf bytes.Buffer
			log = slog.New(slog.NewJSONHandler(&buf, nil))

			h := middleware.RequestID(middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.FromContext(r.Context(), nil).Info("inside")
				w.WriteHeader(http.StatusTeapot)
				w.Write([]byte("short and stout"))
			})))

			req := httptest.NewRequest(http.MethodGet, "/pot", nil)
			req.Header.Set(middleware.RequestIDHeader, "rid-1")
			h.ServeHTTP(httptest.NewRecorder(), req)

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			Expect(lines).To(HaveLen(2))

			var inner, access map[string]any
			Expect(json.Unmarshal(lines[0], &inner)).To(Succeed())
			Expect(json.Unmarshal(lines[1], &access)).To(Succeed())

			Expect(inner["request_id"]).To(Equal("rid-1"))
			Expect(access["request_id"]).To(Equal("rid-1"))
			Expect(access["status"]).To(BeNumerically("==", http.StatusTeapot))
			Expect(access["bytes"]).To(BeNumerically("==", len("short and stout")))
			Expect(access["path"]).To(Equal("/pot"))
		})

		It("should report 200 when the handler writes nothing", func() {
			var buf bytes.Buffer
			log = slog.New(slog.NewJSONHandler(&buf, nil))

			h := middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			var access map[string]any
			Expect(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &access)).To(Succeed())
			Expect(access["status"]).To(BeNumerically("==", http.StatusOK))
			Expect(access["bytes"]).To(BeNumerically("==", 0))
		})
	})

	Describe("Recoverer", func() {
		It("should turn a panic into a JSON 500", func() {
			h := middleware.Recoverer(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			}))

			w := httptest.NewRecorder()
			Expect(func() {
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			}).NotTo(Panic())

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"Internal server error"}`))
		})

		It("should pass through when nothing panics", func() {
			h := middleware.Recoverer(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			}))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(w.Code).To(Equal(http.StatusAccepted))
		})

		It("should abort instead of appending JSON to a started response", func() {
			h := middleware.Recoverer(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("partial"))
				panic("boom")
			}))

			w := httptest.NewRecorder()
			Expect(func() {
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			}).To(PanicWith(http.ErrAbortHandler))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("partial"))
		})

		It("should let http.ErrAbortHandler through", func() {
			h := middleware.Recoverer(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(http.ErrAbortHandler)
			}))

			Expect(func() {
				h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			}).To(PanicWith(http.ErrAbortHandler))
		})
	})

	Describe("CORS", func() {
		var called bool

		build := func(origins ...string) http.Handler {
			called = false
			return middleware.CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))
		}

		It("should leave same-origin requests alone", func() {
			w := httptest.NewRecorder()
			build("*").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(called).To(BeTrue())
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})

		It("should allow any origin with a wildcard", func() {
			req := httptest.NewRequest(http.MethodPost, "/remove-bg", nil)
			req.Header.Set("Origin", "https://app.example.com")
			w := httptest.NewRecorder()
			build("*").ServeHTTP(w, req)

			Expect(called).To(BeTrue())
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(w.Header().Get("Access-Control-Expose-Headers")).To(Equal(middleware.RequestIDHeader))
			Expect(w.Header().Values("Vary")).To(ContainElement("Origin"))
		})

		It("should echo a listed origin", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", "https://app.example.com")
			w := httptest.NewRecorder()
			build("https://app.example.com").ServeHTTP(w, req)

			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example.com"))
		})

		It("should not grant an unlisted origin", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", "https://evil.example.com")
			w := httptest.NewRecorder()
			build("https://app.example.com").ServeHTTP(w, req)

			Expect(called).To(BeTrue())
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})

		It("should answer preflight requests", func() {
			req := httptest.NewRequest(http.MethodOptions, "/remove-bg", nil)
			req.Header.Set("Origin", "https://app.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "X-Request-Id")
			w := httptest.NewRecorder()
			build("*").ServeHTTP(w, req)

			Expect(called).To(BeFalse())
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(w.Header().Get("Access-Control-Allow-Methods")).To(Equal(http.MethodPost))
			Expect(w.Header().Get("Access-Control-Allow-Headers")).To(Equal("X-Request-Id"))
			Expect(w.Header().Get("Access-Control-Max-Age")).To(Equal("600"))
		})

		It("should not grant a preflight from an unlisted origin", func() {
			req := httptest.NewRequest(http.MethodOptions, "/remove-bg", nil)
			req.Header.Set("Origin", "https://evil.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			build("https://app.example.com").ServeHTTP(w, req)

			Expect(called).To(BeFalse())
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
			Expect(w.Header().Get("Access-Control-Allow-Methods")).To(BeEmpty())
		})

		It("should not allow a method outside the list", func() {
			req := httptest.NewRequest(http.MethodOptions, "/remove-bg", nil)
			req.Header.Set("Origin", "https://app.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
			w := httptest.NewRecorder()
			build("*").ServeHTTP(w, req)

			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})
})
