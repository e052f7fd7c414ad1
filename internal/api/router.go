package api

import (
	"net/http"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func NewRouter(handlers *Handlers, admin *AdminHandlers, jwtService *auth.JWTService, logger *zap.Logger, webDir string) http.Handler {
	mux := http.NewServeMux()

	// Static files (web UI)
	if webDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(webDir)))
	}

	mux.HandleFunc("/healthz", handlers.Health)

	// Products
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/products/popular", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetPopularProducts(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Cart
	mux.HandleFunc("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCart(w, r)
		case http.MethodDelete:
			handlers.ClearCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/cart/items", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.AddToCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/cart/items/", handlers.CartItem)

	// Admin
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			admin.Login(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/admin/logout", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			admin.Logout(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(jwtService)(middleware.RequireRole(auth.RoleAdmin)(h))
	}

	mux.Handle("/api/admin/form", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			admin.GetForm(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	mux.Handle("/api/admin/form/operation", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			admin.SelectOperation(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	mux.Handle("/api/admin/form/product-id", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			admin.SetProductID(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	mux.Handle("/api/admin/form/fields", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			admin.UpdateFields(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	mux.Handle("/api/admin/form/submit", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			admin.Submit(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	mux.Handle("/api/admin/form/alert", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			admin.DismissAlert(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	mux.Handle("/api/admin/activity", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			admin.Activity(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	return otelhttp.NewHandler(withLogging(logger, middleware.Session(mux)), "storefront")
}

func methodNotAllowed(w http.ResponseWriter) {
	respondError(w, "method not allowed", http.StatusMethodNotAllowed)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withLogging(logger *zap.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
