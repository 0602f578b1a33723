// Package server exposes a book over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/logger"
	"go.uber.org/zap"
)

type Server struct {
	book   *book.Book
	router chi.Router
	addr   string
	log    *zap.Logger
}

func New(b *book.Book, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)

	s := &Server{book: b, router: r, addr: addr, log: log}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/meta", s.getMeta)
		r.Post("/meta/forward", s.forwardMonth)

		// Accounts
		r.Get("/accounts", s.listAccounts)
		r.Post("/accounts", s.createAccount)
		r.Get("/accounts/top", s.topAccounts)
		r.Get("/accounts/by-qualname", s.getAccountByQualname)
		r.Get("/accounts/{code}", s.getAccount)
		r.Delete("/accounts/{code}", s.deleteAccount)
		r.Get("/accounts/{code}/children", s.listChildren)
		r.Put("/accounts/{code}/currency", s.setAccountCurrency)
		r.Put("/accounts/{code}/exchange-gains-losses", s.setExchangeGainsLosses)
		r.Post("/accounts/{code}/touch", s.touchAccount)

		// Currencies and rates
		r.Get("/currencies", s.listCurrencies)
		r.Post("/currencies", s.createCurrency)
		r.Get("/currencies/{name}", s.getCurrency)
		r.Delete("/currencies/{name}", s.deleteCurrency)
		r.Get("/currencies/{name}/rates", s.listRates)
		r.Post("/currencies/{name}/rates", s.createRate)
		r.Get("/currencies/{name}/rate", s.rateAt)
		r.Delete("/currencies/{name}/rates/{date}", s.deleteRate)

		// Vouchers; numbers containing "/" are sent path-escaped.
		r.Get("/vouchers", s.listVouchers)
		r.Post("/vouchers", s.createVoucher)
		r.Post("/vouchers/renumber", s.renumberVouchers)
		r.Get("/vouchers/{number}", s.getVoucher)
		r.Patch("/vouchers/{number}", s.patchVoucher)
		r.Delete("/vouchers/{number}", s.deleteVoucher)
		r.Put("/vouchers/{number}/entries", s.updateEntries)

		// Reports
		r.Get("/reports/balances/{code}", s.incurredBalances)
		r.Get("/reports/trial-balance", s.trialBalance)
		r.Get("/reports/balance-sheet", s.balanceSheet)

		// Carry-forward preview (GET) and apply (POST)
		r.Get("/closing/{kind}", s.previewClosing)
		r.Post("/closing/{kind}", s.applyClosing)

		// Balance sheet templates
		r.Get("/templates", s.listTemplates)
		r.Post("/templates", s.createTemplate)
		r.Get("/templates/{name}", s.getTemplate)
		r.Put("/templates/{name}", s.updateTemplate)
		r.Patch("/templates/{name}", s.renameTemplate)
		r.Post("/templates/{name}/copy", s.copyTemplate)
		r.Delete("/templates/{name}", s.deleteTemplate)
	})

	return s
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	s.log.Info("ledgerbook server listening", zap.String("addr", ln.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}
