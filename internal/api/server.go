package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evercare/companion/internal/service"
)

type Server struct {
	mx                *chi.Mux
	accountService    service.AccountServiceI
	checkinService    service.CheckinServiceI
	redemptionService service.RedemptionServiceI
	jwtService        JWTServiceI
}

type ServicesList struct {
	AccountService    service.AccountServiceI
	CheckinService    service.CheckinServiceI
	RedemptionService service.RedemptionServiceI
	JwtService        JWTServiceI
}

func New(servicesOptions *ServicesList) *Server {
	return &Server{
		mx:                chi.NewMux(),
		accountService:    servicesOptions.AccountService,
		checkinService:    servicesOptions.CheckinService,
		redemptionService: servicesOptions.RedemptionService,
		jwtService:        servicesOptions.JwtService,
	}
}

func (s *Server) Routes() *chi.Mux {
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware)
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)
		r.Group(func(pr chi.Router) {
			pr.Use(s.AuthMiddleware, s.LoggerExtensionMiddleware)
			pr.Get("/checkins/status", s.CheckinStatus)
			pr.Post("/checkins", s.CheckIn)
			pr.Get("/catalog", s.Catalog)
			pr.Post("/redemptions", s.Redeem)
			pr.Get("/vouchers", s.ListVouchers)
			pr.Post("/account/onboarded", s.CompleteOnboarding)
		})
	})
	return s.mx
}

func (s *Server) Run(address string) error {
	return http.ListenAndServe(address, s.Routes())
}
