// @title Companion API
// @description Check-in ledger and reward redemption API for the elder-care companion app
// @BasePath /api/v1
// @schemes http
package main

import (
	"log"

	"github.com/evercare/companion/internal/api"
	"github.com/evercare/companion/internal/repository"
	"github.com/evercare/companion/internal/service"
	"github.com/evercare/companion/pkg/cleanup"
	"github.com/evercare/companion/pkg/config"
	jwtservice "github.com/evercare/companion/pkg/jwt_service"
)

func init() {
	service.InitValidator()
}

func main() {
	defer cleanup.CleanUp()
	cfg := config.New()
	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	accountService := service.NewAccountService(repository.NewAccountsRepo(&dbCfg), cfg.GetString("OTP_CODE"))
	checkinService := service.NewCheckinService(repository.NewLedgerRepo(&dbCfg), cfg.GetBool("CHECKIN_FAIL_OPEN"))
	redemptionService := service.NewRedemptionService(repository.NewVouchersRepo(&dbCfg))
	serv := api.New(&api.ServicesList{
		AccountService:    accountService,
		CheckinService:    checkinService,
		RedemptionService: redemptionService,
		JwtService:        jwtservice.New(cfg.GetString("JWT_SECRET")),
	})
	err := serv.Run(cfg.GetString("API_ADDRESS"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
}
