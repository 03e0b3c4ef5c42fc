package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fairplay-vault/sentinel/internal/core/application"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

const shutdownTimeout = 5 * time.Second

// Service is the HTTP control surface of the sentinel daemon. The /salts
// endpoint dumps raw secrets and must not be reachable from an untrusted
// network, enforcing that is a deployment obligation.
type Service struct {
	*gin.Engine
	appSvc application.Service
	server *http.Server
}

func NewService(appSvc application.Service, port uint32) *Service {
	router := gin.New()
	router.Use(gin.Recovery())

	svc := &Service{router, appSvc, nil}

	svc.GET("/commit", svc.commitHandler)
	svc.POST("/import", svc.importHandler)
	svc.POST("/schedule/:poolId", svc.scheduleHandler)
	svc.GET("/status", svc.statusHandler)
	svc.GET("/salts", svc.saltsHandler)

	svc.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}
	return svc
}

func (s *Service) Start() error {
	if err := s.appSvc.Start(); err != nil {
		return err
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server exited")
		}
	}()

	log.Infof("sentinel http listening on %s", s.server.Addr)
	return nil
}

func (s *Service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// nolint:all
	s.server.Shutdown(ctx)
	s.appSvc.Stop()
}
