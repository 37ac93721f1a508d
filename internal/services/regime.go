package services

import (
	"context"
	"errors"
	"time"

	"github.com/nexconsult/nfe-regime/internal/models"
	"github.com/nexconsult/nfe-regime/internal/utils"
	"github.com/sirupsen/logrus"
)

// ErrInvalidCNPJ is returned by Lookup when the CNPJ does not have 14 digits
var ErrInvalidCNPJ = errors.New("invalid CNPJ format")

// regimeClient is satisfied by *registry.Client
type regimeClient interface {
	Resolve(ctx context.Context, cnpj string) models.Regime
	Health() map[string]interface{}
}

// RegimeService resolves tax regimes of single CNPJs
type RegimeService struct {
	client regimeClient
	logger *logrus.Logger
	now    func() time.Time
}

// NewRegimeService creates a new regime service
func NewRegimeService(client regimeClient, logger *logrus.Logger) *RegimeService {
	return &RegimeService{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Lookup cleans the CNPJ, resolves its regime and reports how long it took
func (s *RegimeService) Lookup(ctx context.Context, cnpj string) (*models.RegimeResponse, error) {
	cleaned := utils.CleanCNPJ(cnpj)
	if !utils.IsWellFormedCNPJ(cleaned) {
		return nil, ErrInvalidCNPJ
	}

	start := s.now()
	regime := s.client.Resolve(ctx, cleaned)
	finished := s.now()

	s.logger.WithFields(logrus.Fields{
		"cnpj":     cleaned,
		"regime":   regime.String(),
		"duration": finished.Sub(start),
	}).Info("Regime lookup completed")

	return &models.RegimeResponse{
		CNPJ:          cleaned,
		CNPJFormatado: utils.FormatCNPJ(cleaned),
		TipoEmpresa:   utils.GetCNPJType(cleaned),
		Regime:        regime.String(),
		Kind:          regime.Kind,
		ConsultadoEm:  finished,
		TempoConsulta: finished.Sub(start).Milliseconds(),
	}, nil
}

// Resolve classifies the regime of an already clean CNPJ
func (s *RegimeService) Resolve(ctx context.Context, cnpj string) models.Regime {
	return s.client.Resolve(ctx, cnpj)
}

// Health returns service health status
func (s *RegimeService) Health() map[string]interface{} {
	return s.client.Health()
}
