package handler

import (
	circledomain "carelink-go/internal/domain/circle"
	familydomain "carelink-go/internal/domain/family"
	vaultdomain "carelink-go/internal/domain/vault"
	"carelink-go/pkg/logger"
)

type Handlers struct {
	Circle   *circledomain.Service
	Families *familydomain.Service
	Vault    *vaultdomain.Service

	log logger.Logger
}

func New(circle *circledomain.Service, families *familydomain.Service, vault *vaultdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Circle:   circle,
		Families: families,
		Vault:    vault,
		log:      log,
	}
}
