package http

import (
	"github.com/nats-io/nats.go"

	"github.com/aitorle/geovault/internal/adapters/postgres"
	"github.com/aitorle/geovault/internal/adapters/valkey"
	"github.com/aitorle/geovault/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Vaults      *usecases.VaultService
	Memberships *usecases.MembershipService
	Editor      *usecases.EditorService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
