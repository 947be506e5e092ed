// Package server is the HTTP transport in front of the ledger core. Each
// handler decodes a request, defers to the TransferService and encodes the
// outcome; no business rules live here.
package server

import (
	"github.com/jointly-dev/jointly/internal/interfaces"
	"github.com/jointly-dev/jointly/internal/ledger"
)

type Server struct {
	svc     *ledger.TransferService
	members interfaces.MemberAuthorizer
}

// NewServer wires the transport. members decides whether the acting user may
// touch a given group account; membership itself is owned elsewhere.
func NewServer(svc *ledger.TransferService, members interfaces.MemberAuthorizer) *Server {
	return &Server{svc: svc, members: members}
}
