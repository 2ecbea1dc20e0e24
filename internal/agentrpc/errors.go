package agentrpc

import "github.com/rosshhun/docktail-go/internal/rpcapi"

// mapErr centralizes every RPC boundary's error translation in this
// package, delegating to rpcapi.MapError's closed-taxonomy-to-status-code
// table rather than duplicating the switch at each call site.
func mapErr(err error) error {
	return rpcapi.MapError(err)
}
