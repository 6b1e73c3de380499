package codegen

import (
	"github.com/veridock/text2api/internal/codegen/cli"
	"github.com/veridock/text2api/internal/codegen/graphql"
	"github.com/veridock/text2api/internal/codegen/rest"
	"github.com/veridock/text2api/internal/codegen/rpc"
	"github.com/veridock/text2api/internal/codegen/socket"
	"github.com/veridock/text2api/internal/codegen/tmpl"
)

// DefaultRegistry holds every built-in generator
var DefaultRegistry *Registry

func init() {
	engine := tmpl.Must(tmpl.New())

	r, err := NewRegistry(
		rest.NewNetHTTP(engine),
		rest.NewOpenAPI(engine),
		graphql.NewGqlgen(engine),
		rpc.NewGRPC(engine),
		rpc.NewConnect(engine),
		socket.NewGorilla(engine),
		cli.NewCobra(engine),
		cli.NewUrfave(engine),
	)
	if err != nil {
		panic(err)
	}
	DefaultRegistry = r
}
