// Package rpc generates protobuf services with gRPC or Connect servers
package rpc

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/spec"
)

const DescriptorFile = "descriptor.binpb"

// flavor holds what differs between the gRPC and Connect projects
type flavor struct {
	framework   string
	description string
	template    string
	plugin      string
	requires    []string
}

var (
	grpcFlavor = flavor{
		framework:   "grpc",
		description: "protobuf service with a grpc-go server",
		template:    "rpc/grpc_server.go",
		plugin:      "buf.build/grpc/go",
		requires: []string{
			"google.golang.org/grpc v1.66.2",
			"google.golang.org/protobuf v1.36.6",
		},
	}
	connectFlavor = flavor{
		framework:   "connect",
		description: "protobuf service with a Connect server over net/http",
		template:    "rpc/connect_server.go",
		plugin:      "buf.build/connectrpc/go",
		requires: []string{
			"connectrpc.com/connect v1.18.1",
			"golang.org/x/net v0.38.0",
			"google.golang.org/protobuf v1.36.6",
		},
	}
)

// Generator renders one RPC flavor
type Generator struct {
	engine *tmpl.Engine
	flavor flavor
}

func NewGRPC(engine *tmpl.Engine) *Generator {
	return &Generator{engine: engine, flavor: grpcFlavor}
}

func NewConnect(engine *tmpl.Engine) *Generator {
	return &Generator{engine: engine, flavor: connectFlavor}
}

func (g *Generator) Protocol() spec.Protocol { return spec.ProtocolRPC }
func (g *Generator) Framework() string       { return g.flavor.framework }
func (g *Generator) Description() string     { return g.flavor.description }

func (g *Generator) Render(ctx context.Context, rc *render.Context) (*render.FileSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs := render.NewFileSet()
	for _, n := range rc.Notes() {
		fs.Warn("%s", n)
	}

	pf := NewFile(rc)
	if err := fs.AddString("proto/"+pf.Path(), pf.Source(rc.Module)); err != nil {
		return nil, err
	}
	set, err := pf.DescriptorSet(rc.Module)
	if err != nil {
		return nil, err
	}
	if err := fs.Add(DescriptorFile, set); err != nil {
		return nil, err
	}

	bufYAML, err := yaml.Marshal(bufConfig{Version: "v2", Modules: []bufModule{{Path: "proto"}}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode buf.yaml: %w", err)
	}
	if err := fs.Add("buf.yaml", bufYAML); err != nil {
		return nil, err
	}
	genYAML, err := yaml.Marshal(bufGenConfig{Version: "v2", Plugins: []bufPlugin{
		{Remote: "buf.build/protocolbuffers/go", Out: "gen", Opt: []string{"paths=source_relative"}},
		{Remote: g.flavor.plugin, Out: "gen", Opt: []string{"paths=source_relative"}},
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode buf.gen.yaml: %w", err)
	}
	if err := fs.Add("buf.gen.yaml", genYAML); err != nil {
		return nil, err
	}

	data := map[string]any{
		"Ctx":           rc,
		"Requires":      g.flavor.requires,
		"Service":       pf.Service,
		"ProtoPackage":  pf.Package,
		"GoPackage":     pf.GoPackage,
		"GoPackagePath": "gen/" + pf.GoPath,
	}
	files := [][2]string{
		{"go.mod", "common/go.mod"},
		{"server.go", g.flavor.template},
		{"store.go", "common/store.go"},
	}
	if rc.NeedsAuthGuard() {
		files = append(files, [2]string{"credentials.go", "common/credentials.go"})
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := g.engine.RenderTo(fs, f[0], f[1], data); err != nil {
			return nil, err
		}
	}

	for _, e := range rc.Entities {
		if len(e.Links) > 0 {
			fs.Warn("relations are carried as id fields; nested messages are not generated")
			break
		}
	}
	if rc.SQL() {
		fs.Warn("the RPC server stores records in memory; no SQL schema is generated")
	}

	if err := g.engine.RenderReadme(fs, rc, false, "buf generate", "go mod tidy", "go run ."); err != nil {
		return nil, err
	}
	return fs, nil
}

type bufConfig struct {
	Version string      `yaml:"version"`
	Modules []bufModule `yaml:"modules"`
}

type bufModule struct {
	Path string `yaml:"path"`
}

type bufGenConfig struct {
	Version string      `yaml:"version"`
	Plugins []bufPlugin `yaml:"plugins"`
}

type bufPlugin struct {
	Remote string   `yaml:"remote"`
	Out    string   `yaml:"out"`
	Opt    []string `yaml:"opt,omitempty"`
}
