package rpc

import (
	"fmt"
	"path"
	"unicode"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/writer"
	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

const timestampImport = "google/protobuf/timestamp.proto"

// File is the protobuf model of a render context. It renders both the .proto
// source and the equivalent descriptor.
type File struct {
	Name      string
	Package   string
	GoPackage string
	GoPath    string
	Service   string
	Imports   []string
	Messages  []Message
	Methods   []Method
}

type Message struct {
	Name   string
	Fields []MessageField
}

type MessageField struct {
	Name     string
	Type     string
	Number   int32
	Repeated bool
}

type Method struct {
	Name   string
	Input  string
	Output string
}

// Path is the .proto path relative to the proto root, e.g. noteapi/v1/noteapi.proto
func (f *File) Path() string {
	return path.Join(f.GoPath, f.Name+".proto")
}

// NewFile derives messages and one service from the entities and endpoints
func NewFile(rc *render.Context) *File {
	pkg := rc.Package()
	if pkg == "" || unicode.IsDigit(rune(pkg[0])) {
		pkg = "api" + pkg
	}
	f := &File{
		Name:      pkg,
		Package:   pkg + ".v1",
		GoPackage: pkg + "v1",
		GoPath:    pkg + "/v1",
		Service:   naming.Pascal(rc.Project) + "Service",
	}
	if rc.UsesTime() {
		f.Imports = append(f.Imports, timestampImport)
	}

	for _, e := range rc.Entities {
		m := Message{Name: e.Name, Fields: []MessageField{{Name: "id", Type: "string", Number: 1}}}
		for _, fl := range e.Fields {
			m.Fields = append(m.Fields, MessageField{Name: fl.Name, Type: fl.ProtoType(), Number: int32(len(m.Fields) + 1)})
		}
		for _, l := range e.Links {
			if l.Join {
				m.Fields = append(m.Fields, MessageField{Name: l.IDsName(), Type: "string", Number: int32(len(m.Fields) + 1), Repeated: true})
			}
		}
		f.Messages = append(f.Messages, m)
	}

	for _, e := range rc.Entities {
		list := MessageField{Name: naming.Snake(e.Plural), Type: e.Name, Number: 1, Repeated: true}
		for _, ep := range e.Endpoints {
			req, resp := ep.Operation+"Request", ep.Operation+"Response"
			switch ep.Action {
			case spec.ActionList:
				f.add(Message{Name: req}, Message{Name: resp, Fields: []MessageField{list}})
				f.Methods = append(f.Methods, Method{Name: ep.Operation, Input: req, Output: resp})
			case spec.ActionGet:
				f.add(Message{Name: req, Fields: []MessageField{idField(1)}})
				f.Methods = append(f.Methods, Method{Name: ep.Operation, Input: req, Output: e.Name})
			case spec.ActionCreate:
				f.add(Message{Name: req, Fields: []MessageField{{Name: e.Snake(), Type: e.Name, Number: 1}}})
				f.Methods = append(f.Methods, Method{Name: ep.Operation, Input: req, Output: e.Name})
			case spec.ActionUpdate:
				f.add(Message{Name: req, Fields: []MessageField{idField(1), {Name: e.Snake(), Type: e.Name, Number: 2}}})
				f.Methods = append(f.Methods, Method{Name: ep.Operation, Input: req, Output: e.Name})
			case spec.ActionDelete:
				f.add(Message{Name: req, Fields: []MessageField{idField(1)}}, Message{Name: resp})
				f.Methods = append(f.Methods, Method{Name: ep.Operation, Input: req, Output: resp})
			default:
				f.add(Message{Name: req}, Message{Name: resp, Fields: []MessageField{list}})
				f.Methods = append(f.Methods, Method{Name: ep.Operation, Input: req, Output: resp})
			}
		}
	}
	return f
}

func idField(n int32) MessageField {
	return MessageField{Name: "id", Type: "string", Number: n}
}

func (f *File) add(msgs ...Message) {
	f.Messages = append(f.Messages, msgs...)
}

// Source renders the .proto text
func (f *File) Source(goModule string) string {
	w := writer.New(writer.Proto)
	w.Comment("Generated by text2api.")
	w.BlankLine()
	w.Line(`syntax = "proto3";`)
	w.BlankLine()
	w.Linef("package %s;", f.Package)
	w.BlankLine()
	for _, imp := range f.Imports {
		w.Linef("import %q;", imp)
	}
	w.BlankLine()
	w.Linef("option go_package = %q;", f.goPackageOption(goModule))

	w.BlankLine()
	w.Block("service "+f.Service+" {", "}", func() {
		for _, m := range f.Methods {
			w.Linef("rpc %s(%s) returns (%s);", m.Name, m.Input, m.Output)
		}
	})

	for _, m := range f.Messages {
		w.BlankLine()
		if len(m.Fields) == 0 {
			w.Linef("message %s {}", m.Name)
			continue
		}
		w.Block("message "+m.Name+" {", "}", func() {
			for _, fl := range m.Fields {
				label := ""
				if fl.Repeated {
					label = "repeated "
				}
				w.Linef("%s%s %s = %d;", label, fl.Type, fl.Name, fl.Number)
			}
		})
	}
	return w.String()
}

func (f *File) goPackageOption(goModule string) string {
	return goModule + "/gen/" + f.GoPath + ";" + f.GoPackage
}

var scalarTypes = map[string]descriptorpb.FieldDescriptorProto_Type{
	"string": descriptorpb.FieldDescriptorProto_TYPE_STRING,
	"int64":  descriptorpb.FieldDescriptorProto_TYPE_INT64,
	"double": descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	"bool":   descriptorpb.FieldDescriptorProto_TYPE_BOOL,
}

// Descriptor builds the FileDescriptorProto of the .proto source
func (f *File) Descriptor(goModule string) *descriptorpb.FileDescriptorProto {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(f.Path()),
		Package:    proto.String(f.Package),
		Dependency: f.Imports,
		Syntax:     proto.String("proto3"),
		Options:    &descriptorpb.FileOptions{GoPackage: proto.String(f.goPackageOption(goModule))},
	}
	for _, m := range f.Messages {
		mdp := &descriptorpb.DescriptorProto{Name: proto.String(m.Name)}
		for _, fl := range m.Fields {
			field := &descriptorpb.FieldDescriptorProto{
				Name:     proto.String(fl.Name),
				Number:   proto.Int32(fl.Number),
				JsonName: proto.String(naming.Camel(fl.Name)),
				Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			}
			if fl.Repeated {
				field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
			}
			if t, ok := scalarTypes[fl.Type]; ok {
				field.Type = t.Enum()
			} else {
				field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
				field.TypeName = proto.String(f.qualify(fl.Type))
			}
			mdp.Field = append(mdp.Field, field)
		}
		fdp.MessageType = append(fdp.MessageType, mdp)
	}

	sdp := &descriptorpb.ServiceDescriptorProto{Name: proto.String(f.Service)}
	for _, m := range f.Methods {
		sdp.Method = append(sdp.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.Name),
			InputType:  proto.String(f.qualify(m.Input)),
			OutputType: proto.String(f.qualify(m.Output)),
		})
	}
	fdp.Service = []*descriptorpb.ServiceDescriptorProto{sdp}
	return fdp
}

func (f *File) qualify(name string) string {
	if name == "google.protobuf.Timestamp" {
		return "." + name
	}
	return "." + f.Package + "." + name
}

// DescriptorSet checks the descriptor with protodesc and encodes it, with
// its imports, as a binary FileDescriptorSet
func (f *File) DescriptorSet(goModule string) ([]byte, error) {
	fdp := f.Descriptor(goModule)
	if _, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles); err != nil {
		return nil, fmt.Errorf("generated proto does not validate: %w", err)
	}
	set := &descriptorpb.FileDescriptorSet{}
	for _, imp := range f.Imports {
		if imp == timestampImport {
			set.File = append(set.File, protodesc.ToFileDescriptorProto(timestamppb.File_google_protobuf_timestamp_proto))
		}
	}
	set.File = append(set.File, fdp)
	out, err := proto.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("failed to encode descriptor set: %w", err)
	}
	return out, nil
}
