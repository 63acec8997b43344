package handler

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const protoFile = "omnipos/backoffice/v1/category_explorer.proto"

// File_category_explorer is the descriptor of the service, registered in
// protoregistry.GlobalFiles so server reflection can describe it.
var File_category_explorer protoreflect.FileDescriptor

func init() {
	fd, err := buildFileDescriptor()
	if err != nil {
		panic(err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(err)
	}
	File_category_explorer = fd
}

func buildFileDescriptor() (protoreflect.FileDescriptor, error) {
	empty := typeName(&emptypb.Empty{})
	strct := typeName(&structpb.Struct{})
	int64Value := typeName(&wrapperspb.Int64Value{})

	method := func(name, in string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(in),
			OutputType: proto.String(strct),
		}
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(protoFile),
		Package: proto.String("omnipos.backoffice.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			(&emptypb.Empty{}).ProtoReflect().Descriptor().ParentFile().Path(),
			(&structpb.Struct{}).ProtoReflect().Descriptor().ParentFile().Path(),
			(&wrapperspb.Int64Value{}).ProtoReflect().Descriptor().ParentFile().Path(),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("CategoryExplorerService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("GetForest", empty),
				method("Reload", strct),
				method("Expand", int64Value),
				method("Collapse", int64Value),
				method("Select", int64Value),
				method("ClearSelection", empty),
				method("RefreshDetail", empty),
				method("ListCategories", strct),
			},
		}},
	}
	return protodesc.NewFile(fdp, protoregistry.GlobalFiles)
}

func typeName(m proto.Message) string {
	return "." + string(m.ProtoReflect().Descriptor().FullName())
}
