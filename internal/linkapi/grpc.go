package linkapi

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "linkplanner.v1.LinkBudgetService"

// LinkBudgetServer is the server API for the link budget service.
type LinkBudgetServer interface {
	EvaluateLink(context.Context, *EvaluateLinkRequest) (*EvaluateLinkResponse, error)
	AnalyzeScenario(context.Context, *AnalyzeScenarioRequest) (*EvaluateLinkResponse, error)
	EstimateFadeMargin(context.Context, *EstimateFadeMarginRequest) (*EstimateFadeMarginResponse, error)
	ListPresets(context.Context, *ListPresetsRequest) (*ListPresetsResponse, error)
	GetPreset(context.Context, *GetPresetRequest) (*GetPresetResponse, error)
}

var _ LinkBudgetServer = (*Service)(nil)

// LinkBudgetServiceDesc describes the service for grpc.Server. Messages are
// plain structs encoded with the json codec.
var LinkBudgetServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinkBudgetServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "EvaluateLink",
			Handler:    unaryHandler("EvaluateLink", LinkBudgetServer.EvaluateLink),
		},
		{
			MethodName: "AnalyzeScenario",
			Handler:    unaryHandler("AnalyzeScenario", LinkBudgetServer.AnalyzeScenario),
		},
		{
			MethodName: "EstimateFadeMargin",
			Handler:    unaryHandler("EstimateFadeMargin", LinkBudgetServer.EstimateFadeMargin),
		},
		{
			MethodName: "ListPresets",
			Handler:    unaryHandler("ListPresets", LinkBudgetServer.ListPresets),
		},
		{
			MethodName: "GetPreset",
			Handler:    unaryHandler("GetPreset", LinkBudgetServer.GetPreset),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterLinkBudgetServer registers srv on s.
func RegisterLinkBudgetServer(s grpc.ServiceRegistrar, srv LinkBudgetServer) {
	s.RegisterService(&LinkBudgetServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unaryHandler[Req, Resp any](name string, call func(LinkBudgetServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	method := fullMethod(name)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LinkBudgetServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LinkBudgetServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client is a typed client for LinkBudgetServer. Every call is sent with the
// json content-subtype.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) EvaluateLink(ctx context.Context, in *EvaluateLinkRequest, opts ...grpc.CallOption) (*EvaluateLinkResponse, error) {
	out := new(EvaluateLinkResponse)
	if err := c.invoke(ctx, "EvaluateLink", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AnalyzeScenario(ctx context.Context, in *AnalyzeScenarioRequest, opts ...grpc.CallOption) (*EvaluateLinkResponse, error) {
	out := new(EvaluateLinkResponse)
	if err := c.invoke(ctx, "AnalyzeScenario", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EstimateFadeMargin(ctx context.Context, in *EstimateFadeMarginRequest, opts ...grpc.CallOption) (*EstimateFadeMarginResponse, error) {
	out := new(EstimateFadeMarginResponse)
	if err := c.invoke(ctx, "EstimateFadeMargin", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListPresets(ctx context.Context, in *ListPresetsRequest, opts ...grpc.CallOption) (*ListPresetsResponse, error) {
	out := new(ListPresetsResponse)
	if err := c.invoke(ctx, "ListPresets", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPreset(ctx context.Context, in *GetPresetRequest, opts ...grpc.CallOption) (*GetPresetResponse, error) {
	out := new(GetPresetResponse)
	if err := c.invoke(ctx, "GetPreset", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, name string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(name), in, out, opts...)
}
