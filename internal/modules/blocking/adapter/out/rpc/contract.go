package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "rule_backend"
	serviceName       = "webtally.rules.v1.RuleBackend"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodReplace     = "/" + serviceName + "/ReplaceRules"
	methodListRules   = "/" + serviceName + "/ListRules"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "WEBTALLY_RULE_BACKEND",
	MagicCookieValue: "webtally",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Rule struct {
	ID            int      `json:"id"`
	Domain        string   `json:"domain"`
	URLFilter     string   `json:"url_filter"`
	Action        string   `json:"action"`
	RedirectURL   string   `json:"redirect_url"`
	ResourceTypes []string `json:"resource_types"`
}

type RuleList struct {
	Rules []Rule `json:"rules"`
}

type RuleBackendServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	// ReplaceRules installs in as the whole managed set. An empty list
	// clears it.
	ReplaceRules(ctx context.Context, in *RuleList) (*Empty, error)
	ListRules(ctx context.Context, in *Empty) (*RuleList, error)
}

type RuleBackendClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	ReplaceRules(ctx context.Context, in *RuleList) error
	ListRules(ctx context.Context) (*RuleList, error)
}

type ruleBackendClient struct {
	conn *grpc.ClientConn
}

func NewRuleBackendClient(conn *grpc.ClientConn) RuleBackendClient {
	return &ruleBackendClient{conn: conn}
}

func (c *ruleBackendClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ruleBackendClient) ReplaceRules(ctx context.Context, in *RuleList) error {
	return c.conn.Invoke(ctx, methodReplace, in, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

func (c *ruleBackendClient) ListRules(ctx context.Context) (*RuleList, error) {
	out := &RuleList{}
	if err := c.conn.Invoke(ctx, methodListRules, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// unary adapts a typed server method to a grpc.MethodDesc handler.
func unary[Req any, Resp any](fullMethod string, call func(context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*Req)
			if !ok {
				return nil, fmt.Errorf("invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, in, info, handler)
	}
}

func RegisterRuleBackendServer(server grpc.ServiceRegistrar, impl RuleBackendServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*RuleBackendServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetMetadata", Handler: unary(methodGetMetadata, impl.GetMetadata)},
			{MethodName: "ReplaceRules", Handler: unary(methodReplace, impl.ReplaceRules)},
			{MethodName: "ListRules", Handler: unary(methodListRules, impl.ListRules)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/rule-backend-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl RuleBackendServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterRuleBackendServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewRuleBackendClient(conn), nil
}

func PluginMap(impl RuleBackendServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
