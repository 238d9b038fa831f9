package out

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	pluginrpc "webtally/internal/modules/blocking/adapter/out/rpc"
	"webtally/internal/modules/blocking/domain"
	blockingout "webtally/internal/modules/blocking/port/out"
)

var _ blockingout.RuleInstaller = (*PluginRuleInstaller)(nil)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// PluginRuleInstaller drives an out-of-process rule backend over go-plugin.
// The plugin process is started on first use and restarted after a failed
// call.
type PluginRuleInstaller struct {
	binary string
	logger hclog.Logger

	mu     sync.Mutex
	client *plugin.Client
	rpc    pluginrpc.RuleBackendClient
}

func NewPluginRuleInstaller(binary string, logger hclog.Logger) *PluginRuleInstaller {
	return &PluginRuleInstaller{binary: binary, logger: logger}
}

func (p *PluginRuleInstaller) Name() string {
	return "plugin"
}

func (p *PluginRuleInstaller) Replace(ctx context.Context, rules domain.RuleSet) error {
	payload := &pluginrpc.RuleList{Rules: make([]pluginrpc.Rule, 0, len(rules.Rules))}
	for _, rule := range rules.Rules {
		payload.Rules = append(payload.Rules, pluginrpc.Rule{
			ID:            rule.ID,
			Domain:        rule.Domain,
			URLFilter:     rule.URLFilter,
			Action:        rule.Action,
			RedirectURL:   rule.RedirectURL,
			ResourceTypes: rule.ResourceTypes,
		})
	}
	return p.call(ctx, func(callCtx context.Context, backend pluginrpc.RuleBackendClient) error {
		return backend.ReplaceRules(callCtx, payload)
	})
}

func (p *PluginRuleInstaller) Installed(ctx context.Context) (domain.RuleSet, error) {
	out := domain.RuleSet{Rules: []domain.Rule{}}
	err := p.call(ctx, func(callCtx context.Context, backend pluginrpc.RuleBackendClient) error {
		response, err := backend.ListRules(callCtx)
		if err != nil {
			return err
		}
		for _, rule := range response.Rules {
			out.Rules = append(out.Rules, domain.Rule{
				ID:            rule.ID,
				Domain:        rule.Domain,
				URLFilter:     rule.URLFilter,
				Action:        rule.Action,
				RedirectURL:   rule.RedirectURL,
				ResourceTypes: rule.ResourceTypes,
			})
		}
		return nil
	})
	return out, err
}

// Metadata reports the name and version the backend advertises.
func (p *PluginRuleInstaller) Metadata(ctx context.Context) (pluginrpc.Metadata, error) {
	meta := pluginrpc.Metadata{}
	err := p.call(ctx, func(callCtx context.Context, backend pluginrpc.RuleBackendClient) error {
		response, err := backend.GetMetadata(callCtx)
		if err != nil {
			return err
		}
		meta = *response
		return nil
	})
	return meta, err
}

func (p *PluginRuleInstaller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func (p *PluginRuleInstaller) call(ctx context.Context, fn func(context.Context, pluginrpc.RuleBackendClient) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	backend, err := p.connect()
	if err != nil {
		return err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	if err := fn(callCtx, backend); err != nil {
		p.reset()
		if callCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("rule backend timed out: %w", err)
		}
		return fmt.Errorf("rule backend call: %w", err)
	}
	return nil
}

func (p *PluginRuleInstaller) connect() (pluginrpc.RuleBackendClient, error) {
	if p.rpc != nil && p.client != nil && !p.client.Exited() {
		return p.rpc, nil
	}
	p.reset()
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.Command(p.binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           p.logger.Named("rule-backend"),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start rule backend: %w", err)
	}
	raw, err := rpcClient.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense rule backend: %w", err)
	}
	typed, ok := raw.(pluginrpc.RuleBackendClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("rule backend client type mismatch")
	}
	p.client = client
	p.rpc = typed
	return typed, nil
}

func (p *PluginRuleInstaller) reset() {
	if p.client != nil {
		p.client.Kill()
	}
	p.client = nil
	p.rpc = nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
