// Command hostsblock is a rule backend that enforces blocked domains through
// a managed region of the hosts file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-plugin"

	pluginrpc "webtally/internal/modules/blocking/adapter/out/rpc"
	"webtally/internal/platform/managedblock"
)

const (
	hostsFileEnv     = "WEBTALLY_HOSTS_FILE"
	defaultHostsFile = "/etc/hosts"
	sinkAddress      = "0.0.0.0"
	redirectPrefix   = "# redirect "
)

var block = managedblock.Block{
	Start: "# >>> webtally blocked sites >>>",
	End:   "# <<< webtally blocked sites <<<",
}

type hostsFile struct {
	mu   sync.Mutex
	path string
}

func (h *hostsFile) read() (string, error) {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read hosts file: %w", err)
	}
	return string(raw), nil
}

// write swaps the file through a sibling temp file so a failed write leaves
// the previous contents in place.
func (h *hostsFile) write(text string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(h.path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".hosts-*")
	if err != nil {
		return fmt.Errorf("create temp hosts file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp hosts file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp hosts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp hosts file: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		return fmt.Errorf("replace hosts file: %w", err)
	}
	return nil
}

// Replace rewrites the managed region once. Empty rules drop the region.
func (h *hostsFile) Replace(rules []pluginrpc.Rule) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	text, err := h.read()
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		if _, ok := block.Content(text); !ok {
			return nil
		}
		return h.write(block.Remove(text))
	}
	return h.write(block.Replace(text, render(rules)))
}

func (h *hostsFile) List() ([]pluginrpc.Rule, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	text, err := h.read()
	if err != nil {
		return nil, err
	}
	content, ok := block.Content(text)
	if !ok {
		return []pluginrpc.Rule{}, nil
	}
	return parse(content), nil
}

func render(rules []pluginrpc.Rule) string {
	lines := []string{}
	if len(rules) > 0 && rules[0].RedirectURL != "" {
		lines = append(lines, redirectPrefix+rules[0].RedirectURL)
	}
	for _, rule := range rules {
		lines = append(lines, sinkAddress+" "+rule.Domain)
		if !strings.HasPrefix(rule.Domain, "www.") {
			lines = append(lines, sinkAddress+" www."+rule.Domain)
		}
	}
	return strings.Join(lines, "\n")
}

func parse(content string) []pluginrpc.Rule {
	redirect := ""
	hosts := map[string]bool{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, redirectPrefix) {
			redirect = strings.TrimPrefix(line, redirectPrefix)
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[0] != sinkAddress {
			continue
		}
		hosts[fields[1]] = true
	}
	domains := make([]string, 0, len(hosts))
	for host := range hosts {
		if bare, ok := strings.CutPrefix(host, "www."); ok && hosts[bare] {
			continue
		}
		domains = append(domains, host)
	}
	sort.Strings(domains)
	rules := make([]pluginrpc.Rule, 0, len(domains))
	for i, domain := range domains {
		rules = append(rules, pluginrpc.Rule{
			ID:            i + 1,
			Domain:        domain,
			URLFilter:     "*://*." + domain + "/*",
			Action:        "redirect",
			RedirectURL:   redirect,
			ResourceTypes: []string{"main_frame"},
		})
	}
	return rules
}

type server struct {
	hosts *hostsFile
}

func (s *server) GetMetadata(_ context.Context, _ *pluginrpc.Empty) (*pluginrpc.Metadata, error) {
	return &pluginrpc.Metadata{Name: "hostsblock", Version: "1.0.0"}, nil
}

func (s *server) ReplaceRules(_ context.Context, in *pluginrpc.RuleList) (*pluginrpc.Empty, error) {
	if err := s.hosts.Replace(in.Rules); err != nil {
		return nil, err
	}
	return &pluginrpc.Empty{}, nil
}

func (s *server) ListRules(_ context.Context, _ *pluginrpc.Empty) (*pluginrpc.RuleList, error) {
	rules, err := s.hosts.List()
	if err != nil {
		return nil, err
	}
	return &pluginrpc.RuleList{Rules: rules}, nil
}

func main() {
	path := os.Getenv(hostsFileEnv)
	if strings.TrimSpace(path) == "" {
		path = defaultHostsFile
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginMap(&server{hosts: &hostsFile{path: path}}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
