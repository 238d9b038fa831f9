package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pluginrpc "webtally/internal/modules/blocking/adapter/out/rpc"
)

func TestReplaceListClearKeepsForeignEntries(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "hosts")
	original := "127.0.0.1 localhost\n::1 localhost\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatalf("seed hosts: %v", err)
	}
	srv := &server{hosts: &hostsFile{path: path}}
	ctx := context.Background()

	rules := &pluginrpc.RuleList{Rules: []pluginrpc.Rule{
		{ID: 1, Domain: "reddit.com", RedirectURL: "http://127.0.0.1:5002/blocked"},
		{ID: 2, Domain: "youtube.com", RedirectURL: "http://127.0.0.1:5002/blocked"},
	}}
	if _, err := srv.ReplaceRules(ctx, rules); err != nil {
		t.Fatalf("replace: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read hosts: %v", err)
	}
	text := string(raw)
	for _, want := range []string{"127.0.0.1 localhost", "0.0.0.0 reddit.com", "0.0.0.0 www.youtube.com"} {
		if !strings.Contains(text, want) {
			t.Fatalf("hosts file missing %q:\n%s", want, text)
		}
	}

	listed, err := srv.ListRules(ctx, &pluginrpc.Empty{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Rules) != 2 || listed.Rules[0].Domain != "reddit.com" || listed.Rules[1].Domain != "youtube.com" {
		t.Fatalf("unexpected listed rules: %+v", listed.Rules)
	}
	if listed.Rules[0].RedirectURL != "http://127.0.0.1:5002/blocked" {
		t.Fatalf("redirect not recovered: %+v", listed.Rules[0])
	}

	if _, err := srv.ReplaceRules(ctx, &pluginrpc.RuleList{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	raw, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read hosts: %v", err)
	}
	if string(raw) != original {
		t.Fatalf("clear did not restore hosts file:\n%q", string(raw))
	}
}

func TestListWithoutManagedRegion(t *testing.T) {
	t.Parallel()
	srv := &server{hosts: &hostsFile{path: filepath.Join(t.TempDir(), "missing")}}
	listed, err := srv.ListRules(context.Background(), &pluginrpc.Empty{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Rules) != 0 {
		t.Fatalf("expected no rules, got %+v", listed.Rules)
	}
}

func TestReplaceSwapsManagedRegionInOneWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts")
	if err := os.WriteFile(path, []byte("127.0.0.1 localhost\n"), 0o640); err != nil {
		t.Fatalf("seed hosts: %v", err)
	}
	srv := &server{hosts: &hostsFile{path: path}}
	ctx := context.Background()

	first := &pluginrpc.RuleList{Rules: []pluginrpc.Rule{{ID: 1, Domain: "reddit.com"}}}
	if _, err := srv.ReplaceRules(ctx, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	second := &pluginrpc.RuleList{Rules: []pluginrpc.Rule{{ID: 1, Domain: "youtube.com"}}}
	if _, err := srv.ReplaceRules(ctx, second); err != nil {
		t.Fatalf("replace: %v", err)
	}

	listed, err := srv.ListRules(ctx, &pluginrpc.Empty{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Rules) != 1 || listed.Rules[0].Domain != "youtube.com" {
		t.Fatalf("expected only youtube.com, got %+v", listed.Rules)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat hosts: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("mode not preserved: %v", info.Mode().Perm())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestReplaceFailureLeavesHostsFileIntact(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts")
	srv := &server{hosts: &hostsFile{path: path}}
	ctx := context.Background()
	if err := os.WriteFile(path, []byte("127.0.0.1 localhost\n"), 0o644); err != nil {
		t.Fatalf("seed hosts: %v", err)
	}
	first := &pluginrpc.RuleList{Rules: []pluginrpc.Rule{{ID: 1, Domain: "reddit.com"}}}
	if _, err := srv.ReplaceRules(ctx, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read hosts: %v", err)
	}

	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("lock dir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
	second := &pluginrpc.RuleList{Rules: []pluginrpc.Rule{{ID: 1, Domain: "youtube.com"}}}
	if _, err := srv.ReplaceRules(ctx, second); err == nil {
		t.Fatalf("expected replace to fail in a read-only directory")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read hosts: %v", err)
	}
	if string(after) != string(before) {
		t.Fatalf("hosts file changed after failed replace:\n%s", after)
	}
}
