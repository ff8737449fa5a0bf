// Package report renders classified probe outcomes into the fixed
// human-readable diagnostic blocks printed on stdout.
package report

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"text/template"

	sprig "github.com/Masterminds/sprig/v3"

	"github.com/forgeprobe/forgeprobe/internal/probe"
	"github.com/forgeprobe/forgeprobe/internal/sdapi"
)

// Renderer owns the compiled diagnostic blocks. Blocks are inline templates
// compiled once over a sprig function map; environment and filesystem helpers
// are removed because the blocks are static and fully data-driven.
type Renderer struct {
	preamble *template.Template
	blocks   map[probe.Kind]*template.Template
}

// blockData is the single shape every block renders from. Fields irrelevant
// to a given block stay zero.
type blockData struct {
	URL     string
	BaseURL string
	Host    string
	Port    string
	Network string
	Status  int
	Body    string
	Models  []sdapi.Model
	Cause   string
}

// NewRenderer compiles every diagnostic block up front so rendering cannot
// fail on template syntax at report time.
func NewRenderer() (*Renderer, error) {
	funcs := sprig.TxtFuncMap()
	restricted := []string{
		"env",
		"expandenv",
		"readDir",
		"mustReadDir",
		"readFile",
		"mustReadFile",
		"glob",
	}
	for _, name := range restricted {
		delete(funcs, name)
	}

	preamble, err := compile("preamble", preambleSource, funcs)
	if err != nil {
		return nil, err
	}

	blocks := make(map[probe.Kind]*template.Template, len(blockSources))
	for kind, source := range blockSources {
		tmpl, err := compile(string(kind), source, funcs)
		if err != nil {
			return nil, err
		}
		blocks[kind] = tmpl
	}

	return &Renderer{preamble: preamble, blocks: blocks}, nil
}

func compile(name, source string, funcs template.FuncMap) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("report: compile %q: %w", name, err)
	}
	return tmpl, nil
}

// WritePreamble prints the announcement line emitted before the request goes
// out, so the target is visible even when the run dies before an outcome.
func (r *Renderer) WritePreamble(w io.Writer, targetURL string) error {
	return r.render(w, r.preamble, blockData{URL: targetURL})
}

// Write renders the diagnostic block matching the outcome kind.
func (r *Renderer) Write(w io.Writer, outcome probe.Outcome) error {
	tmpl, ok := r.blocks[outcome.Kind]
	if !ok {
		return fmt.Errorf("report: no block for outcome kind %q", outcome.Kind)
	}
	return r.render(w, tmpl, buildData(outcome))
}

// render executes into a buffer first so a mid-render failure never leaves a
// half-printed block on the stream.
func (r *Renderer) render(w io.Writer, tmpl *template.Template, data blockData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("report: execute %q: %w", tmpl.Name(), err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("report: write %q: %w", tmpl.Name(), err)
	}
	return nil
}

// buildData derives block fields from an outcome. Host, port, and network
// hints come from the probed URL so the troubleshooting tips talk about the
// address that was actually dialed.
func buildData(outcome probe.Outcome) blockData {
	data := blockData{
		URL:    outcome.URL,
		Status: outcome.Status,
		Body:   outcome.Body,
		Models: outcome.Models,
	}
	if outcome.Err != nil {
		data.Cause = outcome.Err.Error()
	}
	parsed, err := url.Parse(outcome.URL)
	if err != nil || parsed.Host == "" {
		return data
	}
	data.BaseURL = parsed.Scheme + "://" + parsed.Host
	data.Host = parsed.Hostname()
	data.Port = parsed.Port()
	if data.Port == "" {
		if parsed.Scheme == "https" {
			data.Port = "443"
		} else {
			data.Port = "80"
		}
	}
	data.Network = networkHint(data.Host)
	return data
}

// networkHint widens an IPv4 host into its /24 wildcard (192.168.73.x) so the
// same-network tip reads naturally. Hostnames and IPv6 addresses are echoed
// unchanged.
func networkHint(host string) string {
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return host
	}
	parts := strings.Split(ip.To4().String(), ".")
	parts[3] = "x"
	return strings.Join(parts, ".")
}
