// Package certificate provides the PEM identity shared by every WebRTC endpoint of the process.
//
// The identity is either a file named in the configuration or a self-signed key and
// certificate generated once with certtool into a temporary directory.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certtool"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/config"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/logging"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/tempdir"
	"go.uber.org/multierr"
)

const (
	KeyPemCertificate = "modules.kurento.WebRtcEndpoint.pemCertificate"

	DefaultTool         = "certtool"
	DefaultOrganization = "kurento"
	DefaultTimeout      = 30 * time.Second

	tempDirPattern   = "WebRtcEndpoint_*"
	keyFileName      = "autoCertkey.pem"
	templateFileName = "autoCerttool.tmpl"
)

var ErrProvisioning = errors.New("certificate provisioning failed")

// Identity locates the PEM bundle holding the private key followed by the certificate.
type Identity struct {
	Path string
	// Generated is true when the bundle lives in the provisioner's temporary directory.
	Generated bool
}

func (i Identity) Valid() bool {
	return i.Path != ""
}

type Option func(*Provisioner)

// WithTempBase sets the directory the temporary directory is created in.
func WithTempBase(dir string) Option {
	return func(p *Provisioner) {
		p.tempBase = dir
	}
}

func WithTool(path string) Option {
	return func(p *Provisioner) {
		p.tool = path
	}
}

func WithOrganization(organization string) Option {
	return func(p *Provisioner) {
		p.organization = organization
	}
}

// WithTimeout bounds every single tool invocation. Zero or negative disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Provisioner) {
		p.timeout = timeout
	}
}

// Provisioner resolves the Identity at most once successfully and hands the same value to
// every caller afterwards. Failed generations are not remembered, the next call tries again.
type Provisioner struct {
	runner       certtool.Runner
	tempBase     string
	tool         string
	organization string
	timeout      time.Duration

	// mu is held for the whole resolution, including the tool invocations.
	mu       sync.Mutex
	identity *Identity
	dir      *tempdir.Dir
}

func NewProvisioner(runner certtool.Runner, opts ...Option) *Provisioner {
	result := &Provisioner{
		runner:       runner,
		tool:         DefaultTool,
		organization: DefaultOrganization,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(result)
	}
	return result
}

// Resolve returns the process identity, generating it on the first call when the
// configuration does not name a usable certificate file. The returned error wraps
// ErrProvisioning and the tool error; the Identity is invalid in that case.
func (p *Provisioner) Resolve(ctx context.Context, node config.Node) (Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.identity != nil {
		return *p.identity, nil
	}

	if path, ok := configuredPath(node); ok {
		logging.Infof(logging.ProtoCERT, "Using configured PEM certificate <u>%s</u>", path)
		p.identity = &Identity{Path: path}
		return *p.identity, nil
	}

	logging.Infof(logging.ProtoCERT, "No PEM certificate configured, generating a self signed one with <u>%s</u>", p.tool)
	identity, err := p.generate(ctx)
	if err != nil {
		logging.Errorf(logging.ProtoCERT, "Self signed certificate generation failed: %s", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrProvisioning, err)
	}
	p.identity = &identity
	logFingerprint(identity.Path)
	return identity, nil
}

// Close removes the generated certificate, if any. A later Resolve generates a new one.
func (p *Provisioner) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dir == nil {
		return nil
	}
	err := p.dir.Release()
	if err == nil {
		logging.Infof(logging.ProtoCERT, "Removed temporary certificate directory <u>%s</u>", p.dir.Path())
	}
	p.dir = nil
	if p.identity != nil && p.identity.Generated {
		p.identity = nil
	}
	return err
}

// configuredPath reports the absolute certificate path named by the configuration. A
// relative name needs configPath; without it the configured name is not usable.
func configuredPath(node config.Node) (string, bool) {
	name, err := node.GetString(KeyPemCertificate)
	if err != nil || name == "" {
		return "", false
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), true
	}
	base, err := node.GetString(config.KeyConfigPath)
	if err != nil {
		logging.Warningf(logging.ProtoCERT, "PEM certificate <u>%s</u> is relative but %s is not set: %s", name, config.KeyConfigPath, err)
		return "", false
	}
	path := filepath.Join(base, name)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, true
}

func (p *Provisioner) generate(ctx context.Context) (_ Identity, err error) {
	dir, err := tempdir.Create(p.tempBase, tempDirPattern)
	if err != nil {
		return Identity{}, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, dir.Release())
		}
	}()

	keyFile := dir.Join(keyFileName)
	err = p.run(ctx, certtool.Command{
		Name: p.tool,
		Args: []string{"--generate-privkey", "--outfile", keyFile},
	})
	if err != nil {
		return Identity{}, err
	}

	templateFile := dir.Join(templateFileName)
	if err = os.WriteFile(templateFile, []byte("organization = "+p.organization+"\n"), 0o600); err != nil {
		return Identity{}, fmt.Errorf("writing certtool template: %w", err)
	}

	out, err := os.OpenFile(keyFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Identity{}, fmt.Errorf("opening %s: %w", keyFile, err)
	}
	err = p.run(ctx, certtool.Command{
		Name:   p.tool,
		Args:   []string{"--generate-self-signed", "--load-privkey", keyFile, "--template", templateFile},
		Stdout: out,
	})
	err = multierr.Append(err, out.Close())
	if err != nil {
		return Identity{}, err
	}

	p.dir = dir
	return Identity{Path: keyFile, Generated: true}, nil
}

func (p *Provisioner) run(ctx context.Context, cmd certtool.Command) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.runner.Run(ctx, cmd)
}
