package scanner

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/unique3900/devtul/internal/database/models"
)

// TLSChecker inspects the certificate chain and negotiated protocol version.
type TLSChecker struct {
	logger  *slog.Logger
	timeout time.Duration
}

func NewTLSChecker(logger *slog.Logger, timeout time.Duration) *TLSChecker {
	return &TLSChecker{logger: logger, timeout: timeout}
}

func (c *TLSChecker) Type() models.ScanType {
	return models.ScanTypeSSLTLS
}

func (c *TLSChecker) Check(ctx context.Context, target string) ([]Finding, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing target: %w", err)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "443"
	}

	if u.Scheme == "http" {
		return []Finding{{
			URL:      target,
			Message:  "Site is served over plain HTTP",
			Help:     "Serve the site over HTTPS and redirect HTTP traffic.",
			Severity: models.SeverityCritical,
			Tags:     []string{"transport-security"},
			Category: "tls",
		}}, nil
	}

	dialer := &net.Dialer{Timeout: c.timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, port), &tls.Config{
		ServerName: host,
	})
	if err != nil {
		return []Finding{{
			URL:      target,
			Message:  "TLS handshake failed: certificate is invalid or untrusted",
			Help:     "Install a certificate that is valid for this hostname and chains to a trusted root.",
			Severity: models.SeverityCritical,
			Tags:     []string{"transport-security"},
			Category: "tls",
			Details:  map[string]interface{}{"error": err.Error()},
		}}, nil
	}
	defer conn.Close()

	var findings []Finding
	state := conn.ConnectionState()

	if state.Version < tls.VersionTLS12 {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Server negotiated a TLS version older than 1.2",
			Help:     "Disable TLS 1.0 and 1.1; they are deprecated and vulnerable to downgrade attacks.",
			Severity: models.SeverityHigh,
			Tags:     []string{"transport-security"},
			Category: "tls",
			Details:  map[string]interface{}{"version": state.Version},
		})
	}

	if len(state.PeerCertificates) > 0 {
		leaf := state.PeerCertificates[0]
		now := time.Now()
		switch {
		case now.After(leaf.NotAfter):
			findings = append(findings, Finding{
				URL:      target,
				Message:  "TLS certificate has expired",
				Help:     "Renew the certificate immediately; browsers are rejecting connections.",
				Severity: models.SeverityCritical,
				Tags:     []string{"transport-security"},
				Category: "tls",
				Details:  map[string]interface{}{"not_after": leaf.NotAfter},
			})
		case leaf.NotAfter.Sub(now) < 30*24*time.Hour:
			findings = append(findings, Finding{
				URL:      target,
				Message:  fmt.Sprintf("TLS certificate expires in %d days", int(leaf.NotAfter.Sub(now).Hours()/24)),
				Help:     "Renew the certificate before it expires.",
				Severity: models.SeverityHigh,
				Tags:     []string{"transport-security"},
				Category: "tls",
				Details:  map[string]interface{}{"not_after": leaf.NotAfter},
			})
		}
	}

	c.logger.Debug("tls check complete", "target", target, "findings", len(findings))
	return findings, nil
}
