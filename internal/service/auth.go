package service

import (
	"fmt"
	"net/http"
	"strings"
)

// Identity is what the external auth layer resolved for a caller: an opaque
// subject plus the set of granted permission strings. Permission resolution
// itself happens outside this service.
type Identity struct {
	Subject     string
	Permissions []string
}

// Auther resolves the caller identity for an incoming upgrade request.
type Auther interface {
	Resolve(r *http.Request) (Identity, error)
}

// headerAuther trusts identity headers populated by the fronting gateway.
// It is the default collaborator; production deployments substitute a
// verifier for their token format through the fx graph.
type headerAuther struct{}

func NewHeaderAuther() Auther {
	return &headerAuther{}
}

func (headerAuther) Resolve(r *http.Request) (Identity, error) {
	subject := r.Header.Get("X-Dashboard-Subject")
	if subject == "" {
		subject = r.URL.Query().Get("subject")
	}
	if subject == "" {
		return Identity{}, fmt.Errorf("auth: missing subject")
	}

	raw := r.Header.Get("X-Dashboard-Permissions")
	if raw == "" {
		raw = r.URL.Query().Get("permissions")
	}

	var perms []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}

	return Identity{Subject: subject, Permissions: perms}, nil
}
