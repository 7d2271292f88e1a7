package auth

import (
	"context"
	"strings"

	"github.com/primewheels/agent-service/internal/domain"
)

// RoleResolver decides which marketplace role an identity holds.
type RoleResolver interface {
	ResolveRole(ctx context.Context, id domain.Identity) (domain.Role, error)
}

// EmailListResolver grants roles from configured email lists. Matching
// ignores case. Anyone not listed is a plain user.
type EmailListResolver struct {
	hosts  map[string]struct{}
	agents map[string]struct{}
}

// NewEmailListResolver builds a resolver from host and agent emails.
func NewEmailListResolver(hostEmails, agentEmails []string) *EmailListResolver {
	return &EmailListResolver{
		hosts:  emailSet(hostEmails),
		agents: emailSet(agentEmails),
	}
}

func (r *EmailListResolver) ResolveRole(_ context.Context, id domain.Identity) (domain.Role, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return domain.RoleUser, nil
	}
	if _, ok := r.hosts[email]; ok {
		return domain.RoleHost, nil
	}
	if _, ok := r.agents[email]; ok {
		return domain.RoleAgent, nil
	}
	return domain.RoleUser, nil
}

func emailSet(emails []string) map[string]struct{} {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}
