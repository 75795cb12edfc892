package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/models"

	"go.uber.org/zap"
)

// DefaultLogoutRedirect is used when no registered post-logout URI was given.
const DefaultLogoutRedirect = "/"

// SessionService covers the login session: password login for the account
// page, the userinfo endpoint and logout.
type SessionService struct {
	users   core.UserStore
	clients *ClientService
	metrics metrics.Recorder
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewSessionService(
	users core.UserStore,
	clients *ClientService,
	m metrics.Recorder,
	log *zap.SugaredLogger,
) *SessionService {
	return &SessionService{
		users:   users,
		clients: clients,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Login checks the credentials typed into the login form. It shares the
// lockout rules and denial messages of the password grant.
func (s *SessionService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := verifyPassword(ctx, s.users, s.log, s.now(), username, password)
	s.metrics.RecordLogin(err == nil)
	return user, err
}

// Userinfo returns the profile of the token subject. The response is not
// gated by scope: name, email and email_verified are always present, custom
// attributes and the joined role claim whenever the user has them.
func (s *SessionService) Userinfo(ctx context.Context, subject string) (map[string]any, error) {
	user, err := s.users.FindByID(ctx, subject)
	if errors.Is(err, core.ErrUserNotFound) {
		return nil, deny(ErrorInvalidToken, DescAccountGone)
	}
	if err != nil {
		return nil, err
	}

	roles, err := s.users.GetRoles(ctx, user)
	if err != nil {
		return nil, err
	}

	info := map[string]any{
		claims.TypeSubject:       user.ID,
		claims.TypeName:          user.UserName,
		claims.TypeEmail:         user.Email,
		claims.TypeEmailVerified: user.EmailConfirmed,
	}
	for k, v := range user.Attributes {
		if claims.IsCustomName(k) && v != "" {
			info[k] = v
		}
	}
	if len(roles) > 0 {
		info[claims.TypeRole] = claims.JoinRoles(roles)
	}
	return info, nil
}

// PostLogoutRedirect returns uri when some application registered it as a
// post-logout target and DefaultLogoutRedirect otherwise.
func (s *SessionService) PostLogoutRedirect(ctx context.Context, uri string) string {
	s.metrics.RecordLogout()
	if uri == "" {
		return DefaultLogoutRedirect
	}
	registered, err := s.clients.IsPostLogoutRedirectURIRegistered(ctx, uri)
	if err != nil {
		s.log.Errorw("failed to check post-logout redirect uri", "uri", uri, "error", err)
		return DefaultLogoutRedirect
	}
	if !registered {
		s.log.Infow("ignoring unregistered post-logout redirect uri", "uri", uri)
		return DefaultLogoutRedirect
	}
	return uri
}
