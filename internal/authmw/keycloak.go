package authmw

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Nerzal/gocloak/v13"
)

// Service mirrors tracker users into the Keycloak realm.
type Service struct {
	Client       *gocloak.GoCloak
	Realm        string
	clientID     string
	clientSecret string
}

func NewService(baseURL, realm, clientID, clientSecret string) (*Service, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	s := &Service{
		Client:       gocloak.NewClient(baseURL),
		Realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
	}

	if err := s.selfTest(); err != nil {
		log.Printf("keycloak self test failed: %v", err)
		return nil, err
	}

	return s, nil
}

// JWKSURL is where the realm publishes its signing keys.
func JWKSURL(baseURL, realm string) string {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", strings.TrimRight(baseURL, "/"), realm)
}

func (s *Service) selfTest() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	jwt, err := s.LoginAdmin(ctx)
	if err != nil {
		return fmt.Errorf("keycloak auth failed: %w", err)
	}

	if _, err = s.Client.GetRealm(ctx, jwt.AccessToken, s.Realm); err != nil {
		return fmt.Errorf("keycloak permission check failed: %w", err)
	}

	return nil
}

func (s *Service) LoginAdmin(ctx context.Context) (*gocloak.JWT, error) {
	return s.Client.LoginClient(
		ctx,
		s.clientID,
		s.clientSecret,
		s.Realm,
	)
}

// ProvisionUser creates an enabled realm user that must set a password and
// verify the email on first login, then grants it the realm role.
func (s *Service) ProvisionUser(ctx context.Context, email, name, role string) (string, error) {
	token, err := s.LoginAdmin(ctx)
	if err != nil {
		return "", fmt.Errorf("keycloak login: %w", err)
	}

	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	id, err := s.CreateUser(ctx, token.AccessToken, email, email, first, last)
	if err != nil {
		return "", fmt.Errorf("create keycloak user: %w", err)
	}

	if role != "" {
		if err := s.AssignRealmRole(ctx, token.AccessToken, id, role); err != nil {
			return id, fmt.Errorf("assign realm role %s: %w", role, err)
		}
	}
	return id, nil
}

// DeprovisionUser removes the realm user whose username is the given email.
func (s *Service) DeprovisionUser(ctx context.Context, email string) error {
	token, err := s.LoginAdmin(ctx)
	if err != nil {
		return fmt.Errorf("keycloak login: %w", err)
	}

	u, err := s.GetUserByUsername(ctx, token.AccessToken, email)
	if err != nil {
		return err
	}
	return s.DeleteUser(ctx, token.AccessToken, *u.ID)
}

func (s *Service) CreateUser(
	ctx context.Context,
	token string,
	username, email, firstname, lastname string,
) (string, error) {

	user := gocloak.User{
		Username:        gocloak.StringP(username),
		Email:           gocloak.StringP(email),
		Enabled:         gocloak.BoolP(true),
		FirstName:       gocloak.StringP(firstname),
		LastName:        gocloak.StringP(lastname),
		RequiredActions: &[]string{"UPDATE_PASSWORD", "VERIFY_EMAIL"},
	}

	return s.Client.CreateUser(ctx, token, s.Realm, user)
}

func (s *Service) DeleteUser(ctx context.Context, token, userID string) error {
	return s.Client.DeleteUser(ctx, token, s.Realm, userID)
}

func (s *Service) AssignRealmRole(ctx context.Context, token, userID, roleName string) error {
	role, err := s.Client.GetRealmRole(ctx, token, s.Realm, roleName)
	if err != nil {
		return err
	}
	return s.Client.AddRealmRoleToUser(ctx, token, s.Realm, userID, []gocloak.Role{*role})
}

func (s *Service) GetUserByUsername(ctx context.Context, token, username string) (*gocloak.User, error) {
	users, err := s.Client.GetUsers(ctx, token, s.Realm, gocloak.GetUsersParams{
		Username: gocloak.StringP(username),
		Exact:    gocloak.BoolP(true),
		Max:      gocloak.IntP(2),
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	if len(users) > 1 {
		return nil, fmt.Errorf("multiple users matched username")
	}
	return users[0], nil
}
