package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// ContractRepository defines the interface for contract storage
type ContractRepository interface {
	Create(ctx context.Context, c *model.Contract) error
	GetByID(ctx context.Context, id string) (*model.Contract, error)
	List(ctx context.Context, restaurantID, status string) ([]*model.Contract, error)
	Transition(ctx context.Context, id string, from []string, to string, signerName *string) (*model.Contract, error)
}

// TemplateReader looks templates up by id
type TemplateReader interface {
	Get(ctx context.Context, id string) (*model.Template, error)
}

// ContractService drafts partnership contracts from templates and tracks
// them through send, sign and void.
type ContractService struct {
	repo        ContractRepository
	templates   TemplateReader
	restaurants RestaurantReader
	users       UserReader
	notifier    *NotificationService
	now         func() time.Time
}

// ContractServiceConfig holds configuration for the contract service
type ContractServiceConfig struct {
	Repo        ContractRepository
	Templates   TemplateReader
	Restaurants RestaurantReader
	Users       UserReader
	Notifier    *NotificationService // optional
	Now         func() time.Time
}

// NewContractService creates a new contract service
func NewContractService(cfg ContractServiceConfig) *ContractService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ContractService{
		repo:        cfg.Repo,
		templates:   cfg.Templates,
		restaurants: cfg.Restaurants,
		users:       cfg.Users,
		notifier:    cfg.Notifier,
		now:         cfg.Now,
	}
}

// Create renders a contract template for a restaurant. The template sees
// .Restaurant, .Owner, .Title and .Date plus the request vars.
func (s *ContractService) Create(ctx context.Context, actor Actor, req *model.CreateContractRequest) (*model.Contract, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	tmpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if tmpl.Kind != model.TemplateKindContract {
		return nil, ErrTemplateWrongKind
	}

	restaurant, err := s.restaurants.GetByID(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	owner, err := s.users.GetByID(ctx, restaurant.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	title := strings.TrimSpace(req.Title)
	vars := map[string]any{
		"Restaurant": map[string]any{
			"Name":    restaurant.Name,
			"Address": restaurant.Address,
			"City":    restaurant.City,
			"Cuisine": restaurant.Cuisine,
		},
		"Owner": map[string]any{
			"Name":  owner.DisplayName(),
			"Email": owner.Email,
		},
		"Title": title,
		"Date":  s.now().UTC().Format("2 January 2006"),
	}
	for k, v := range req.Vars {
		vars[k] = v
	}

	rendered, err := RenderTemplate(tmpl, vars)
	if err != nil {
		return nil, err
	}

	contract := &model.Contract{
		RestaurantID: restaurant.ID,
		TemplateID:   tmpl.ID,
		Title:        title,
		Body:         rendered.Body,
		Status:       model.ContractStatusDraft,
		CreatedBy:    actor.UserID,
	}
	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// Get returns a contract to an admin or the restaurant owner
func (s *ContractService) Get(ctx context.Context, actor Actor, id string) (*model.Contract, error) {
	contract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, ErrContractNotFound
	}
	if actor.IsAdmin() {
		return contract, nil
	}
	if _, err := loadOwnedRestaurant(ctx, s.restaurants, actor, contract.RestaurantID); err != nil {
		return nil, ErrContractNotFound
	}
	return contract, nil
}

// List returns contracts. Non-admins must name a restaurant they own.
func (s *ContractService) List(ctx context.Context, actor Actor, restaurantID, status string) ([]*model.Contract, error) {
	if !actor.IsAdmin() {
		if restaurantID == "" {
			return nil, ErrForbidden
		}
		if _, err := loadOwnedRestaurant(ctx, s.restaurants, actor, restaurantID); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, restaurantID, status)
}

// Send moves a draft to sent and emails the restaurant owner
func (s *ContractService) Send(ctx context.Context, id string) (*model.Contract, error) {
	contract, err := s.transition(ctx, id, []string{model.ContractStatusDraft}, model.ContractStatusSent, nil)
	if err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.GetByID(ctx, contract.RestaurantID)
	if err == nil && restaurant != nil {
		if owner, err := s.users.GetByID(ctx, restaurant.OwnerID); err == nil && owner != nil {
			s.notifier.Email(ctx, owner.Email,
				"Contract ready to sign: "+contract.Title,
				fmt.Sprintf("Hello %s,\n\nA contract for %s is ready for your signature.\n\n%s",
					owner.DisplayName(), restaurant.Name, contract.Body))
		}
	}
	return contract, nil
}

// Sign records the owner's signature on a sent contract
func (s *ContractService) Sign(ctx context.Context, actor Actor, id string, req *model.SignContractRequest) (*model.Contract, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	contract, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.GetByID(ctx, contract.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil || !restaurant.IsOwnedBy(actor.UserID) {
		return nil, ErrNotOwner
	}

	name := strings.TrimSpace(req.SignerName)
	return s.transition(ctx, id, []string{model.ContractStatusSent}, model.ContractStatusSigned, &name)
}

// Void withdraws a contract that has not been signed
func (s *ContractService) Void(ctx context.Context, id string) (*model.Contract, error) {
	return s.transition(ctx, id, []string{model.ContractStatusDraft, model.ContractStatusSent}, model.ContractStatusVoid, nil)
}

func (s *ContractService) transition(ctx context.Context, id string, from []string, to string, signer *string) (*model.Contract, error) {
	contract, err := s.repo.Transition(ctx, id, from, to, signer)
	if err != nil {
		return nil, err
	}
	if contract != nil {
		return contract, nil
	}

	// Nothing matched: tell a missing contract from a wrong status
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrContractNotFound
	}
	return nil, ErrContractInvalidStatus
}
