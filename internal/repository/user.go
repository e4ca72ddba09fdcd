package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	role := user.Role
	if role == "" {
		role = model.UserRoleMember
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			hash: IF $hash IS NOT NULL THEN $hash ELSE NONE END,
			firstname: $firstname,
			lastname: $lastname,
			phone: IF $phone IS NOT NULL THEN $phone ELSE NONE END,
			role: $role,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"email":     user.Email,
		"hash":      ptrToNone(user.Hash),
		"firstname": user.Firstname,
		"lastname":  user.Lastname,
		"phone":     ptrToNone(user.Phone),
		"role":      role,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	user.ID = created.ID
	user.Role = role
	user.CreatedOn = created.CreatedOn
	user.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($id)`
	return r.getOne(ctx, query, map[string]interface{}{"id": id})
}

// GetByEmail retrieves a user by normalised email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = $email LIMIT 1`
	return r.getOne(ctx, query, map[string]interface{}{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user, err := parseUserResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// List returns users newest first
func (r *UserRepository) List(ctx context.Context, role model.UserRole, page model.Page) ([]*model.User, bool, error) {
	query := `SELECT * FROM user`
	vars := map[string]interface{}{}
	if role != "" {
		query += ` WHERE role = $role`
		vars["role"] = role
	}
	query += ` ORDER BY created_on DESC LIMIT $limit START $offset`
	pageVars(vars, page.Limit, page.Offset)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list users: %w", err)
	}

	rows := statementRows(result, 0)
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		user, err := parseUserResult(row)
		if err != nil {
			return nil, false, err
		}
		users = append(users, user)
	}
	users, more := trimPage(users, page.Limit)
	return users, more, nil
}

// SetRole updates a user's role
func (r *UserRepository) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	query := `UPDATE type::record($id) SET role = $role, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":   userID,
		"role": role,
	}
	return r.db.Execute(ctx, query, vars)
}

// TouchLogin records a successful login
func (r *UserRepository) TouchLogin(ctx context.Context, userID string) error {
	query := `UPDATE type::record($id) SET login_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": userID})
}

func parseUserResult(result interface{}) (*model.User, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	user, err := decodeRecord[model.User](data)
	if err != nil {
		return nil, err
	}

	// Hash is json:"-" so it has to be copied by hand
	if h, ok := data["hash"].(string); ok && h != "" {
		user.Hash = &h
	}
	return user, nil
}
