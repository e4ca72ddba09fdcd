package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"text/template"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// TemplateRepository defines the interface for template storage
type TemplateRepository interface {
	Create(ctx context.Context, t *model.Template) error
	GetByID(ctx context.Context, id string) (*model.Template, error)
	List(ctx context.Context, kind string) ([]*model.Template, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Template, error)
	Delete(ctx context.Context, id string) error
}

// TemplateService stores and executes admin-managed text templates
type TemplateService struct {
	repo TemplateRepository
}

// NewTemplateService creates a new template service
func NewTemplateService(repo TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// Create stores a template after checking that subject and body parse
func (s *TemplateService) Create(ctx context.Context, actor Actor, req *model.CreateTemplateRequest) (*model.Template, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	if err := checkSyntax(req.Subject, req.Body); err != nil {
		return nil, err
	}

	t := &model.Template{
		Name:      strings.TrimSpace(req.Name),
		Kind:      req.Kind,
		Subject:   req.Subject,
		Body:      req.Body,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrTemplateNameExists
		}
		return nil, err
	}
	return t, nil
}

// Get returns a template
func (s *TemplateService) Get(ctx context.Context, id string) (*model.Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

// List returns templates, optionally of one kind
func (s *TemplateService) List(ctx context.Context, kind string) ([]*model.Template, error) {
	return s.repo.List(ctx, kind)
}

// Update changes a template. The result must still parse.
func (s *TemplateService) Update(ctx context.Context, id string, req *model.UpdateTemplateRequest) (*model.Template, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	subject, body := current.Subject, current.Body
	if req.Subject != nil {
		subject = req.Subject
	}
	if req.Body != nil {
		body = *req.Body
	}
	if err := checkSyntax(subject, body); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Subject != nil {
		updates["subject"] = *req.Subject
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}

	t, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrTemplateNameExists
		}
		return nil, err
	}
	if t == nil {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

// Delete removes a template. Contracts keep their already rendered body.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Render executes a stored template with vars
func (s *TemplateService) Render(ctx context.Context, id string, vars map[string]any) (*model.RenderedTemplate, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderTemplate(t, vars)
}

// RenderTemplate executes subject and body. A variable the template uses
// but vars lacks is a validation error.
func RenderTemplate(t *model.Template, vars map[string]any) (*model.RenderedTemplate, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	body, err := execute("body", t.Body, vars)
	if err != nil {
		return nil, err
	}
	out := &model.RenderedTemplate{Kind: t.Kind, Body: body}
	if t.Subject != nil {
		if out.Subject, err = execute("subject", *t.Subject, vars); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkSyntax(subject *string, body string) error {
	if _, err := parse("body", body); err != nil {
		return err
	}
	if subject != nil {
		if _, err := parse("subject", *subject); err != nil {
			return err
		}
	}
	return nil
}

func parse(field, text string) (*template.Template, error) {
	tmpl, err := template.New(field).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, NewValidationError([]model.FieldError{{Field: field, Message: err.Error()}})
	}
	return tmpl, nil
}

func execute(field, text string, vars map[string]any) (string, error) {
	tmpl, err := parse(field, text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", NewValidationError([]model.FieldError{{Field: field, Message: err.Error()}})
	}
	return buf.String(), nil
}
