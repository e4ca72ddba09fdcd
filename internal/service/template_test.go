package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

type mockTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]*model.Template
}

func newMockTemplateRepo(templates ...*model.Template) *mockTemplateRepo {
	m := &mockTemplateRepo{templates: make(map[string]*model.Template)}
	for _, t := range templates {
		m.templates[t.ID] = t
	}
	return m
}

func (m *mockTemplateRepo) Create(ctx context.Context, t *model.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.templates {
		if existing.Name == t.Name {
			return database.ErrDuplicate
		}
	}
	t.ID = "template:" + t.Name
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id string) (*model.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templates[id], nil
}

func (m *mockTemplateRepo) List(ctx context.Context, kind string) ([]*model.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Template
	for _, t := range m.templates {
		if kind == "" || t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.templates[id]
	if t == nil {
		return nil, nil
	}
	if v, ok := updates["body"].(string); ok {
		t.Body = v
	}
	if v, ok := updates["subject"].(string); ok {
		t.Subject = &v
	}
	if v, ok := updates["name"].(string); ok {
		t.Name = v
	}
	return t, nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, id)
	return nil
}

func strPtr(s string) *string { return &s }

// ============================================================================
// RenderTemplate Tests
// ============================================================================

func TestRenderTemplate_SubjectAndBody(t *testing.T) {
	t.Parallel()

	tmpl := &model.Template{
		Kind:    model.TemplateKindEmail,
		Subject: strPtr("Welcome, {{.Firstname}}"),
		Body:    "Hi {{.Name}}, your table at {{.Restaurant}} is ready.",
	}
	out, err := RenderTemplate(tmpl, map[string]any{"Firstname": "Nok", "Name": "Nok C", "Restaurant": "Sushi Zen"})
	require.NoError(t, err)

	assert.Equal(t, model.TemplateKindEmail, out.Kind)
	assert.Equal(t, "Welcome, Nok", out.Subject)
	assert.Equal(t, "Hi Nok C, your table at Sushi Zen is ready.", out.Body)
}

func TestRenderTemplate_MissingVariable(t *testing.T) {
	t.Parallel()

	_, err := RenderTemplate(&model.Template{Body: "Dear {{.Owner}}"}, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "body", verr.Fields[0].Field)
}

func TestRenderTemplate_NestedVars(t *testing.T) {
	t.Parallel()

	out, err := RenderTemplate(&model.Template{Body: "{{.Restaurant.Name}} in {{.Restaurant.City}}"},
		map[string]any{"Restaurant": map[string]any{"Name": "Baan", "City": "Bangkok"}})
	require.NoError(t, err)
	assert.Equal(t, "Baan in Bangkok", out.Body)
}

// ============================================================================
// TemplateService Tests
// ============================================================================

func TestTemplateService_Create_SyntaxChecked(t *testing.T) {
	t.Parallel()
	svc := NewTemplateService(newMockTemplateRepo())

	_, err := svc.Create(context.Background(), Actor{UserID: "user:admin"}, &model.CreateTemplateRequest{
		Name: "broken", Kind: model.TemplateKindSMS, Body: "Hello {{.Name",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "body", verr.Fields[0].Field)

	_, err = svc.Create(context.Background(), Actor{UserID: "user:admin"}, &model.CreateTemplateRequest{
		Name: "bad-subject", Kind: model.TemplateKindEmail, Subject: strPtr("{{if}}"), Body: "ok",
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "subject", verr.Fields[0].Field)
}

func TestTemplateService_Create_DuplicateName(t *testing.T) {
	t.Parallel()
	svc := NewTemplateService(newMockTemplateRepo())
	req := &model.CreateTemplateRequest{Name: "reminder", Kind: model.TemplateKindSMS, Body: "See you tonight, {{.Firstname}}"}

	created, err := svc.Create(context.Background(), Actor{UserID: "user:admin"}, req)
	require.NoError(t, err)
	assert.Equal(t, "user:admin", created.CreatedBy)

	_, err = svc.Create(context.Background(), Actor{UserID: "user:admin"}, req)
	assert.ErrorIs(t, err, ErrTemplateNameExists)
}

func TestTemplateService_Update_RechecksSyntax(t *testing.T) {
	t.Parallel()
	repo := newMockTemplateRepo(&model.Template{ID: "template:1", Name: "welcome", Kind: model.TemplateKindSMS, Body: "Hi"})
	svc := NewTemplateService(repo)

	_, err := svc.Update(context.Background(), "template:1", &model.UpdateTemplateRequest{Body: strPtr("{{end}}")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Hi", repo.templates["template:1"].Body)

	updated, err := svc.Update(context.Background(), "template:1", &model.UpdateTemplateRequest{Body: strPtr("Hi {{.Firstname}}")})
	require.NoError(t, err)
	assert.Equal(t, "Hi {{.Firstname}}", updated.Body)
}

func TestTemplateService_Render_NotFound(t *testing.T) {
	t.Parallel()
	svc := NewTemplateService(newMockTemplateRepo())

	_, err := svc.Render(context.Background(), "template:missing", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "template:missing"), ErrTemplateNotFound)
}

// ============================================================================
// NotificationService Tests
// ============================================================================

func setupNotificationService(templates ...*model.Template) (*NotificationService, *mockPublisher, *mockUserRepo) {
	publisher := &mockPublisher{}
	users := newMockUserRepo()
	users.add(&model.User{ID: "user:1", Email: "nok@example.com", Firstname: "Nok", Lastname: "C", Phone: strPtr("+66812345678")})
	users.add(&model.User{ID: "user:2", Email: "lek@example.com", Firstname: "Lek", Lastname: "S"})
	svc := NewNotificationService(publisher, users, NewTemplateService(newMockTemplateRepo(templates...)))
	return svc, publisher, users
}

func TestNotificationService_SendTemplated_Email(t *testing.T) {
	t.Parallel()
	svc, publisher, _ := setupNotificationService(&model.Template{
		ID: "template:1", Kind: model.TemplateKindEmail, Subject: strPtr("Hi {{.Firstname}}"), Body: "Your code is {{.Code}}",
	})

	n, err := svc.SendTemplated(context.Background(), &model.SendNotificationRequest{
		UserID: "user:1", TemplateID: "template:1", Vars: map[string]any{"Code": "EMC-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.ChannelEmail, n.Channel)
	assert.Equal(t, "nok@example.com", n.To)
	assert.Equal(t, "Hi Nok", n.Subject)
	assert.Equal(t, "Your code is EMC-1", n.Body)
	assert.Equal(t, 1, publisher.count())
}

func TestNotificationService_SendTemplated_SMSNeedsPhone(t *testing.T) {
	t.Parallel()
	svc, publisher, _ := setupNotificationService(&model.Template{
		ID: "template:1", Kind: model.TemplateKindSMS, Body: "See you tonight {{.Firstname}}",
	})

	n, err := svc.SendTemplated(context.Background(), &model.SendNotificationRequest{UserID: "user:1", TemplateID: "template:1"})
	require.NoError(t, err)
	assert.Equal(t, "+66812345678", n.To)

	_, err = svc.SendTemplated(context.Background(), &model.SendNotificationRequest{UserID: "user:2", TemplateID: "template:1"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, publisher.count())
}

func TestNotificationService_SendTemplated_ContractTemplateRejected(t *testing.T) {
	t.Parallel()
	svc, _, _ := setupNotificationService(&model.Template{ID: "template:1", Kind: model.TemplateKindContract, Body: "Agreement"})

	_, err := svc.SendTemplated(context.Background(), &model.SendNotificationRequest{UserID: "user:1", TemplateID: "template:1"})
	assert.ErrorIs(t, err, ErrTemplateWrongKind)
}

func TestNotificationService_Email_NilSafe(t *testing.T) {
	t.Parallel()

	var svc *NotificationService
	svc.Email(context.Background(), "a@example.com", "subject", "body")
}
