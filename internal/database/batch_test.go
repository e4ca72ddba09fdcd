package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDB struct {
	query string
	vars  map[string]interface{}
	err   error
}

func (r *recordingDB) Connect(ctx context.Context) error { return nil }
func (r *recordingDB) Close() error                      { return nil }
func (r *recordingDB) Ping(ctx context.Context) error    { return nil }
func (r *recordingDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	r.query, r.vars = query, vars
	return nil, r.err
}
func (r *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	return nil, ErrNotFound
}
func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.Query(ctx, query, vars)
	return err
}

func TestBatch_Build_NamespacesVariables(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	b.Add("UPDATE type::record($id) SET status = $status", map[string]interface{}{"id": "ticket:1", "status": "paid"})
	b.Add("UPDATE type::record($id) SET seats_sold += $n;", map[string]interface{}{"id": "dining_event:1", "n": 2})

	query, vars := b.Build()

	assert.True(t, strings.HasPrefix(query, "BEGIN TRANSACTION;"))
	assert.True(t, strings.HasSuffix(query, "COMMIT TRANSACTION;"))
	assert.Contains(t, query, "type::record($s1_id) SET status = $s1_status;")
	assert.Contains(t, query, "type::record($s2_id) SET seats_sold += $s2_n;")
	assert.NotContains(t, query, ";;")
	assert.Equal(t, "ticket:1", vars["s1_id"])
	assert.Equal(t, "dining_event:1", vars["s2_id"])
	assert.Equal(t, 2, vars["s2_n"])
}

func TestBatch_Add_PrefixVariablesNotConfused(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	b.Add("UPDATE user SET email = $email, email_verified = $email_verified", map[string]interface{}{
		"email":          "a@b.co",
		"email_verified": true,
	})

	query, vars := b.Build()

	assert.Contains(t, query, "email = $s1_email,")
	assert.Contains(t, query, "email_verified = $s1_email_verified")
	assert.Len(t, vars, 2)
}

func TestBatch_Add_LeavesUnknownVariables(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	b.Add("UPDATE $auth SET seen = time::now()", nil)

	query, _ := b.Build()
	assert.Contains(t, query, "UPDATE $auth SET")
}

func TestBatch_Run_Empty(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	require.NoError(t, NewBatch().Run(context.Background(), db))
	assert.Empty(t, db.query)
}

func TestBatch_Run_SendsSingleQuery(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	b := NewBatch().
		Add("DELETE type::record($id)", map[string]interface{}{"id": "memory:1"})

	require.NoError(t, b.Run(context.Background(), db))
	assert.Contains(t, db.query, "DELETE type::record($s1_id)")
	assert.Equal(t, 1, b.Len())
}

func TestFirstRecord(t *testing.T) {
	t.Parallel()

	rec, err := FirstRecord(map[string]interface{}{
		"status": "OK",
		"result": []interface{}{map[string]interface{}{"id": "user:1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "user:1", rec.(map[string]interface{})["id"])

	_, err = FirstRecord(map[string]interface{}{"status": "OK", "result": []interface{}{}})
	assert.ErrorIs(t, err, ErrNotFound)

	scalar, err := FirstRecord(map[string]interface{}{"status": "OK", "result": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, float64(3), scalar)
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	dup := classifyError(assert.AnError)
	assert.ErrorIs(t, dup, ErrQuery)

	idx := classifyError(errString("Database index `user_email` already contains 'a@b.co'"))
	assert.ErrorIs(t, idx, ErrDuplicate)
}

type errString string

func (e errString) Error() string { return string(e) }

func TestOriginatingFailure(t *testing.T) {
	t.Parallel()

	cancelled := "The query was not executed due to a failed transaction"

	tests := []struct {
		name     string
		messages []string
		want     string
	}{
		{
			name:     "thrown error after cancelled statements",
			messages: []string{cancelled, cancelled, "An error occurred: payment already settled", cancelled},
			want:     "An error occurred: payment already settled",
		},
		{
			name:     "index violation after cancelled statements",
			messages: []string{cancelled, "Database index `user_email` already contains 'a@b.co'"},
			want:     "Database index `user_email` already contains 'a@b.co'",
		},
		{"only cancelled", []string{cancelled, cancelled}, cancelled},
		{"single failure", []string{"Parse error"}, "Parse error"},
		{"no messages", []string{"", ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, originatingFailure(tt.messages))
		})
	}
}

func TestOriginatingFailure_ClassifiesAsDuplicate(t *testing.T) {
	t.Parallel()

	msg := originatingFailure([]string{
		"The query was not executed due to a failed transaction",
		"Database index `user_email` already contains 'new@eatmeet.club'",
	})
	assert.ErrorIs(t, classifyError(errString(msg)), ErrDuplicate)
}
